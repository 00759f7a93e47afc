package notify

import "github.com/ftc2/interview-notify/internal"

// Plugin is a notification dispatcher. Send is fire-and-forget from the
// pipeline's point of view: errors are logged by the caller, never retried.
type Plugin interface {
	internal.Plugin
	Send(n internal.Notification) error
	MatchRule(rule string) bool
}
