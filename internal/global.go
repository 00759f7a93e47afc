package internal

import "time"

// DefaultPriority is the ntfy default message priority.
const DefaultPriority = 3

type Event struct {
	Timestamp time.Time
	RawData   string
	Metadata  Metadata
}

type Metadata struct {
	Source  string
	Host    string
	LineNum int
}

// Notification is a fired trigger, ready for dispatch. Topic and Server are
// optional per-notification overrides of the notifier defaults.
type Notification struct {
	Rule     string
	Message  string
	Title    string
	Tags     string
	Priority int
	Topic    string
	Server   string
	Time     time.Time
}

// Plugin interface that all plugins must implement
type Plugin interface {
	Name() string
	Init(config map[string]any) error
	Exit() error
}
