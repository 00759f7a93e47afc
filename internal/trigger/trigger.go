package trigger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"
)

// Rule names, also used by notifiers for wildcard routing.
const (
	RuleInterviewSelf  = "interview-self"
	RuleInterviewOther = "interview-other"
	RuleMention        = "mention"
	RuleNetsplit       = "netsplit"
	RuleKick           = "kick"
)

var (
	// DefaultBotNicks are the announcement bots whose lines count as
	// authoritative when bot-prefix qualification is enabled.
	DefaultBotNicks = []string{"Gatekeeper"}

	// DefaultDisruptKeywords flag connection loss events. Matching is
	// case-sensitive, inherited behavior.
	DefaultDisruptKeywords = []string{"netsplit", "quit", "disconnect", "ping timeout", "connection reset"}
)

const defaultMarker = "Currently interviewing:"

var tagPattern = regexp.MustCompile(`<.*?>`)

// StripTags removes markup-style angle-bracket spans from a line. This also
// drops '<nick>' speaker framing, which is why the unqualified checks use it.
func StripTags(line string) string {
	return tagPattern.ReplaceAllString(line, "")
}

// Matcher evaluates lines against the trigger rule set in fixed priority
// order, first match wins. Evaluation is pure: no I/O, no state mutation.
type Matcher struct {
	name            string
	nick            string
	marker          string
	checkBotNicks   bool
	botNicks        []string
	disruptKeywords []string
}

func (m *Matcher) Name() string {
	return m.name
}

func (m *Matcher) Init(config map[string]any) error {
	m.nick = util.MustString(config["Nick"])
	if m.nick == "" {
		return errors.New("no nick provided for trigger matcher")
	}

	m.name = util.MustString(config["Name"])
	if m.name == "" {
		m.name = "triggers"
	}

	m.marker = util.MustString(config["Marker"])
	if m.marker == "" {
		m.marker = defaultMarker
	}

	m.checkBotNicks = true
	if check, exists := config["CheckBotNicks"]; exists {
		var ok bool
		if m.checkBotNicks, ok = check.(bool); !ok {
			return errors.New("cant convert CheckBotNicks parameter to bool")
		}
	}

	var err error
	if m.botNicks, err = util.StringSlice(config["BotNicks"]); err != nil {
		return fmt.Errorf("invalid BotNicks parameter: %v", err)
	}
	if len(m.botNicks) == 0 {
		m.botNicks = DefaultBotNicks
	}

	if m.disruptKeywords, err = util.StringSlice(config["DisruptKeywords"]); err != nil {
		return fmt.Errorf("invalid DisruptKeywords parameter: %v", err)
	}
	if len(m.disruptKeywords) == 0 {
		m.disruptKeywords = DefaultDisruptKeywords
	}

	return nil
}

func (m *Matcher) Exit() error {
	return nil
}

// Match evaluates a single line. At most one rule fires per line.
func (m *Matcher) Match(line string) (internal.Notification, bool) {
	switch {
	case m.containsTrigger(line, m.marker+" "+m.nick):
		return notification(RuleInterviewSelf, line, "Your interview is happening❗", "rotating_light", 5), true
	case m.containsTrigger(line, m.marker):
		return notification(RuleInterviewOther, line, "Interview Detected", "warning", internal.DefaultPriority), true
	case m.mentioned(line):
		return notification(RuleMention, line, "You were mentioned", "eyes", 4), true
	case m.disrupted(line):
		return notification(RuleNetsplit, line, "Bot connection issue", "electric_plug", 4), true
	case m.kicked(line):
		return notification(RuleKick, line, "You may have been kicked", "boot", 5), true
	}
	return internal.Notification{}, false
}

// containsTrigger applies bot-prefix qualification when enabled: only lines
// framed as '<bot>> trigger' count, suppressing human chatter echoing the
// phrase. Unqualified matching runs on the tag-stripped line.
func (m *Matcher) containsTrigger(line, trigger string) bool {
	if m.checkBotNicks {
		for _, bot := range m.botNicks {
			if strings.Contains(line, bot+"> "+trigger) {
				return true
			}
		}
		return false
	}
	return strings.Contains(StripTags(line), trigger)
}

// mentioned always bypasses bot-prefix qualification: a direct mention is
// meaningful regardless of who said it.
func (m *Matcher) mentioned(line string) bool {
	return strings.Contains(StripTags(line), m.nick+":")
}

func (m *Matcher) disrupted(line string) bool {
	if !m.containsBotNick(line) {
		return false
	}
	for _, keyword := range m.disruptKeywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}

// kicked is case-insensitive on the keyword only.
func (m *Matcher) kicked(line string) bool {
	return strings.Contains(line, m.nick) &&
		m.containsBotNick(line) &&
		strings.Contains(strings.ToLower(line), "kick")
}

func (m *Matcher) containsBotNick(line string) bool {
	for _, bot := range m.botNicks {
		if strings.Contains(line, bot) {
			return true
		}
	}
	return false
}

func notification(rule, message, title, tags string, priority int) internal.Notification {
	return internal.Notification{
		Rule:     rule,
		Message:  message,
		Title:    title,
		Tags:     tags,
		Priority: priority,
	}
}
