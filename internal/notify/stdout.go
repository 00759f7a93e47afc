package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"
)

var ValidFormats = []string{"json", "plain"}

// Stdout prints fired notifications, mainly for local runs and debugging.
type Stdout struct {
	name   string
	match  string
	format string
	mutex  sync.Mutex // Ensures atomic writes to stdout
}

func (s *Stdout) Name() string {
	return s.name
}

func (s *Stdout) MatchRule(rule string) bool {
	return util.TagMatch(rule, s.match)
}

func (s *Stdout) Init(config map[string]any) error {
	s.name = util.MustString(config["Name"])
	if s.name == "" {
		s.name = "stdout"
	}

	s.match = util.MustString(config["Match"])
	if s.match == "" {
		s.match = "*"
	}

	s.format = util.MustString(config["Format"])
	if s.format == "" {
		s.format = "plain"
	}

	if !slices.Contains(ValidFormats, s.format) {
		return fmt.Errorf("not a valid format for stdout provided: %s", s.format)
	}

	return nil
}

func (s *Stdout) Send(n internal.Notification) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var output string
	switch s.format {
	case "json":
		formatted := map[string]any{
			"timestamp": n.Time.Format(time.RFC3339),
			"rule":      n.Rule,
			"title":     n.Title,
			"message":   n.Message,
			"tags":      n.Tags,
			"priority":  n.Priority,
		}
		bytes, err := json.Marshal(formatted)
		if err != nil {
			return err
		}
		output = string(bytes)
	case "plain":
		output = fmt.Sprintf("%s [%s] %s: %s",
			n.Time.Format(time.RFC3339), n.Rule, n.Title, n.Message)
	default:
		return fmt.Errorf("unknown format: %s", s.format)
	}

	fmt.Fprintln(os.Stdout, output)
	return nil
}

func (s *Stdout) Exit() error {
	return nil
}
