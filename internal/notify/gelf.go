package notify

import (
	"errors"
	"fmt"
	"io"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"

	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// GELF forwards fired notifications to a Graylog endpoint.
type GELF struct {
	name    string
	match   string
	host    string
	hostKey string
	port    int
	mode    string
	writer  gelf.Writer
}

func (g *GELF) Name() string {
	return g.name
}

func (g *GELF) MatchRule(rule string) bool {
	return util.TagMatch(rule, g.match)
}

func (g *GELF) Init(config map[string]any) error {
	g.name = util.MustString(config["Name"])
	if g.name == "" {
		g.name = "gelf"
	}

	g.match = util.MustString(config["Match"])
	if g.match == "" {
		g.match = "*"
	}

	g.host = util.MustString(config["Host"])
	if g.host == "" {
		g.host = "127.0.0.1"
	}

	g.hostKey = util.MustString(config["HostKey"])
	if g.hostKey == "" {
		return errors.New("please provide a valid HostKey for the gelf notifier")
	}

	g.mode = util.MustString(config["Mode"])
	if g.mode == "" {
		g.mode = "udp"
	}
	if g.mode != "udp" && g.mode != "tcp" {
		return fmt.Errorf("mode: '%v' is not supported", g.mode)
	}

	if port, exists := config["Port"]; exists {
		var ok bool
		if g.port, ok = port.(int); !ok {
			return errors.New("cant convert port to int")
		}
	} else {
		g.port = 12201
	}

	return g.setupWriter()
}

func (g *GELF) setupWriter() error {
	addr := fmt.Sprintf("%s:%d", g.host, g.port)
	var w gelf.Writer
	var err error

	switch g.mode {
	case "udp":
		w, err = gelf.NewUDPWriter(addr)
	case "tcp":
		w, err = gelf.NewTCPWriter(addr)
	default:
		return fmt.Errorf("unsupported mode: %s", g.mode)
	}

	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", g.mode, err)
	}

	g.writer = w
	return nil
}

func (g *GELF) Send(n internal.Notification) error {
	msg := gelf.Message{
		Version:  "1.1",
		Host:     g.hostKey,
		Short:    n.Title,
		Full:     n.Message,
		TimeUnix: float64(n.Time.Unix()),
		Level:    gelfLevel(n.Priority),
		Extra: map[string]any{
			"_rule":     n.Rule,
			"_tags":     n.Tags,
			"_priority": n.Priority,
		},
	}
	return g.writer.WriteMessage(&msg)
}

// gelfLevel maps ntfy priorities (1..5) onto syslog severities.
func gelfLevel(priority int) int32 {
	switch {
	case priority >= 5:
		return gelf.LOG_CRIT
	case priority == 4:
		return gelf.LOG_WARNING
	default:
		return gelf.LOG_NOTICE
	}
}

func (g *GELF) Exit() error {
	if g.writer != nil {
		if closer, ok := g.writer.(io.Closer); ok {
			return closer.Close()
		}
	}
	return nil
}
