package notify

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"
)

const DefaultNtfyServer = "https://ntfy.sh"

// Ntfy posts notifications to an ntfy server as 'POST {server}/{topic}' with
// the message as body and Title/Tags/Priority carried in headers.
type Ntfy struct {
	name       string
	match      string
	server     string
	topic      string
	token      string
	httpClient *http.Client
}

func (n *Ntfy) Name() string {
	return n.name
}

func (n *Ntfy) MatchRule(rule string) bool {
	return util.TagMatch(rule, n.match)
}

func (n *Ntfy) Init(config map[string]any) error {
	n.topic = util.MustString(config["Topic"])
	if n.topic == "" {
		return errors.New("ntfy topic is required")
	}

	n.name = util.MustString(config["Name"])
	if n.name == "" {
		n.name = "ntfy"
	}

	n.match = util.MustString(config["Match"])
	if n.match == "" {
		n.match = "*"
	}

	n.server = strings.TrimRight(util.MustString(config["Server"]), "/")
	if n.server == "" {
		n.server = DefaultNtfyServer
	}

	n.token = util.MustString(config["Token"])

	n.httpClient = &http.Client{
		Timeout: time.Second * 30,
	}
	return nil
}

func (n *Ntfy) Send(notification internal.Notification) error {
	server := n.server
	if notification.Server != "" {
		server = strings.TrimRight(notification.Server, "/")
	}
	topic := n.topic
	if notification.Topic != "" {
		topic = notification.Topic
	}
	url := fmt.Sprintf("%s/%s", server, topic)

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(notification.Message))
	if err != nil {
		return err
	}
	if notification.Title != "" {
		req.Header.Set("Title", notification.Title)
	}
	if notification.Tags != "" {
		req.Header.Set("Tags", notification.Tags)
	}
	if notification.Priority != 0 {
		req.Header.Set("Priority", strconv.Itoa(notification.Priority))
	}
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	res, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status: %s", res.Status)
	}
	return nil
}

func (n *Ntfy) Exit() error {
	return nil
}
