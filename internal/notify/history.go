package notify

import (
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"
	"github.com/sirupsen/logrus"
)

// History records every fired notification in a local sqlite database, useful
// for auditing what fired while the operator was away.
type History struct {
	name             string
	match            string
	dbFile           string
	cleanUpThreshold int
	repository       HistoryRepository
}

func (h *History) Name() string {
	return h.name
}

func (h *History) MatchRule(rule string) bool {
	return util.TagMatch(rule, h.match)
}

func (h *History) Init(config map[string]any) error {
	h.name = util.MustString(config["Name"])
	if h.name == "" {
		h.name = "history"
	}

	h.match = util.MustString(config["Match"])
	if h.match == "" {
		h.match = "*"
	}

	h.dbFile = util.MustString(config["DBFile"])
	if h.dbFile == "" {
		h.dbFile = "./notifications.db"
	}

	if threshold, ok := config["CleanUpThreshold"].(int); ok {
		h.cleanUpThreshold = threshold
	} else {
		h.cleanUpThreshold = 30
	}

	if h.repository == nil {
		repository, err := NewSQLiteHistoryRepository(h.dbFile)
		if err != nil {
			return err
		}
		h.repository = repository
	}
	return h.repository.CreateTables()
}

func (h *History) Send(n internal.Notification) error {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	return h.repository.InsertNotification(n)
}

func (h *History) Exit() error {
	deletedCount, err := h.repository.CleanupOldEntries(h.cleanUpThreshold)
	if err != nil {
		return err
	}
	logrus.Debugf("cleaned %d old entries in notifications db", deletedCount)

	if err := h.repository.Close(); err != nil {
		logrus.WithError(err).Error("could not close db repository")
	}
	return nil
}
