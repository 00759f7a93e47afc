package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/notify"
	"github.com/ftc2/interview-notify/internal/trigger"
	"github.com/ftc2/interview-notify/internal/watcher"
	"github.com/sirupsen/logrus"
)

// Engine wires the watcher, matcher and notifiers together. Lines flow from
// the single watcher session through the matcher; fired notifications are
// dispatched on a separate worker so a slow notifier never stalls tailing.
type Engine struct {
	watcher   *watcher.Watcher
	matcher   *trigger.Matcher
	notifiers []notify.Plugin
	lines     chan internal.Event
	fired     chan internal.Notification
	errs      chan error
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEngine() *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		lines:  make(chan internal.Event, 1000),
		fired:  make(chan internal.Notification, 100),
		errs:   make(chan error, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterWatcher sets the single log watcher input
func (e *Engine) RegisterWatcher(w *watcher.Watcher) {
	e.watcher = w
}

// RegisterMatcher sets the trigger matcher
func (e *Engine) RegisterMatcher(m *trigger.Matcher) {
	e.matcher = m
}

// RegisterNotifier adds a notification dispatcher to the engine
func (e *Engine) RegisterNotifier(n notify.Plugin) {
	e.notifiers = append(e.notifiers, n)
}

// Errors delivers fatal mid-run failures, e.g. the log directory becoming
// unreadable. The caller decides the process exit.
func (e *Engine) Errors() <-chan error {
	return e.errs
}

// Start begins the processing pipeline
func (e *Engine) Start() error {
	if e.watcher == nil || e.matcher == nil {
		return errors.New("engine needs a watcher and a matcher")
	}
	if len(e.notifiers) == 0 {
		return errors.New("engine needs at least one notifier")
	}

	if err := e.watcher.Start(e.ctx, e.lines, e.errs); err != nil {
		return err
	}

	e.wg.Add(2)
	go e.processLines()
	go e.dispatchNotifications()

	return nil
}

// processLines routes every tailed line through the matcher. First matching
// rule wins; at most one notification is queued per line.
func (e *Engine) processLines() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return

		case event := <-e.lines:
			logrus.Debug(event.RawData)
			notification, ok := e.matcher.Match(event.RawData)
			if !ok {
				continue
			}
			notification.Time = event.Timestamp

			logrus.WithFields(logrus.Fields{
				"rule": notification.Rule,
				"file": event.Metadata.Source,
			}).Info("trigger fired")

			select {
			case e.fired <- notification:
			default:
				// Fire-and-forget: dropping beats stalling the tail.
				logrus.Warn("notification overflow")
			}
		}
	}
}

// dispatchNotifications fans fired notifications out to every notifier whose
// rule pattern matches. Failures are logged, never retried.
func (e *Engine) dispatchNotifications() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return

		case notification := <-e.fired:
			for _, notifier := range e.notifiers {
				if !notifier.MatchRule(notification.Rule) {
					continue
				}
				if err := notifier.Send(notification); err != nil {
					logrus.WithField("notifier", notifier.Name()).
						WithError(err).Error("could not send notification")
				}
			}
		}
	}
}

// Stop gracefully shuts down the engine
func (e *Engine) Stop() error {
	e.cancel()
	if e.watcher != nil {
		e.watcher.Exit()
	}
	e.wg.Wait()

	if e.matcher != nil {
		e.matcher.Exit()
	}
	for _, notifier := range e.notifiers {
		if err := notifier.Exit(); err != nil {
			logrus.WithField("notifier", notifier.Name()).
				WithError(err).Error("could not stop notifier")
		}
	}

	return nil
}
