package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/ftc2/interview-notify/internal/util"
	"github.com/sirupsen/logrus"
)

// OS artifact filenames that never count as log files.
var osArtifacts = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	"desktop.ini": {},
}

// ErrNoLogFiles is returned when the watched directory holds no eligible
// files. Fatal at startup; tolerated mid-run while a session is live.
var ErrNoLogFiles = errors.New("no log files found")

const (
	defaultScanInterval = time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Watcher polls a directory for the most recently modified log file and keeps
// exactly one tail session bound to it, handing off on rotation. Handoffs are
// serialized: the old session has fully stopped before the new one starts.
type Watcher struct {
	name         string
	dir          string
	scanInterval time.Duration
	pollInterval time.Duration
	current      string
	session      *tailSession
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func (w *Watcher) Name() string {
	return w.name
}

func (w *Watcher) Init(config map[string]any) error {
	w.dir = util.MustString(config["Dir"])
	if w.dir == "" {
		return errors.New("no log dir provided for watcher")
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("log path invalid: %v", err)
	}
	if !info.IsDir() {
		return errors.New("log path invalid: dir expected, got file")
	}

	w.name = util.MustString(config["Name"])
	if w.name == "" {
		w.name = "watcher"
	}

	if w.scanInterval, err = intervalSetting(config, "ScanInterval", defaultScanInterval); err != nil {
		return err
	}
	if w.pollInterval, err = intervalSetting(config, "PollInterval", defaultPollInterval); err != nil {
		return err
	}

	return nil
}

func intervalSetting(config map[string]any, key string, fallback time.Duration) (time.Duration, error) {
	raw := util.MustString(config[key])
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %v", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s parameter: must be positive", key)
	}
	return d, nil
}

// Start performs the initial scan synchronously so that an empty or unreadable
// directory fails startup, then runs the scan loop. Fatal mid-run errors are
// delivered on errs.
func (w *Watcher) Start(parentCtx context.Context, output chan<- internal.Event, errs chan<- error) error {
	w.ctx, w.cancel = context.WithCancel(parentCtx)

	first, err := w.findLatestLog()
	if err != nil {
		return err
	}

	logrus.WithField("dir", w.dir).Info("Starting log watcher")
	w.wg.Add(1)
	go w.scanLoop(first, output, errs)
	return nil
}

func (w *Watcher) Exit() error {
	logrus.WithField("dir", w.dir).Info("Stopping log watcher")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) scanLoop(first string, output chan<- internal.Event, errs chan<- error) {
	defer w.wg.Done()

	w.startSession(first, output)

	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.stopSession()
			return

		case <-ticker.C:
			latest, err := w.findLatestLog()
			if err != nil {
				if errors.Is(err, ErrNoLogFiles) {
					// The active session keeps running; only a fresh
					// startup with zero files is fatal.
					logrus.WithField("dir", w.dir).Warn("log dir is empty, keeping current session")
					continue
				}
				w.stopSession()
				select {
				case errs <- err:
				case <-w.ctx.Done():
				}
				return
			}
			if latest != w.current {
				logrus.WithField("file", filepath.Base(latest)).Info("newer log found")
				w.stopSession()
				w.startSession(latest, output)
			}
		}
	}
}

// findLatestLog selects the regular file with the newest modification time,
// skipping OS artifacts. Equal timestamps resolve to the lexicographically
// smaller name so a race between fresh files picks the same one every scan.
func (w *Watcher) findLatestLog() (string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", fmt.Errorf("could not list log dir: %w", err)
	}

	var best string
	var bestMod time.Time
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, skip := osArtifacts[entry.Name()]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// File vanished between list and stat, likely mid-rotation.
			continue
		}
		if best == "" ||
			info.ModTime().After(bestMod) ||
			(info.ModTime().Equal(bestMod) && entry.Name() < filepath.Base(best)) {
			best = filepath.Join(w.dir, entry.Name())
			bestMod = info.ModTime()
		}
	}

	if best == "" {
		return "", ErrNoLogFiles
	}
	return best, nil
}

func (w *Watcher) startSession(path string, output chan<- internal.Event) {
	w.current = path
	w.session = newTailSession(path, w.pollInterval)
	go w.session.run(w.ctx, output)
}

// stopSession blocks until the old session has acknowledged cancellation, so
// at most one file handle and one tailing worker exist at any time.
func (w *Watcher) stopSession() {
	if w.session == nil {
		return
	}
	w.session.stop()
	<-w.session.done
	w.session = nil
}
