package watcher

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/sirupsen/logrus"
)

const tailChunkSize = 4096

// tailSession tails exactly one log file. It replays the most recent complete
// pre-existing line, then streams appended lines until stopped. The owning
// Watcher calls stop() once and waits on done.
type tailSession struct {
	path         string
	pollInterval time.Duration
	stopCh       chan struct{}
	done         chan struct{}
}

func newTailSession(path string, pollInterval time.Duration) *tailSession {
	return &tailSession{
		path:         path,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (s *tailSession) stop() {
	close(s.stopCh)
}

func (s *tailSession) cancelled(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *tailSession) run(ctx context.Context, output chan<- internal.Event) {
	defer close(s.done)

	logrus.WithField("file", filepath.Base(s.path)).Info("tailing log file")

	file, cursor, last, ok := s.open(ctx)
	if !ok {
		return
	}
	defer file.Close()

	hostname, _ := os.Hostname()
	lineNum := 0
	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		lineNum++
		event := internal.Event{
			Timestamp: time.Now(),
			RawData:   text,
			Metadata: internal.Metadata{
				Source:  s.path,
				Host:    hostname,
				LineNum: lineNum,
			},
		}
		select {
		case output <- event:
		case <-s.stopCh:
		case <-ctx.Done():
		}
	}

	// Replay the newest pre-existing line so a rotation mid-interview still
	// surfaces the latest announcement immediately.
	emit(last)

	if _, err := file.Seek(cursor, io.SeekStart); err != nil {
		logrus.WithField("path", s.path).WithError(err).Warn("could not seek log file")
		return
	}
	reader := bufio.NewReader(file)

	// Bytes of a line still missing its newline stay pending until the rest
	// arrives, so appends are delivered whole, in order, exactly once.
	var pending strings.Builder
	for {
		if s.cancelled(ctx) {
			return
		}

		chunk, err := reader.ReadString('\n')
		if err == nil {
			pending.WriteString(chunk)
			line := pending.String()
			pending.Reset()
			emit(line)
			continue
		}

		pending.WriteString(chunk)
		if err != io.EOF {
			// Transient while the file is written by another process.
			logrus.WithField("path", s.path).WithError(err).Debug("read error, retrying")
		}

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
		}
	}
}

// open retries until the file yields a readable handle and a start position,
// or the session is cancelled. A file that is unreadable mid-rotation is
// transient I/O: recovered here by poll-and-retry, never surfaced as an error.
func (s *tailSession) open(ctx context.Context) (*os.File, int64, string, bool) {
	warned := false
	for {
		file, err := os.Open(s.path)
		if err == nil {
			cursor, last, lastErr := lastLine(file)
			if lastErr == nil {
				return file, cursor, last, true
			}
			file.Close()
			err = lastErr
		}

		level := logrus.DebugLevel
		if !warned {
			level = logrus.WarnLevel
			warned = true
		}
		logrus.StandardLogger().WithField("path", s.path).WithError(err).
			Log(level, "could not read log file, retrying")

		select {
		case <-s.stopCh:
			return nil, 0, "", false
		case <-ctx.Done():
			return nil, 0, "", false
		case <-time.After(s.pollInterval):
		}
	}
}

// lastLine scans backward from EOF for the most recent newline-terminated
// line. It returns the offset just past that line's terminator, which is
// where tailing resumes; a trailing partial line is left for the poll loop to
// complete. An empty file, or one with no complete line yet, replays nothing
// and tails from the start.
func lastLine(file *os.File) (int64, string, error) {
	info, err := file.Stat()
	if err != nil {
		return 0, "", err
	}
	size := info.Size()

	var buf []byte
	pos := size
	for pos > 0 {
		n := int64(tailChunkSize)
		if pos < n {
			n = pos
		}
		pos -= n
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, pos); err != nil {
			return 0, "", err
		}
		buf = append(chunk, buf...)

		end := bytes.LastIndexByte(buf, '\n')
		if end < 0 {
			continue
		}
		cursor := pos + int64(end) + 1
		line := buf[:end]
		if start := bytes.LastIndexByte(line, '\n'); start >= 0 {
			return cursor, string(line[start+1:]), nil
		}
		if pos == 0 {
			return cursor, string(line), nil
		}
		// Line start lies in an earlier chunk, keep reading backward.
	}

	return 0, "", nil
}
