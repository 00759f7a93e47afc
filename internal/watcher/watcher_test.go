package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ftc2/interview-notify/internal"
	"github.com/stretchr/testify/assert"
)

func testWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w := &Watcher{}
	err := w.Init(map[string]any{
		"Dir":          dir,
		"ScanInterval": "20ms",
		"PollInterval": "10ms",
	})
	assert.NoError(t, err)
	return w
}

func TestWatcher_Init(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := writeTestLog(t, tmpDir, "some.log", "")

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:   "valid config",
			config: map[string]any{"Dir": tmpDir},
		},
		{
			name:    "missing dir",
			config:  map[string]any{},
			wantErr: true,
		},
		{
			name:    "dir does not exist",
			config:  map[string]any{"Dir": filepath.Join(tmpDir, "nope")},
			wantErr: true,
		},
		{
			name:    "dir is a file",
			config:  map[string]any{"Dir": tmpFile},
			wantErr: true,
		},
		{
			name:    "invalid scan interval",
			config:  map[string]any{"Dir": tmpDir, "ScanInterval": "soon"},
			wantErr: true,
		},
		{
			name:    "negative poll interval",
			config:  map[string]any{"Dir": tmpDir, "PollInterval": "-1s"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Watcher{}
			err := w.Init(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatcher_FindLatestLog(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()

	log1 := writeTestLog(t, tmpDir, "log1.txt", "old\n")
	log2 := writeTestLog(t, tmpDir, "log2.txt", "new\n")
	artifact := writeTestLog(t, tmpDir, ".DS_Store", "junk")

	assert.NoError(t, os.Chtimes(log1, now.Add(-time.Hour), now.Add(-time.Hour)))
	assert.NoError(t, os.Chtimes(log2, now, now))
	// The artifact is newest but must never win.
	assert.NoError(t, os.Chtimes(artifact, now.Add(time.Hour), now.Add(time.Hour)))

	w := testWatcher(t, tmpDir)
	latest, err := w.findLatestLog()
	assert.NoError(t, err)
	assert.Equal(t, log2, latest)
}

func TestWatcher_FindLatestLogTieBreak(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()

	logA := writeTestLog(t, tmpDir, "a.txt", "")
	logB := writeTestLog(t, tmpDir, "b.txt", "")
	assert.NoError(t, os.Chtimes(logA, now, now))
	assert.NoError(t, os.Chtimes(logB, now, now))

	w := testWatcher(t, tmpDir)
	latest, err := w.findLatestLog()
	assert.NoError(t, err)
	assert.Equal(t, logA, latest)
}

func TestWatcher_EmptyDirFatalAtStartup(t *testing.T) {
	tmpDir := t.TempDir()

	w := testWatcher(t, tmpDir)
	output := make(chan internal.Event, 10)
	errs := make(chan error, 1)

	err := w.Start(context.Background(), output, errs)
	assert.ErrorIs(t, err, ErrNoLogFiles)
}

func TestWatcher_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()

	log1 := writeTestLog(t, tmpDir, "log1.txt", "first\n")
	assert.NoError(t, os.Chtimes(log1, now.Add(-time.Minute), now.Add(-time.Minute)))

	w := testWatcher(t, tmpDir)
	output := make(chan internal.Event, 10)
	errs := make(chan error, 1)

	assert.NoError(t, w.Start(context.Background(), output, errs))
	defer w.Exit()

	// Replay of the current log.
	event := receiveLine(t, output)
	assert.Equal(t, "first", event.RawData)
	assert.Equal(t, log1, event.Metadata.Source)

	appendToLog(t, log1, "second\n")
	assert.Equal(t, "second", receiveLine(t, output).RawData)

	// A newer file supersedes the current one; its last pre-existing line is
	// replayed before any fresh appends.
	log2 := writeTestLog(t, tmpDir, "log2.txt", "third\n")
	assert.NoError(t, os.Chtimes(log2, now.Add(time.Minute), now.Add(time.Minute)))

	event = receiveLine(t, output)
	assert.Equal(t, "third", event.RawData)
	assert.Equal(t, log2, event.Metadata.Source)

	appendToLog(t, log2, "fourth\n")
	assert.Equal(t, "fourth", receiveLine(t, output).RawData)
}

func TestWatcher_EmptyDirMidRunKeepsSession(t *testing.T) {
	tmpDir := t.TempDir()
	log1 := writeTestLog(t, tmpDir, "log1.txt", "first\n")

	w := testWatcher(t, tmpDir)
	output := make(chan internal.Event, 10)
	errs := make(chan error, 1)

	assert.NoError(t, w.Start(context.Background(), output, errs))
	defer w.Exit()

	assert.Equal(t, "first", receiveLine(t, output).RawData)

	// Mid-run emptiness is tolerated; the open handle keeps the session
	// alive even though the directory entry is gone.
	assert.NoError(t, os.Remove(log1))
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-errs:
		t.Fatalf("unexpected fatal error: %v", err)
	default:
	}
}

func TestWatcher_DirRemovedMidRunIsFatal(t *testing.T) {
	baseDir := t.TempDir()
	logDir := filepath.Join(baseDir, "logs")
	assert.NoError(t, os.Mkdir(logDir, 0755))
	writeTestLog(t, logDir, "log1.txt", "first\n")

	w := testWatcher(t, logDir)
	output := make(chan internal.Event, 10)
	errs := make(chan error, 1)

	assert.NoError(t, w.Start(context.Background(), output, errs))
	defer w.Exit()

	assert.Equal(t, "first", receiveLine(t, output).RawData)

	assert.NoError(t, os.RemoveAll(logDir))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for fatal error")
	}
}
