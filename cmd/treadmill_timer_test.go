package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/treadmill-timer/internal/bt"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/feedback"
	"github.com/lowaak/treadmill-timer/internal/platform"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/workout"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
)

func TestUILogWriter_DropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	w := newUILogWriter(ch)

	n, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// Channel is full; the write must not block
	n, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	assert.Equal(t, "first\n", <-ch)
	assert.Empty(t, ch)
}

func TestNewLogger_WritesToFileAndPane(t *testing.T) {
	var file bytes.Buffer
	ch := make(chan string, 4)
	logger := newLogger(&file, ch)

	logger.Printf("Main: hello")

	assert.Contains(t, file.String(), "Main: hello")
	require.Len(t, ch, 1)
	assert.Contains(t, <-ch, "Main: hello")
}

func TestOpenStore_SeedsAndImports(t *testing.T) {
	dir := t.TempDir()
	programFile := filepath.Join(dir, "programs.yaml")
	content := "programs:\n" +
		"  - id: hills\n" +
		"    name: Hills\n" +
		"    position: 20\n" +
		"    repeat_count: 2\n" +
		"    intervals:\n" +
		"      - name: Climb\n" +
		"        duration: 120\n" +
		"        incline: 6\n" +
		"        speed: 5\n"
	require.NoError(t, os.WriteFile(programFile, []byte(content), 0o600))

	cfg := &config.Config{
		DataDir:    dir,
		DBPath:     filepath.Join(dir, "treadmill.db"),
		ImportFile: programFile,
	}
	db, err := openStore(log.New(io.Discard, "", 0), cfg)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	programs, err := db.ListPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, programs, 11, "ten defaults plus the imported one")

	hills, err := db.LoadProgram(ctx, "hills")
	require.NoError(t, err)
	assert.Equal(t, "Hills", hills.Name)
	assert.Equal(t, 2, hills.RepeatCount)
	require.Len(t, hills.Intervals, 1)
	assert.NotEmpty(t, hills.Intervals[0].ID)
}

func TestOpenStore_RejectsInvalidImport(t *testing.T) {
	dir := t.TempDir()
	programFile := filepath.Join(dir, "programs.yaml")
	content := "programs:\n" +
		"  - id: bad\n" +
		"    name: Bad\n" +
		"    intervals:\n" +
		"      - name: Too short\n" +
		"        duration: 5\n" +
		"        speed: 5\n"
	require.NoError(t, os.WriteFile(programFile, []byte(content), 0o600))

	cfg := &config.Config{
		DataDir:    dir,
		DBPath:     filepath.Join(dir, "treadmill.db"),
		ImportFile: programFile,
	}
	_, err := openStore(log.New(io.Discard, "", 0), cfg)
	assert.Error(t, err)
}

func TestStartTreadmill_Mock(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	controller, release := startTreadmill(logger, config.TreadmillConfig{Address: treadmill.MockAddress})
	require.NotNil(t, controller)
	require.NotNil(t, release)

	controller.Shutdown()
	release()
	assert.Contains(t, buf.String(), "Main: Driving treadmill")
}

func TestContainsDevice(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	belt := treadmill.NewMockDevice(logger, treadmill.MockDeviceConfig{Address: "AA:BB:CC:DD:EE:FF"})
	other := treadmill.NewMockDevice(logger, treadmill.MockDeviceConfig{Address: "11:22:33:44:55:66"})
	lower := treadmill.NewMockDevice(logger, treadmill.MockDeviceConfig{Address: "aa:bb:cc:dd:ee:ff"})

	assert.True(t, containsDevice([]bt.Device{other, belt}, belt))
	assert.True(t, containsDevice([]bt.Device{lower}, belt))
	assert.False(t, containsDevice([]bt.Device{other}, belt))
	assert.False(t, containsDevice(nil, belt))
}

type toneRecorder struct {
	mu    sync.Mutex
	freqs []float64
}

func (r *toneRecorder) PlayTone(freqHz float64, _ time.Duration, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freqs = append(r.freqs, freqHz)
	return nil
}

func (r *toneRecorder) played() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.freqs...)
}

func TestRunHeadless_PlaysCompletionCueBeforeReturning(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)
	cfg := &config.Config{
		DataDir:   dir,
		DBPath:    filepath.Join(dir, "treadmill.db"),
		ProgramID: "short",
	}
	db, err := openStore(logger, cfg)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	require.NoError(t, db.SaveProgram(context.Background(), workout.Program{
		ID:          "short",
		Name:        "Short",
		RepeatCount: 1,
		Intervals:   []workout.Interval{{ID: "a", Name: "Walk", Duration: 30, Speed: 5}},
	}))

	audio := &toneRecorder{}
	dispatcher := feedback.NewDispatcher(feedback.DispatcherArgs{
		Logger: logger,
		Caps:   platform.Capabilities{Audio: audio},
	})
	defer dispatcher.Shutdown()

	session := timer.NewSession(timer.SessionArgs{
		Logger:       logger,
		History:      db,
		TickInterval: time.Millisecond,
		Settings:     config.DefaultSettings(),
	})
	defer session.Shutdown()
	unlisten := session.ListenToEffects(dispatcher.Handle)
	defer unlisten()

	require.NoError(t, runHeadless(logger, cfg, db, session, dispatcher))

	// The flourish's last two tones are scheduled 850ms and 1100ms after completion
	played := audio.played()
	require.GreaterOrEqual(t, len(played), len(feedback.CompletionCue))
	last := len(feedback.CompletionCue) - 1
	assert.Equal(t,
		[]float64{feedback.CompletionCue[last-1].FreqHz, feedback.CompletionCue[last].FreqHz},
		played[len(played)-2:])
}
