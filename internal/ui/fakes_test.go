package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/events"
	"github.com/lowaak/treadmill-timer/internal/feedback"
	"github.com/lowaak/treadmill-timer/internal/platform"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

func newTestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeSession records control calls and publishes snapshots on demand
type fakeSession struct {
	mu        sync.Mutex
	snapshot  timer.Snapshot
	calls     []string
	settings  config.Settings
	snapshots *events.ChannelEvent[timer.Snapshot]
}

func newFakeSession() *fakeSession {
	return &fakeSession{snapshots: events.NewChannelEvent[timer.Snapshot](true)}
}

func (s *fakeSession) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeSession) Start(program workout.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("start:" + program.ID)
	s.snapshot = timer.Snapshot{Phase: timer.PhaseRunning, Program: program, Repeat: 1}
}

func (s *fakeSession) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("toggle")
	switch s.snapshot.Phase {
	case timer.PhaseRunning:
		s.snapshot.Phase = timer.PhasePaused
	case timer.PhasePaused:
		s.snapshot.Phase = timer.PhaseRunning
	}
}

func (s *fakeSession) Stop(save bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(fmt.Sprintf("stop:%t", save))
	s.snapshot = timer.Snapshot{}
}

func (s *fakeSession) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("skip")
}

func (s *fakeSession) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("previous")
}

func (s *fakeSession) Snapshot() timer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *fakeSession) UpdateSettings(settings config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *fakeSession) ListenToSnapshots(ch chan<- timer.Snapshot) func() {
	return s.snapshots.Listen(ch)
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

var errStore = errors.New("store unavailable")

type fakeStore struct {
	mu            sync.Mutex
	programs      []workout.Program
	history       []store.HistoryEntry
	savedSettings []config.Settings
	historyLimit  int
	fail          bool
}

func (s *fakeStore) ListPrograms(ctx context.Context) ([]workout.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStore
	}
	return append([]workout.Program(nil), s.programs...), nil
}

func (s *fakeStore) ListWorkoutRecords(ctx context.Context, limit int) ([]store.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStore
	}
	s.historyLimit = limit
	return append([]store.HistoryEntry(nil), s.history...), nil
}

func (s *fakeStore) SaveSettings(ctx context.Context, settings config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStore
	}
	s.savedSettings = append(s.savedSettings, settings)
	return nil
}

func (s *fakeStore) Saved() []config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]config.Settings(nil), s.savedSettings...)
}

type fakeCues struct {
	mu     sync.Mutex
	played [][]feedback.Tone
}

func (c *fakeCues) Preview(cue []feedback.Tone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, cue)
}

type fakeVoices map[announce.Language][]platform.Voice

func (v fakeVoices) Voices(lang announce.Language) []platform.Voice {
	return v[lang]
}

type fakeTreadmill struct {
	data     *events.ChannelEvent[treadmill.TreadmillData]
	acquired bool
}

func newFakeTreadmill() *fakeTreadmill {
	return &fakeTreadmill{data: events.NewChannelEvent[treadmill.TreadmillData](false), acquired: true}
}

func (f *fakeTreadmill) ListenToData(ch chan<- treadmill.TreadmillData) func() {
	return f.data.Listen(ch)
}

func (f *fakeTreadmill) ControlAcquired() bool {
	return f.acquired
}

func testPrograms() []workout.Program {
	return []workout.Program{
		{
			ID: "program_1", Name: "Programme 1", RepeatCount: 1,
			Intervals: []workout.Interval{
				{ID: "i1", Name: "Warmup", Duration: 300, Speed: 4, Incline: 1},
				{ID: "i2", Name: "Run", Duration: 120, Speed: 9, Incline: 0},
			},
		},
		{ID: "program_2", Name: "Programme 2", Position: 1, RepeatCount: 1, Intervals: []workout.Interval{}},
		{
			ID: "program_3", Name: "Programme 3", Position: 2, RepeatCount: 2,
			Intervals: []workout.Interval{{ID: "i3", Name: "Hill", Duration: 60, Speed: 5, Incline: 8}},
		},
	}
}

// newTestModel builds a UIModel over a fake session. Callers must Shutdown the model.
func newTestModel(t *testing.T, dataDir string) (*UIModel, *fakeSession) {
	t.Helper()
	session := newFakeSession()
	model := NewUIModel(UIModelArgs{
		Logger:    newTestLogger(),
		LogChan:   make(chan string),
		Snapshots: session,
		DataDir:   dataDir,
		Settings:  config.DefaultSettings(),
	})
	return model, session
}

func newTestController(model *UIModel, session *fakeSession, st *fakeStore, cues *fakeCues, voices VoiceCatalog) *UIController {
	args := UIControllerArgs{
		Model:   model,
		Session: session,
		Store:   st,
		Voices:  voices,
		Logger:  newTestLogger(),
	}
	if cues != nil {
		args.Cues = cues
	}
	return NewUIController(args)
}
