package timer

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

type fakeTicker struct {
	mu      sync.Mutex
	c       chan time.Time
	running bool
	resets  int
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Reset(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.resets++
}

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *fakeTicker) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fakeHistory struct {
	mu      sync.Mutex
	records []workout.Record
	err     error
}

func (h *fakeHistory) AppendWorkoutRecord(ctx context.Context, rec workout.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, rec)
	return nil
}

func (h *fakeHistory) saved() []workout.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]workout.Record(nil), h.records...)
}

type fakeGuard struct {
	mu      sync.Mutex
	updates []bool
	closed  bool
}

func (g *fakeGuard) Update(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, active)
}

func (g *fakeGuard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *fakeGuard) last() (bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.updates) == 0 {
		return false, false
	}
	return g.updates[len(g.updates)-1], true
}

type sessionFixture struct {
	session *Session
	ticker  *fakeTicker
	history *fakeHistory
	guard   *fakeGuard

	mu     sync.Mutex
	events []Event
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		ticker:  newFakeTicker(),
		history: &fakeHistory{},
		guard:   &fakeGuard{},
	}
	f.session = NewSession(SessionArgs{
		Logger:   log.New(io.Discard, "", 0),
		History:  f.history,
		Guard:    f.guard,
		Ticker:   f.ticker,
		Settings: config.DefaultSettings(),
	})
	f.session.ListenToEffects(func(ev Event) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, ev)
	})
	return f
}

// fire delivers up to n ticks, one at a time, while the clock is running.
// The snapshot round trip waits for each tick to be applied.
func (f *sessionFixture) fire(n int) int {
	for i := 0; i < n; i++ {
		if !f.ticker.isRunning() {
			return i
		}
		f.ticker.c <- time.Now()
		f.session.Snapshot()
	}
	return n
}

func (f *sessionFixture) effectKinds() []EffectKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EffectKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Effect.Kind)
	}
	return out
}

func TestSession_RunToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	p := testProgram(2, 5, 4)
	f.session.Start(p)
	assert.True(t, f.ticker.isRunning())
	active, ok := f.guard.last()
	require.True(t, ok)
	assert.True(t, active)

	delivered := f.fire(100)
	assert.Equal(t, p.TotalDuration(), delivered, "the clock stops on completion")

	snap := f.session.Snapshot()
	assert.Equal(t, PhaseComplete, snap.Phase)
	assert.Zero(t, snap.TotalTimeRemaining)
	active, _ = f.guard.last()
	assert.False(t, active)

	f.session.Shutdown()

	records := f.history.saved()
	require.Len(t, records, 1)
	assert.Equal(t, 18, records[0].Duration)
	assert.True(t, records[0].Completed)
	assert.True(t, f.guard.closed)

	kinds := f.effectKinds()
	assert.Equal(t, EffectWorkoutStarted, kinds[0])
	assert.Equal(t, EffectWorkoutCompleted, kinds[len(kinds)-1])
}

func TestSession_PauseStopsTheClock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	defer f.session.Shutdown()

	f.session.Start(testProgram(1, 300))
	f.fire(10)
	f.session.TogglePause()

	assert.False(t, f.ticker.isRunning())
	assert.Zero(t, f.fire(5))
	snap := f.session.Snapshot()
	assert.Equal(t, PhasePaused, snap.Phase)
	assert.Equal(t, 290, snap.TimeRemaining)

	f.session.TogglePause()
	assert.True(t, f.ticker.isRunning())
	f.fire(1)
	assert.Equal(t, 289, f.session.Snapshot().TimeRemaining)
	assert.Equal(t, []EffectKind{EffectWorkoutStarted, EffectPaused, EffectResumed}, f.effectKinds())
}

func TestSession_StopSavesQualifyingRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	f.session.Start(testProgram(1, 300, 300))
	f.fire(370)
	f.session.Stop(true)
	f.session.Stop(true)

	assert.False(t, f.ticker.isRunning())
	assert.Equal(t, PhaseIdle, f.session.Snapshot().Phase)
	f.session.Shutdown()

	records := f.history.saved()
	require.Len(t, records, 1)
	assert.Equal(t, 370, records[0].Duration)
	assert.False(t, records[0].Completed)
}

func TestSession_HistoryFailureIsLogged(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	f.history.err = errors.New("disk full")
	f.session.Start(testProgram(1, 300))
	f.fire(100)
	f.session.Stop(true)

	assert.Equal(t, PhaseIdle, f.session.Snapshot().Phase)
	f.session.Shutdown()
	assert.Empty(t, f.history.saved())
}

func TestSession_SettingsAttachedToEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	defer f.session.Shutdown()

	settings := config.DefaultSettings()
	settings.VoiceEnabled = false
	f.session.UpdateSettings(settings)
	f.session.Start(testProgram(1, 60))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.events, 1)
	assert.False(t, f.events[0].Settings.VoiceEnabled)
	assert.Equal(t, PhaseRunning, f.events[0].Snapshot.Phase)
}

func TestSession_SnapshotListener(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	defer f.session.Shutdown()

	ch := make(chan Snapshot, 8)
	unlisten := f.session.ListenToSnapshots(ch)
	defer unlisten()

	initial := <-ch
	assert.Equal(t, PhaseIdle, initial.Phase)

	f.session.Start(testProgram(1, 60))
	select {
	case snap := <-ch:
		assert.Equal(t, PhaseRunning, snap.Phase)
		assert.Equal(t, 60, snap.TimeRemaining)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after start")
	}
}

func TestSession_CommandsAfterShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newSessionFixture(t)
	f.session.Shutdown()
	f.session.Shutdown()

	f.session.Start(testProgram(1, 60))
	f.session.Skip()
	assert.Equal(t, PhaseIdle, f.session.Snapshot().Phase)
}
