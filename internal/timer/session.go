package timer

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/events"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

const (
	DefaultTickInterval   = 1 * time.Second
	DefaultHistoryTimeout = 5 * time.Second
)

// HistoryWriter persists finished runs
type HistoryWriter interface {
	AppendWorkoutRecord(ctx context.Context, rec workout.Record) error
}

// LivenessGuard keeps the device awake while a run is active
type LivenessGuard interface {
	Update(active bool)
	Close()
}

// Event is an engine effect together with the settings that were current
// when it was produced.
type Event struct {
	Effect   Effect
	Settings config.Settings
	Snapshot Snapshot
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdTogglePause
	cmdStop
	cmdSkip
	cmdPrevious
	cmdSnapshot
)

type command struct {
	kind    commandKind
	program workout.Program
	save    bool
	reply   chan Snapshot
	done    chan struct{}
}

// SessionArgs configures a Session. Logger and History are required.
type SessionArgs struct {
	Logger         *log.Logger
	History        HistoryWriter
	Guard          LivenessGuard
	Ticker         Ticker
	TickInterval   time.Duration
	HistoryTimeout time.Duration
	Settings       config.Settings
}

// Session runs an Engine on its own goroutine. Commands and clock ticks are
// serialized through one loop, so a tick never interleaves with a transition.
type Session struct {
	logger         *log.Logger
	history        HistoryWriter
	guard          LivenessGuard
	ticker         Ticker
	tickInterval   time.Duration
	historyTimeout time.Duration

	// engine is owned by runLoop
	engine   *Engine
	settings atomic.Pointer[config.Settings]

	effectEvent   *events.CallbackEvent[Event]
	snapshotEvent *events.ChannelEvent[Snapshot]

	cmdChan      chan command
	doneChan     chan struct{}
	wg           sync.WaitGroup
	historyWg    sync.WaitGroup
	shutdownOnce sync.Once
}

func NewSession(args SessionArgs) *Session {
	if args.Logger == nil {
		panic("Session: logger cannot be nil")
	}
	if args.History == nil {
		panic("Session: history cannot be nil")
	}
	if args.TickInterval <= 0 {
		args.TickInterval = DefaultTickInterval
	}
	if args.HistoryTimeout <= 0 {
		args.HistoryTimeout = DefaultHistoryTimeout
	}
	if args.Ticker == nil {
		args.Ticker = NewClockTicker(args.TickInterval)
	}

	s := &Session{
		logger:         args.Logger,
		history:        args.History,
		guard:          args.Guard,
		ticker:         args.Ticker,
		tickInterval:   args.TickInterval,
		historyTimeout: args.HistoryTimeout,
		engine:         NewEngine(),
		effectEvent:    events.NewCallbackEvent[Event](false),
		snapshotEvent:  events.NewChannelEvent[Snapshot](true),
		cmdChan:        make(chan command),
		doneChan:       make(chan struct{}),
	}
	settings := args.Settings
	s.settings.Store(&settings)
	s.snapshotEvent.Notify(s.engine.Snapshot())

	s.wg.Add(1)
	go_func_utils.SafeGo(s.logger, func() { s.runLoop() })

	return s
}

// UpdateSettings replaces the settings used from the next transition on
func (s *Session) UpdateSettings(settings config.Settings) {
	s.settings.Store(&settings)
}

func (s *Session) Settings() config.Settings {
	return *s.settings.Load()
}

// ListenToEffects registers fn for every effect. fn runs on the session
// goroutine and must not block or call back into the Session.
func (s *Session) ListenToEffects(fn func(Event)) func() {
	return s.effectEvent.Listen(fn)
}

// ListenToSnapshots registers ch for state changes. The current state is sent immediately.
func (s *Session) ListenToSnapshots(ch chan<- Snapshot) func() {
	return s.snapshotEvent.Listen(ch)
}

// Start begins program from its first interval
func (s *Session) Start(program workout.Program) {
	if !program.Runnable() {
		s.logger.Printf("Session: Program '%s' has no intervals", program.Name)
		return
	}
	s.submit(command{kind: cmdStart, program: program.Clone()})
}

func (s *Session) TogglePause() {
	s.submit(command{kind: cmdTogglePause})
}

// Stop ends the run. With save set, a run longer than a minute is written to history.
func (s *Session) Stop(save bool) {
	s.submit(command{kind: cmdStop, save: save})
}

func (s *Session) Skip() {
	s.submit(command{kind: cmdSkip})
}

func (s *Session) Previous() {
	s.submit(command{kind: cmdPrevious})
}

// Snapshot returns the state after every command and tick received so far
func (s *Session) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if s.submit(command{kind: cmdSnapshot, reply: reply}) {
		return <-reply
	}
	snap, _ := s.snapshotEvent.Last()
	return snap
}

// Shutdown stops the loop and waits for pending history writes.
// Safe to call multiple times - only the first call has effect
func (s *Session) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Printf("Session: Shutting down")
		close(s.doneChan)
		s.wg.Wait()
		s.historyWg.Wait()
		if s.guard != nil {
			s.guard.Close()
		}
		s.logger.Printf("Session: Shutdown complete")
	})
}

// submit hands cmd to the loop and waits until it has been applied.
// It reports false once the session is shut down.
func (s *Session) submit(cmd command) bool {
	cmd.done = make(chan struct{})
	select {
	case s.cmdChan <- cmd:
	case <-s.doneChan:
		return false
	}
	<-cmd.done
	return true
}

// runLoop is the goroutine that owns the engine and the ticker
func (s *Session) runLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.doneChan:
			s.ticker.Stop()
			s.logger.Printf("Session: Goroutine exiting")
			return

		case cmd := <-s.cmdChan:
			s.handleCommand(cmd)
			close(cmd.done)

		case <-s.ticker.C():
			settings := s.Settings()
			effects := s.engine.Tick(settings)
			if s.engine.Phase() == PhaseComplete {
				s.ticker.Stop()
				s.logger.Printf("Session: Workout complete")
			}
			s.publish(effects, settings)
		}
	}
}

func (s *Session) handleCommand(cmd command) {
	settings := s.Settings()
	var effects []Effect

	switch cmd.kind {
	case cmdStart:
		s.ticker.Stop()
		effects = s.engine.Start(cmd.program)
		s.ticker.Reset(s.tickInterval)
		s.logger.Printf("Session: Started '%s' (%d intervals x %d, %s)", cmd.program.Name,
			len(cmd.program.Intervals), cmd.program.RepeatCount, workout.FormatTime(cmd.program.TotalDuration()))

	case cmdTogglePause:
		switch s.engine.Phase() {
		case PhaseRunning:
			s.ticker.Stop()
			effects = s.engine.TogglePause()
			s.logger.Printf("Session: Paused")
		case PhasePaused:
			effects = s.engine.TogglePause()
			s.ticker.Reset(s.tickInterval)
			s.logger.Printf("Session: Resumed")
		default:
			s.logger.Printf("Session: Cannot toggle pause in phase %s", s.engine.Phase())
			return
		}

	case cmdStop:
		if s.engine.Phase() == PhaseIdle {
			s.logger.Printf("Session: No workout to stop")
			return
		}
		s.ticker.Stop()
		effects = s.engine.Stop(cmd.save, settings)
		s.logger.Printf("Session: Stopped (save=%t)", cmd.save)

	case cmdSkip:
		effects = s.engine.Skip(settings)
		if s.engine.Phase() == PhaseComplete {
			s.ticker.Stop()
			s.logger.Printf("Session: Skipped past the last interval")
		}

	case cmdPrevious:
		effects = s.engine.Previous()

	case cmdSnapshot:
		cmd.reply <- s.engine.Snapshot()
		return
	}

	s.publish(effects, settings)
}

// publish fans effects out to listeners, hands records to history and
// reports the new state. Runs on the loop goroutine.
func (s *Session) publish(effects []Effect, settings config.Settings) {
	snap := s.engine.Snapshot()
	if s.guard != nil {
		s.guard.Update(snap.Phase == PhaseRunning)
	}

	for _, effect := range effects {
		if effect.Record != nil {
			s.saveRecord(*effect.Record)
		}
		s.effectEvent.Notify(Event{Effect: effect, Settings: settings, Snapshot: snap})
	}
	s.snapshotEvent.Notify(snap)
}

func (s *Session) saveRecord(rec workout.Record) {
	s.historyWg.Add(1)
	go_func_utils.SafeGo(s.logger, func() {
		defer s.historyWg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.historyTimeout)
		defer cancel()
		if err := s.history.AppendWorkoutRecord(ctx, rec); err != nil {
			s.logger.Printf("Session: Failed to save workout record: %v", err)
			return
		}
		s.logger.Printf("Session: Saved '%s' (%s, %d kcal, completed=%t)",
			rec.ProgramName, workout.FormatTime(rec.Duration), rec.Calories, rec.Completed)
	})
}
