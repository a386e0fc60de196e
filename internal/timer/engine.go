package timer

import (
	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

// MinRecordedSeconds is the elapsed time a stopped run must exceed to be kept in history
const MinRecordedSeconds = 60

// Countdown window: the block runs while 1 < prev <= countdownStart,
// and beeps while prev <= countdownBeepFrom.
const (
	countdownStart    = 6
	countdownBeepFrom = 5
)

// Engine is the workout countdown state machine. It performs no I/O: every
// operation returns the effects it produced for the caller to dispatch.
// It is not safe for concurrent use; a Session owns it on a single goroutine.
type Engine struct {
	phase              Phase
	program            workout.Program
	intervalIndex      int
	repeat             int
	timeRemaining      int
	totalTimeRemaining int

	// lastCountdown is the last countdown value handled, 0 when none
	lastCountdown int
	// justStarted suppresses the time-remaining reminder on the first tick of an interval
	justStarted bool
}

func NewEngine() *Engine {
	e := &Engine{}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.phase = PhaseIdle
	e.program = workout.Program{}
	e.intervalIndex = 0
	e.repeat = 1
	e.timeRemaining = 0
	e.totalTimeRemaining = 0
	e.lastCountdown = 0
	e.justStarted = false
}

func (e *Engine) Phase() Phase {
	return e.phase
}

// Start begins program from its first interval, replacing any run in progress.
// A program without intervals is ignored.
func (e *Engine) Start(program workout.Program) []Effect {
	if !program.Runnable() {
		return nil
	}
	e.reset()
	e.program = program.Clone()
	if e.program.RepeatCount < 1 {
		e.program.RepeatCount = 1
	}
	e.phase = PhaseRunning
	e.timeRemaining = e.program.Intervals[0].Duration
	e.totalTimeRemaining = e.program.TotalDuration()
	e.justStarted = true

	return []Effect{{
		Kind:          EffectWorkoutStarted,
		Interval:      e.program.Intervals[0],
		IntervalIndex: 0,
		Repeat:        1,
	}}
}

// TogglePause switches between Running and Paused
func (e *Engine) TogglePause() []Effect {
	switch e.phase {
	case PhaseRunning:
		e.phase = PhasePaused
		return []Effect{{Kind: EffectPaused}}
	case PhasePaused:
		e.phase = PhaseRunning
		return []Effect{{Kind: EffectResumed}}
	default:
		return nil
	}
}

// Stop ends the run and returns to Idle. A Running or Paused run that has
// gone on for more than MinRecordedSeconds yields a record when save is set.
// A completed run already produced its record, so stopping it only resets.
func (e *Engine) Stop(save bool, settings config.Settings) []Effect {
	if e.phase == PhaseIdle {
		return nil
	}

	effect := Effect{Kind: EffectWorkoutStopped}
	if save && (e.phase == PhaseRunning || e.phase == PhasePaused) {
		if elapsed := e.ElapsedTime(); elapsed > MinRecordedSeconds {
			rec := e.partialRecord(elapsed, false, settings)
			effect.Record = &rec
		}
	}

	e.reset()
	return []Effect{effect}
}

// Skip jumps to the next interval, or completes the workout from the last one
func (e *Engine) Skip(settings config.Settings) []Effect {
	if e.phase != PhaseRunning {
		return nil
	}
	if effect, ok := e.advance(true); ok {
		return []Effect{effect}
	}

	e.phase = PhaseComplete
	effect := Effect{Kind: EffectWorkoutCompleted, Manual: true}
	if elapsed := e.ElapsedTime(); elapsed > MinRecordedSeconds {
		rec := e.partialRecord(elapsed, true, settings)
		effect.Record = &rec
	}
	e.timeRemaining = 0
	return []Effect{effect}
}

// Previous moves back one interval, crossing into the prior repeat from index 0.
// On the very first interval it does nothing.
func (e *Engine) Previous() []Effect {
	if e.phase != PhaseRunning {
		return nil
	}
	switch {
	case e.intervalIndex > 0:
		e.intervalIndex--
	case e.repeat > 1:
		e.repeat--
		e.intervalIndex = len(e.program.Intervals) - 1
	default:
		return nil
	}
	current := e.program.Intervals[e.intervalIndex]
	e.timeRemaining = current.Duration
	e.lastCountdown = 0
	e.justStarted = true
	return []Effect{{
		Kind:          EffectIntervalRewound,
		Interval:      current,
		IntervalIndex: e.intervalIndex,
		Repeat:        e.repeat,
		Manual:        true,
	}}
}

// Tick advances the clock by one second
func (e *Engine) Tick(settings config.Settings) []Effect {
	if e.phase != PhaseRunning {
		return nil
	}

	var effects []Effect
	prev := e.timeRemaining

	if announce.IsTimeRemainingThreshold(prev) && !e.justStarted && settings.VoiceAnnounceTime {
		effects = append(effects, Effect{Kind: EffectTimeRemaining, Seconds: prev})
	}
	e.justStarted = false

	if prev > 1 && prev <= countdownStart && e.lastCountdown != prev {
		e.lastCountdown = prev
		effects = append(effects, Effect{
			Kind:    EffectCountdown,
			Seconds: prev - 1,
			Beep:    prev <= countdownBeepFrom,
		})
	}

	if prev <= 1 {
		if effect, ok := e.advance(false); ok {
			effects = append(effects, effect)
		} else {
			e.phase = PhaseComplete
			e.timeRemaining = 0
			rec := e.completedRecord(settings)
			effects = append(effects, Effect{Kind: EffectWorkoutCompleted, Record: &rec})
		}
	} else {
		e.timeRemaining = prev - 1
	}

	if e.totalTimeRemaining > 0 {
		e.totalTimeRemaining--
	}
	return effects
}

// advance moves to the next interval or the next repeat. It reports false when
// the last interval of the last repeat is already in progress.
func (e *Engine) advance(manual bool) (Effect, bool) {
	switch {
	case e.intervalIndex < len(e.program.Intervals)-1:
		e.intervalIndex++
	case e.repeat < e.program.RepeatCount:
		e.repeat++
		e.intervalIndex = 0
	default:
		return Effect{}, false
	}

	next := e.program.Intervals[e.intervalIndex]
	e.timeRemaining = next.Duration
	e.lastCountdown = 0
	e.justStarted = true
	return Effect{
		Kind:          EffectIntervalChanged,
		Interval:      next,
		IntervalIndex: e.intervalIndex,
		Repeat:        e.repeat,
		Manual:        manual,
	}, true
}

func (e *Engine) completedRecord(settings config.Settings) workout.Record {
	return workout.Record{
		ProgramID:   e.program.ID,
		ProgramName: e.program.Name,
		Duration:    e.program.TotalDuration(),
		Calories:    workout.ProgramCalories(e.program, settings.UserWeight, settings.UserSex),
		Completed:   true,
	}
}

func (e *Engine) partialRecord(elapsed int, completed bool, settings config.Settings) workout.Record {
	return workout.Record{
		ProgramID:   e.program.ID,
		ProgramName: e.program.Name,
		Duration:    elapsed,
		Calories:    workout.CalculateCalories(e.completedIntervals(), settings.UserWeight, settings.UserSex),
		Completed:   completed,
	}
}

// completedIntervals lists what was actually run: every earlier repeat, the
// intervals before the current one, and the consumed part of the current one.
func (e *Engine) completedIntervals() []workout.Interval {
	intervals := e.program.Intervals
	done := make([]workout.Interval, 0, len(intervals)*e.repeat)
	for r := 1; r < e.repeat; r++ {
		done = append(done, intervals...)
	}
	done = append(done, intervals[:e.intervalIndex]...)

	current := intervals[e.intervalIndex]
	if e.timeRemaining < current.Duration {
		current.Duration -= e.timeRemaining
		done = append(done, current)
	}
	return done
}

// CurrentInterval returns the interval in progress, if any
func (e *Engine) CurrentInterval() (workout.Interval, bool) {
	if e.phase == PhaseIdle {
		return workout.Interval{}, false
	}
	return e.program.Intervals[e.intervalIndex], true
}

// TotalPlannedTime is the full length of the loaded program, repeats included
func (e *Engine) TotalPlannedTime() int {
	if e.phase == PhaseIdle {
		return 0
	}
	return e.program.TotalDuration()
}

// ElapsedTime is the number of seconds of the program actually run
func (e *Engine) ElapsedTime() int {
	if e.phase == PhaseIdle {
		return 0
	}
	intervals := e.program.Intervals
	elapsed := (e.repeat - 1) * e.program.SequenceDuration()
	for _, in := range intervals[:e.intervalIndex] {
		elapsed += in.Duration
	}
	elapsed += intervals[e.intervalIndex].Duration - e.timeRemaining
	return elapsed
}

// Snapshot returns the read-only view of the current state
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:              e.phase,
		IntervalIndex:      e.intervalIndex,
		Repeat:             e.repeat,
		TimeRemaining:      e.timeRemaining,
		TotalTimeRemaining: e.totalTimeRemaining,
	}
	if e.phase == PhaseIdle {
		return snap
	}
	snap.Program = e.program
	snap.TotalPlanned = e.TotalPlannedTime()
	snap.Elapsed = e.ElapsedTime()
	return snap
}
