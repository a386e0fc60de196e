package timer

import (
	"fmt"

	"github.com/lowaak/treadmill-timer/internal/workout"
)

// EffectKind names a side effect produced by a state transition
type EffectKind int

const (
	EffectWorkoutStarted EffectKind = iota
	EffectPaused
	EffectResumed
	EffectTimeRemaining
	EffectCountdown
	EffectIntervalChanged
	EffectWorkoutCompleted
	EffectWorkoutStopped
	// EffectIntervalRewound reports a move back to an earlier interval. It
	// carries no cue or announcement.
	EffectIntervalRewound
)

func (k EffectKind) String() string {
	switch k {
	case EffectWorkoutStarted:
		return "WorkoutStarted"
	case EffectPaused:
		return "Paused"
	case EffectResumed:
		return "Resumed"
	case EffectTimeRemaining:
		return "TimeRemaining"
	case EffectCountdown:
		return "Countdown"
	case EffectIntervalChanged:
		return "IntervalChanged"
	case EffectWorkoutCompleted:
		return "WorkoutCompleted"
	case EffectWorkoutStopped:
		return "WorkoutStopped"
	case EffectIntervalRewound:
		return "IntervalRewound"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is one notification emitted by the engine. Only the fields relevant
// to Kind are set.
type Effect struct {
	Kind EffectKind

	// Interval is the interval now in progress (WorkoutStarted, IntervalChanged)
	Interval      workout.Interval
	IntervalIndex int
	Repeat        int

	// Seconds is the threshold for TimeRemaining and the number to speak for Countdown
	Seconds int
	// Beep requests the countdown tick tone
	Beep bool
	// Manual marks a change caused by skip or previous rather than the clock
	Manual bool

	// Record is set on WorkoutCompleted, and on WorkoutStopped when the run qualified for history
	Record *workout.Record
}
