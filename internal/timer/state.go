package timer

import (
	"fmt"

	"github.com/lowaak/treadmill-timer/internal/workout"
)

// Phase is the lifecycle state of a run
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	case PhasePaused:
		return "Paused"
	case PhaseComplete:
		return "Complete"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Active reports whether a program is loaded, finished or not
func (p Phase) Active() bool {
	return p != PhaseIdle
}

// Snapshot is a read-only copy of the engine state for display.
// Program is the zero value while Idle.
type Snapshot struct {
	Phase              Phase
	Program            workout.Program
	IntervalIndex      int
	Repeat             int
	TimeRemaining      int
	TotalTimeRemaining int
	TotalPlanned       int
	Elapsed            int
}

// CurrentInterval returns the interval in progress
func (s Snapshot) CurrentInterval() (workout.Interval, bool) {
	if !s.Phase.Active() || s.IntervalIndex >= len(s.Program.Intervals) {
		return workout.Interval{}, false
	}
	return s.Program.Intervals[s.IntervalIndex], true
}

// NextInterval returns the interval that follows the current one, wrapping
// into the next repeat when there is one.
func (s Snapshot) NextInterval() (workout.Interval, bool) {
	if s.Phase != PhaseRunning && s.Phase != PhasePaused {
		return workout.Interval{}, false
	}
	n := len(s.Program.Intervals)
	switch {
	case s.IntervalIndex+1 < n:
		return s.Program.Intervals[s.IntervalIndex+1], true
	case s.Repeat < s.Program.RepeatCount && n > 0:
		return s.Program.Intervals[0], true
	default:
		return workout.Interval{}, false
	}
}

// IntervalProgress is the consumed share of the current interval, 0 to 100
func (s Snapshot) IntervalProgress() float64 {
	in, ok := s.CurrentInterval()
	if !ok || in.Duration <= 0 {
		return 0
	}
	return float64(in.Duration-s.TimeRemaining) / float64(in.Duration) * 100
}

// TotalProgress is the consumed share of the whole run, 0 to 100
func (s Snapshot) TotalProgress() float64 {
	if !s.Phase.Active() || s.TotalPlanned <= 0 {
		return 0
	}
	return float64(s.TotalPlanned-s.TotalTimeRemaining) / float64(s.TotalPlanned) * 100
}
