package workout

import (
	"errors"
	"fmt"
	"math"
)

// Product limits for programs and intervals
const (
	MaxIntervals        = 10
	MinRepeatCount      = 1
	MaxRepeatCount      = 10
	MinIntervalDuration = 30
	MaxIntervalDuration = 7200
	MinIncline          = 0.0
	MaxIncline          = 15.0
	MinSpeed            = 0.5
	MaxSpeed            = 20.0
	SettingStep         = 0.5
)

var (
	ErrTooManyIntervals  = errors.New("too many intervals")
	ErrRepeatCount       = errors.New("repeat count out of range")
	ErrIntervalDuration  = errors.New("interval duration out of range")
	ErrIncline           = errors.New("incline out of range")
	ErrSpeed             = errors.New("speed out of range")
	ErrMissingIdentifier = errors.New("missing identifier")
)

// Interval is a single named phase of a workout.
// Duration is in whole seconds, Incline in percent, Speed in the user's unit.
type Interval struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Duration int     `json:"duration" yaml:"duration"`
	Incline  float64 `json:"incline" yaml:"incline"`
	Speed    float64 `json:"speed" yaml:"speed"`
}

// Program is an ordered list of intervals run RepeatCount times
type Program struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Position    int        `json:"position" yaml:"position"`
	RepeatCount int        `json:"repeatCount" yaml:"repeat_count"`
	Intervals   []Interval `json:"intervals" yaml:"intervals"`
}

// Record summarizes a finished or stopped run. Duration is elapsed seconds.
type Record struct {
	ProgramID   string `json:"programId"`
	ProgramName string `json:"programName"`
	Duration    int    `json:"duration"`
	Calories    int    `json:"calories"`
	Completed   bool   `json:"completed"`
}

// Runnable reports whether the program has at least one interval
func (p Program) Runnable() bool {
	return len(p.Intervals) > 0
}

// SequenceDuration is the length of one pass through the intervals, in seconds
func (p Program) SequenceDuration() int {
	total := 0
	for _, in := range p.Intervals {
		total += in.Duration
	}
	return total
}

// TotalDuration is the planned length of the whole run, in seconds
func (p Program) TotalDuration() int {
	return p.SequenceDuration() * p.RepeatCount
}

// Clone returns a deep copy so a running engine never shares the interval slice with an editor
func (p Program) Clone() Program {
	c := p
	c.Intervals = make([]Interval, len(p.Intervals))
	copy(c.Intervals, p.Intervals)
	return c
}

// Validate checks the program against the product limits
func (p Program) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("program: %w", ErrMissingIdentifier)
	}
	if len(p.Intervals) > MaxIntervals {
		return fmt.Errorf("program %s has %d intervals: %w", p.ID, len(p.Intervals), ErrTooManyIntervals)
	}
	if p.RepeatCount < MinRepeatCount || p.RepeatCount > MaxRepeatCount {
		return fmt.Errorf("program %s repeat count %d: %w", p.ID, p.RepeatCount, ErrRepeatCount)
	}
	for i, in := range p.Intervals {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("program %s interval %d: %w", p.ID, i, err)
		}
	}
	return nil
}

// Validate checks the interval against the product limits
func (in Interval) Validate() error {
	if in.Duration < MinIntervalDuration || in.Duration > MaxIntervalDuration {
		return fmt.Errorf("duration %d: %w", in.Duration, ErrIntervalDuration)
	}
	if in.Incline < MinIncline || in.Incline > MaxIncline || !onStep(in.Incline) {
		return fmt.Errorf("incline %.2f: %w", in.Incline, ErrIncline)
	}
	if in.Speed < MinSpeed || in.Speed > MaxSpeed || !onStep(in.Speed) {
		return fmt.Errorf("speed %.2f: %w", in.Speed, ErrSpeed)
	}
	return nil
}

func onStep(v float64) bool {
	steps := v / SettingStep
	return steps == math.Trunc(steps)
}
