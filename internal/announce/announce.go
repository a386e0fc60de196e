package announce

import (
	"fmt"

	"github.com/lowaak/treadmill-timer/internal/workout"
)

// Language selects one of the two announcement phrase tables
type Language string

const (
	French  Language = "fr"
	English Language = "en"
)

type messages struct {
	changeIn         string
	speed            string
	incline          string
	percent          string
	start            string
	pause            string
	resume           string
	complete         string
	minuteRemaining  string
	minutesRemaining string
	secondsRemaining string
}

var frenchMessages = messages{
	changeIn:         "Changement dans",
	speed:            "Vitesse",
	incline:          "Inclinaison",
	percent:          "pourcent",
	start:            "C'est parti!",
	pause:            "Pause",
	resume:           "On reprend!",
	complete:         "Bravo! Entraînement terminé!",
	minuteRemaining:  "1 minute restante",
	minutesRemaining: "%d minutes restantes",
	secondsRemaining: "%d secondes restantes",
}

var englishMessages = messages{
	changeIn:         "Change in",
	speed:            "Speed",
	incline:          "Incline",
	percent:          "percent",
	start:            "Let's go!",
	pause:            "Paused",
	resume:           "Let's continue!",
	complete:         "Great job! Workout complete!",
	minuteRemaining:  "1 minute remaining",
	minutesRemaining: "%d minutes remaining",
	secondsRemaining: "%d seconds remaining",
}

func table(lang Language) messages {
	if lang == French {
		return frenchMessages
	}
	return englishMessages
}

// Valid reports whether lang is one of the supported languages
func (lang Language) Valid() bool {
	return lang == French || lang == English
}

// LocaleTag is the BCP 47 tag handed to speech engines
func (lang Language) LocaleTag() string {
	if lang == French {
		return "fr-FR"
	}
	return "en-US"
}

// TimeRemainingThresholds are the seconds-left values that get a spoken reminder
var TimeRemainingThresholds = []int{300, 240, 180, 120, 60, 30}

// IsTimeRemainingThreshold reports whether seconds is one of TimeRemainingThresholds
func IsTimeRemainingThreshold(seconds int) bool {
	for _, t := range TimeRemainingThresholds {
		if t == seconds {
			return true
		}
	}
	return false
}

// TimeRemaining returns the reminder for a threshold, or false for any other value
func TimeRemaining(seconds int, lang Language) (string, bool) {
	if !IsTimeRemainingThreshold(seconds) {
		return "", false
	}
	m := table(lang)
	switch {
	case seconds < 60:
		return fmt.Sprintf(m.secondsRemaining, seconds), true
	case seconds == 60:
		return m.minuteRemaining, true
	default:
		return fmt.Sprintf(m.minutesRemaining, seconds/60), true
	}
}

// Countdown returns the phrase for the final seconds of an interval.
// 5 is announced as "change in 5", 1 to 4 as the bare number.
func Countdown(n int, lang Language) (string, bool) {
	switch {
	case n == 5:
		return table(lang).changeIn + " 5", true
	case n >= 1 && n <= 4:
		return fmt.Sprintf("%d", n), true
	default:
		return "", false
	}
}

func describeInterval(in workout.Interval, m messages) string {
	return fmt.Sprintf("%s. %s %s. %s %s %s.",
		in.Name,
		m.speed, workout.FormatSpeed(in.Speed),
		m.incline, workout.FormatSpeed(in.Incline), m.percent)
}

// IntervalChange describes the interval that is starting
func IntervalChange(in workout.Interval, lang Language) string {
	return describeInterval(in, table(lang))
}

// WorkoutStart greets the user and describes the first interval
func WorkoutStart(first workout.Interval, lang Language) string {
	m := table(lang)
	return m.start + " " + describeInterval(first, m)
}

func Pause(lang Language) string {
	return table(lang).pause
}

func Resume(lang Language) string {
	return table(lang).resume
}

func Complete(lang Language) string {
	return table(lang).complete
}
