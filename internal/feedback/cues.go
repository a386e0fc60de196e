package feedback

import "time"

// Tone is one beep of a cue, started Offset after the cue begins
type Tone struct {
	FreqHz   float64
	Duration time.Duration
	Volume   float64
	Offset   time.Duration
}

const defaultToneVolume = 0.5

func tone(freq float64, ms int, offsetMs int) Tone {
	return Tone{
		FreqHz:   freq,
		Duration: time.Duration(ms) * time.Millisecond,
		Volume:   defaultToneVolume,
		Offset:   time.Duration(offsetMs) * time.Millisecond,
	}
}

// IntervalChangeCue is a rising three-note cue
var IntervalChangeCue = []Tone{
	tone(600, 150, 0),
	tone(800, 150, 200),
	tone(1000, 200, 400),
}

var CompletionCue = []Tone{
	tone(800, 200, 0),
	tone(1000, 200, 250),
	tone(1200, 300, 500),
	tone(1000, 200, 850),
	tone(1200, 400, 1100),
}

// CountdownCue is the quieter tick played during the last seconds of an interval
var CountdownCue = []Tone{
	{FreqHz: 600, Duration: 100 * time.Millisecond, Volume: 0.3},
}

func pattern(ms ...int) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

// Vibration patterns alternate on and off segments
var (
	IntervalChangeVibration = pattern(100, 50, 100, 50, 200)
	CompletionVibration     = pattern(200, 100, 200, 100, 400)
)

// IntervalAnnouncementDelay lets the interval cue start before the voice
const IntervalAnnouncementDelay = 300 * time.Millisecond
