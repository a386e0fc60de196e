// Package platform abstracts the device services the workout feedback needs.
// A nil capability in Capabilities means the host does not offer it.
package platform

import "time"

// AudioPlayer plays a short sine tone. PlayTone returns once playback is
// scheduled, not when it ends.
type AudioPlayer interface {
	PlayTone(freqHz float64, d time.Duration, volume float64) error
}

// Vibrator runs an on/off pattern, starting with an "on" segment
type Vibrator interface {
	Vibrate(pattern []time.Duration) error
}

// Voice is one speech voice offered by the host
type Voice struct {
	// ID is what the synthesizer needs to select the voice
	ID string
	// Name is the human readable name
	Name string
	// Lang is a BCP 47 tag such as fr-FR
	Lang string
}

type Utterance struct {
	Text   string
	Lang   string
	Voice  *Voice
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer speaks text. Speak does not wait for the utterance to finish.
type Synthesizer interface {
	Voices() ([]Voice, error)
	Speak(u Utterance) error
	Cancel() error
}

// SpeakingReporter is implemented by synthesizers that can tell when an
// utterance has finished
type SpeakingReporter interface {
	Speaking() bool
}

// KeepAlive holds an inaudible audio stream open so the host keeps scheduling the app
type KeepAlive interface {
	Start() error
	Stop() error
}

// WakeLock keeps the display or system from sleeping
type WakeLock interface {
	Acquire() error
	Release() error
}

type Capabilities struct {
	Audio     AudioPlayer
	Vibrator  Vibrator
	Speech    Synthesizer
	KeepAlive KeepAlive
	WakeLock  WakeLock
}

// Noop implements every capability and does nothing
type Noop struct{}

func (Noop) PlayTone(float64, time.Duration, float64) error { return nil }
func (Noop) Vibrate([]time.Duration) error                 { return nil }
func (Noop) Voices() ([]Voice, error)                      { return nil, nil }
func (Noop) Speak(Utterance) error                         { return nil }
func (Noop) Cancel() error                                 { return nil }
func (Noop) Start() error                                  { return nil }
func (Noop) Stop() error                                   { return nil }
func (Noop) Acquire() error                                { return nil }
func (Noop) Release() error                                { return nil }

// NoopCapabilities is a host where every service silently succeeds
func NoopCapabilities() Capabilities {
	n := Noop{}
	return Capabilities{Audio: n, Vibrator: n, Speech: n, KeepAlive: n, WakeLock: n}
}
