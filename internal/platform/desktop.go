package platform

import "log"

type DesktopOptions struct {
	// SpeechCommand forces a speech tool; empty picks the first one installed
	SpeechCommand string
	// Beeper is the fallback for tones when sox is missing
	Beeper Beeper
}

// NewDesktop probes the host for the tools behind each capability.
// Desktops have no vibration motor, so Vibrator is always nil.
func NewDesktop(logger *log.Logger, opts DesktopOptions) Capabilities {
	if logger == nil {
		panic("NewDesktop: logger cannot be nil")
	}
	var caps Capabilities

	if play := findTool("play"); play != "" {
		caps.Audio = NewSoxTonePlayer(logger, play)
		caps.KeepAlive = NewSoxKeepAlive(logger, play)
	} else if opts.Beeper != nil {
		caps.Audio = NewBellTonePlayer(opts.Beeper)
	}

	if speech := findTool(opts.SpeechCommand, "espeak-ng", "espeak", "say"); speech != "" {
		caps.Speech = NewCommandSynthesizer(logger, speech)
	} else if opts.SpeechCommand != "" {
		logger.Printf("Platform: Speech command %q not found", opts.SpeechCommand)
	}

	caps.WakeLock = newHostWakeLock(logger)

	logger.Printf("Platform: audio=%t speech=%t keepalive=%t wakelock=%t",
		caps.Audio != nil, caps.Speech != nil, caps.KeepAlive != nil, caps.WakeLock != nil)
	return caps
}
