package platform

import (
	"log"
	"strconv"
	"time"
)

// Beeper is the terminal bell; tcell.Screen satisfies it
type Beeper interface {
	Beep() error
}

// SoxTonePlayer synthesizes tones with sox's play command
type SoxTonePlayer struct {
	logger  *log.Logger
	command string
}

func NewSoxTonePlayer(logger *log.Logger, command string) *SoxTonePlayer {
	return &SoxTonePlayer{logger: logger, command: command}
}

func (p *SoxTonePlayer) PlayTone(freqHz float64, d time.Duration, volume float64) error {
	return spawn(p.logger, p.command, toneArgs(freqHz, d, volume)...)
}

func toneArgs(freqHz float64, d time.Duration, volume float64) []string {
	return []string{
		"-q", "-n", "synth",
		strconv.FormatFloat(d.Seconds(), 'f', 3, 64),
		"sine", strconv.FormatFloat(freqHz, 'f', -1, 64),
		"vol", strconv.FormatFloat(volume, 'f', -1, 64),
	}
}

// BellTonePlayer rings the terminal bell for every tone
type BellTonePlayer struct {
	beeper Beeper
}

func NewBellTonePlayer(beeper Beeper) *BellTonePlayer {
	return &BellTonePlayer{beeper: beeper}
}

func (p *BellTonePlayer) PlayTone(float64, time.Duration, float64) error {
	return p.beeper.Beep()
}

// Inaudible keep-alive stream
const (
	keepAliveFreqHz = 1
	keepAliveVolume = 0.001
	keepAliveLength = 24 * time.Hour
)

// SoxKeepAlive plays a 1 Hz tone at near-zero volume until stopped
type SoxKeepAlive struct {
	command string
	proc    *process
}

func NewSoxKeepAlive(logger *log.Logger, command string) *SoxKeepAlive {
	return &SoxKeepAlive{command: command, proc: newProcess(logger, "KeepAlive")}
}

func (k *SoxKeepAlive) Start() error {
	if k.proc.running() {
		return nil
	}
	return k.proc.start(k.command, toneArgs(keepAliveFreqHz, keepAliveLength, keepAliveVolume)...)
}

func (k *SoxKeepAlive) Stop() error {
	return k.proc.stop()
}
