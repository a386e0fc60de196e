package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/treadmill-timer/internal/config"
)

const uiLogChanSize = 256

// uiLogWriter forwards each log line to the UI log pane. Lines are dropped
// while the pane is not keeping up so logging never blocks a caller.
type uiLogWriter struct {
	ch chan<- string
}

func newUILogWriter(ch chan<- string) *uiLogWriter {
	return &uiLogWriter{ch: ch}
}

func (w *uiLogWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

// newRotatingFile is the process log file, rotated by size and age
func newRotatingFile(cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// newLogger writes to the rotating file and to the UI pane, or to stderr
// when there is no UI.
func newLogger(file io.Writer, uiLogChan chan<- string) *log.Logger {
	var console io.Writer = os.Stderr
	if uiLogChan != nil {
		console = newUILogWriter(uiLogChan)
	}
	return log.New(io.MultiWriter(file, console), "", log.Ltime)
}
