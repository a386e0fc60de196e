// Package feedback turns timer effects into sound, vibration and speech.
package feedback

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/platform"
	"github.com/lowaak/treadmill-timer/internal/timer"
)

const (
	jobQueueSize      = 32
	drainPollInterval = 20 * time.Millisecond
)

// Dispatcher executes effects off the timer goroutine. A failing channel
// is logged and never affects the others.
type Dispatcher struct {
	logger    *log.Logger
	audio     platform.AudioPlayer
	vibrator  platform.Vibrator
	announcer *Announcer
	scheduler *scheduler

	jobs         chan func()
	queued       atomic.Int64 // jobs accepted but not finished
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

type DispatcherArgs struct {
	Logger    *log.Logger
	Caps      platform.Capabilities
	Announcer *Announcer
	// AfterFunc defaults to time.AfterFunc
	AfterFunc AfterFunc
}

func NewDispatcher(args DispatcherArgs) *Dispatcher {
	if args.Logger == nil {
		panic("Dispatcher: logger cannot be nil")
	}
	if args.Announcer == nil {
		args.Announcer = NewAnnouncer(args.Logger, args.Caps.Speech)
	}

	d := &Dispatcher{
		logger:    args.Logger,
		audio:     args.Caps.Audio,
		vibrator:  args.Caps.Vibrator,
		announcer: args.Announcer,
		scheduler: newScheduler(args.AfterFunc),
		jobs:      make(chan func(), jobQueueSize),
		doneChan:  make(chan struct{}),
	}

	d.wg.Add(1)
	go_func_utils.SafeGo(d.logger, func() { d.runJobs() })

	return d
}

func (d *Dispatcher) Announcer() *Announcer {
	return d.announcer
}

// Handle queues the feedback for ev and returns immediately.
// It is meant to be registered with Session.ListenToEffects.
func (d *Dispatcher) Handle(ev timer.Event) {
	effect, settings := ev.Effect, ev.Settings
	lang := settings.VoiceLanguage

	switch effect.Kind {
	case timer.EffectWorkoutStarted:
		d.enqueue(func() { d.announcer.Speak(announce.WorkoutStart(effect.Interval, lang), settings) })

	case timer.EffectPaused:
		d.enqueue(func() { d.announcer.Speak(announce.Pause(lang), settings) })

	case timer.EffectResumed:
		d.enqueue(func() { d.announcer.Speak(announce.Resume(lang), settings) })

	case timer.EffectTimeRemaining:
		if text, ok := announce.TimeRemaining(effect.Seconds, lang); ok {
			d.enqueue(func() { d.announcer.Speak(text, settings) })
		}

	case timer.EffectCountdown:
		if effect.Beep {
			d.playCue(CountdownCue, settings)
		}
		if text, ok := announce.Countdown(effect.Seconds, lang); ok {
			d.enqueue(func() { d.announcer.Speak(text, settings) })
		}

	case timer.EffectIntervalChanged:
		d.playCue(IntervalChangeCue, settings)
		d.vibrate(IntervalChangeVibration, settings)
		if !effect.Manual {
			text := announce.IntervalChange(effect.Interval, lang)
			d.scheduler.after(IntervalAnnouncementDelay, func() {
				d.enqueue(func() { d.announcer.Speak(text, settings) })
			})
		}

	case timer.EffectWorkoutCompleted:
		d.playCue(CompletionCue, settings)
		d.vibrate(CompletionVibration, settings)
		if !effect.Manual {
			d.enqueue(func() { d.announcer.Speak(announce.Complete(lang), settings) })
		}

	case timer.EffectWorkoutStopped:
		d.scheduler.cancelAll()
		d.enqueue(d.announcer.Cancel)
	}
}

// Preview plays a cue regardless of the sound setting, for the settings screen
func (d *Dispatcher) Preview(cue []Tone) {
	settings := config.DefaultSettings()
	settings.SoundEnabled = true
	d.playCue(cue, settings)
}

// Drain waits until every scheduled tone, queued job and utterance has
// finished, or ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for !d.idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (d *Dispatcher) idle() bool {
	return d.scheduler.idle() && d.queued.Load() == 0 && !d.announcer.Speaking()
}

// Shutdown drops pending cues and waits for the worker to exit.
// Safe to call multiple times - only the first call has effect
func (d *Dispatcher) Shutdown() {
	d.shutdownOnce.Do(func() {
		d.scheduler.close()
		close(d.doneChan)
		d.wg.Wait()
		d.announcer.Cancel()
	})
}

func (d *Dispatcher) playCue(cue []Tone, settings config.Settings) {
	if d.audio == nil || !settings.SoundEnabled {
		return
	}
	for _, t := range cue {
		t := t
		play := func() {
			go_func_utils.SafeCall(d.logger, "Dispatcher: tone", func() error {
				return d.audio.PlayTone(t.FreqHz, t.Duration, t.Volume)
			})
		}
		if t.Offset <= 0 {
			d.enqueue(play)
			continue
		}
		d.scheduler.after(t.Offset, func() { d.enqueue(play) })
	}
}

func (d *Dispatcher) vibrate(pattern []time.Duration, settings config.Settings) {
	if d.vibrator == nil || !settings.VibrationEnabled {
		return
	}
	d.enqueue(func() {
		go_func_utils.SafeCall(d.logger, "Dispatcher: vibrate", func() error {
			return d.vibrator.Vibrate(pattern)
		})
	})
}

func (d *Dispatcher) enqueue(job func()) {
	select {
	case <-d.doneChan:
		return
	default:
	}
	d.queued.Add(1)
	select {
	case d.jobs <- job:
	default:
		d.queued.Add(-1)
		d.logger.Printf("Dispatcher: Queue full, dropping feedback")
	}
}

func (d *Dispatcher) runJobs() {
	defer d.wg.Done()
	for {
		select {
		case <-d.doneChan:
			return
		case job := <-d.jobs:
			job()
			d.queued.Add(-1)
		}
	}
}
