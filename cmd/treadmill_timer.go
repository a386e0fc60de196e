package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/feedback"
	"github.com/lowaak/treadmill-timer/internal/liveness"
	"github.com/lowaak/treadmill-timer/internal/platform"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
	"github.com/lowaak/treadmill-timer/internal/ui"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

const (
	startupTimeout       = 10 * time.Second
	// feedbackDrainTimeout bounds how long a headless run waits for its last cues
	feedbackDrainTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "treadmill-timer: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "treadmill-timer: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logFile := newRotatingFile(cfg.Log)
	defer logFile.Close() //nolint:errcheck

	var uiLogChan chan string
	if !cfg.Headless {
		uiLogChan = make(chan string, uiLogChanSize)
	}
	logger := newLogger(logFile, uiLogChan)
	logger.Printf("Main: Starting (data dir %s)", cfg.DataDir)

	db, err := openStore(logger, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	settings, err := db.LoadSettings(ctx)
	cancel()
	if err != nil {
		logger.Printf("Main: Using default settings: %v", err)
	}

	// The terminal bell backs the tone cues when sox is missing
	var screen tcell.Screen
	opts := platform.DesktopOptions{SpeechCommand: cfg.Speech.Command}
	if !cfg.Headless {
		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create terminal screen: %w", err)
		}
		opts.Beeper = screen
	}
	caps := platform.NewDesktop(logger, opts)

	dispatcher := feedback.NewDispatcher(feedback.DispatcherArgs{Logger: logger, Caps: caps})
	defer dispatcher.Shutdown()

	session := timer.NewSession(timer.SessionArgs{
		Logger:         logger,
		History:        db,
		Guard:          liveness.NewGuard(logger, caps.KeepAlive, caps.WakeLock),
		TickInterval:   cfg.TickInterval,
		HistoryTimeout: cfg.HistoryTimeout,
		Settings:       settings,
	})
	defer session.Shutdown()
	unlistenFeedback := session.ListenToEffects(dispatcher.Handle)
	defer unlistenFeedback()

	var controller *treadmill.Controller
	if cfg.Treadmill.Address != "" {
		var release func()
		controller, release = startTreadmill(logger, cfg.Treadmill)
		if controller != nil {
			defer release()
			defer controller.Shutdown()
			unlistenTreadmill := session.ListenToEffects(controller.HandleEvent)
			defer unlistenTreadmill()
		}
	}

	if cfg.Headless {
		return runHeadless(logger, cfg, db, session, dispatcher)
	}
	return runTUI(logger, cfg, screen, uiLogChan, db, session, dispatcher, controller)
}

// openStore opens the database, migrates it, seeds the default programs and
// imports the configured program file.
func openStore(logger *log.Logger, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(ctx, db.DB()); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	seeded, err := db.SeedDefaultPrograms(ctx)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	if seeded {
		logger.Printf("Main: Seeded default programs")
	}

	if cfg.ImportFile != "" {
		if err := importPrograms(ctx, logger, db, cfg.ImportFile); err != nil {
			db.Close() //nolint:errcheck
			return nil, err
		}
	}
	return db, nil
}

func importPrograms(ctx context.Context, logger *log.Logger, db *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open program file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	programs, err := workout.DecodePrograms(f)
	if err != nil {
		return fmt.Errorf("program file %s: %w", path, err)
	}
	for _, p := range programs {
		if err := db.SaveProgram(ctx, p); err != nil {
			return fmt.Errorf("import %s: %w", p.ID, err)
		}
	}
	logger.Printf("Main: Imported %d programs from %s", len(programs), path)
	return nil
}

// startTreadmill connects the treadmill and starts driving it. The timer
// runs without one when this fails.
func startTreadmill(logger *log.Logger, cfg config.TreadmillConfig) (*treadmill.Controller, func()) {
	device, release, err := connectTreadmill(logger, cfg)
	if err != nil {
		logger.Printf("Main: No treadmill: %v", err)
		return nil, nil
	}
	controller := treadmill.NewController(logger, device)
	if err := controller.Start(); err != nil {
		logger.Printf("Main: Treadmill control unavailable: %v", err)
		controller.Shutdown()
		release()
		return nil, nil
	}
	logger.Printf("Main: Driving treadmill %s", device.GetAddressString())
	return controller, release
}

// runHeadless runs one program on the real clock and returns when it
// completes and its last cues have played. SIGINT or SIGTERM stops it early
// and saves the run.
func runHeadless(
	logger *log.Logger,
	cfg *config.Config,
	db *store.Store,
	session *timer.Session,
	dispatcher *feedback.Dispatcher,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	program, err := db.LoadProgram(ctx, cfg.ProgramID)
	cancel()
	if err != nil {
		return fmt.Errorf("load program %s: %w", cfg.ProgramID, err)
	}
	if !program.Runnable() {
		return fmt.Errorf("program %s has no intervals", cfg.ProgramID)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	completed := make(chan timer.Snapshot, 1)
	unlisten := session.ListenToEffects(func(ev timer.Event) {
		if ev.Effect.Kind == timer.EffectWorkoutCompleted {
			select {
			case completed <- ev.Snapshot:
			default:
			}
		}
	})
	defer unlisten()

	session.Start(program)
	select {
	case sig := <-signals:
		logger.Printf("Main: Received %s, stopping", sig)
		session.Stop(true)
	case snap := <-completed:
		logger.Printf("Main: '%s' complete after %s", snap.Program.Name, workout.FormatTime(snap.Elapsed))
	}

	// Every effect has reached the dispatcher once the session loop is gone
	session.Shutdown()
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), feedbackDrainTimeout)
	defer cancelDrain()
	if err := dispatcher.Drain(drainCtx); err != nil {
		logger.Printf("Main: Feedback still playing at exit: %v", err)
	}
	return nil
}

func runTUI(
	logger *log.Logger,
	cfg *config.Config,
	screen tcell.Screen,
	uiLogChan <-chan string,
	db *store.Store,
	session *timer.Session,
	dispatcher *feedback.Dispatcher,
	controller *treadmill.Controller,
) error {
	modelArgs := ui.UIModelArgs{
		Logger:    logger,
		LogChan:   uiLogChan,
		Snapshots: session,
		DataDir:   cfg.DataDir,
		Settings:  session.Settings(),
	}
	if controller != nil {
		modelArgs.Treadmill = controller
		modelArgs.TreadmillAddress = cfg.Treadmill.Address
	}
	model := ui.NewUIModel(modelArgs)
	defer model.Shutdown()

	uiController := ui.NewUIController(ui.UIControllerArgs{
		Model:   model,
		Session: session,
		Store:   db,
		Cues:    dispatcher,
		Voices:  dispatcher.Announcer(),
		Logger:  logger,
	})
	if err := uiController.LoadPrograms(); err != nil {
		return fmt.Errorf("load programs: %w", err)
	}
	if cfg.ProgramID != "" {
		selectProgram(logger, model, cfg.ProgramID)
	}

	app := tview.NewApplication()
	app.SetScreen(screen)
	view := ui.NewCursesUIView(logger, app, model)
	base := ui.NewBaseUIView(ui.NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: uiController,
		Logger:       logger,
	})
	defer base.Shutdown()

	logger.Printf("Main: Press 1-4 to switch screens, Esc to quit")
	if err := base.Run(); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	// Esc already saved the run; this covers the app stopping any other way
	if phase := session.Snapshot().Phase; phase == timer.PhaseRunning || phase == timer.PhasePaused {
		session.Stop(true)
	}
	return nil
}

func selectProgram(logger *log.Logger, model *ui.UIModel, programID string) {
	for i, p := range model.GetPrograms().Programs {
		if p.ID == programID {
			model.SelectProgram(i)
			return
		}
	}
	logger.Printf("Main: Program %s not found", programID)
}
