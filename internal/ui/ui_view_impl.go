package ui

import (
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	SetMode(mode UIMode)
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	GetLogViewHeight() int
	ClearLogView()
	WriteLogLine(line string) error

	// --- Programs Mode ---

	SetProgramList(list ProgramList)

	// --- Workout Mode ---

	UpdateSnapshot(snap timer.Snapshot)
	UpdateTreadmill(state TreadmillState)

	// --- History Mode ---

	SetHistory(entries []store.HistoryEntry)

	// --- Settings Mode ---

	// UpdateSettings is also used by the other modes to format speeds
	UpdateSettings(settings config.Settings)
}
