// Package ui is the terminal front end: programs, the running workout,
// history and settings, with the process log alongside.
package ui

import "time"

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModePrograms UIMode = iota // Program list and details
	UIModeWorkout                // Running workout dashboard
	UIModeHistory                // Saved runs
	UIModeSettings               // User settings
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	Name        string
	DisplayName string
	KeyBinding  rune
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModePrograms, Name: "programs", DisplayName: "Programs", KeyBinding: '1'},
	{Mode: UIModeWorkout, Name: "workout", DisplayName: "Workout", KeyBinding: '2'},
	{Mode: UIModeHistory, Name: "history", DisplayName: "History", KeyBinding: '3'},
	{Mode: UIModeSettings, Name: "settings", DisplayName: "Settings", KeyBinding: '4'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// GetUIModeByName looks a mode up by its persisted name
func GetUIModeByName(name string) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.Name == name {
			return info.Mode, true
		}
	}
	return 0, false
}

// Workout mode keys
const (
	KeyToggleWorkout = ' '
	KeySkip          = 'n'
	KeyPrevious      = 'p'
	KeyStopAndSave   = 's'
	KeyDiscard       = 'x'
	KeyRefresh       = 'r'
)

// Settings mode keys
const (
	KeyToggleUnit      = 'u'
	KeyToggleSound     = 'b'
	KeyToggleVibration = 'v'
	KeyToggleVoice     = 'a'
	KeyToggleLanguage  = 'l'
	KeyCycleVoice      = 'o'
	KeyToggleTime      = 't'
	KeyToggleSex       = 'g'
	KeyWeightUp        = '+'
	KeyWeightDown      = '-'
	KeyHeightUp        = ']'
	KeyHeightDown      = '['
	KeyPreviewCue      = 'c'
)

const (
	// HistoryPageSize bounds the history screen
	HistoryPageSize = 100
	// WeightStepKg and HeightStepCm are the settings increments
	WeightStepKg = 1.0
	HeightStepCm = 1.0

	storeTimeout         = 5 * time.Second
	logResizePollPeriod  = 100 * time.Millisecond
	maxLogLines          = 1000
	persistenceFileName  = "ui_state.json"
	persistenceDirPerms  = 0o755
	persistenceFilePerms = 0o644
)
