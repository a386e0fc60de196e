package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

func TestFormatProgramSecondary(t *testing.T) {
	p := testPrograms()[2]
	assert.Equal(t, "1 intervals x2 | 2m", formatProgramSecondary(p))
}

func TestFormatProgramDetails(t *testing.T) {
	settings := config.DefaultSettings()
	text := formatProgramDetails(testPrograms()[0], settings)

	assert.Contains(t, text, "Programme 1")
	assert.Contains(t, text, "Duration:[white] 7:00")
	assert.Contains(t, text, "1. Warmup  5:00 @ 4 km/h, 1%")
	assert.Contains(t, text, "2. Run  2:00 @ 9 km/h, 0%")
	assert.Contains(t, text, "Press Enter")

	empty := formatProgramDetails(testPrograms()[1], settings)
	assert.Contains(t, empty, "No intervals")
	assert.NotContains(t, empty, "Press Enter")
}

func TestFormatWorkoutDisplay_Idle(t *testing.T) {
	text := formatWorkoutDisplay(timer.Snapshot{}, config.DefaultSettings())
	assert.Contains(t, text, "No workout running")
}

func TestFormatWorkoutDisplay_Running(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Unit = workout.UnitMph
	snap := timer.Snapshot{
		Phase:              timer.PhaseRunning,
		Program:            testPrograms()[0],
		IntervalIndex:      0,
		Repeat:             1,
		TimeRemaining:      150,
		TotalTimeRemaining: 270,
		TotalPlanned:       420,
		Elapsed:            150,
	}

	text := formatWorkoutDisplay(snap, settings)
	assert.Contains(t, text, "Warmup[white] (1/2, repeat 1/1)")
	assert.Contains(t, text, "2:30")
	assert.Contains(t, text, "[yellow]4[white] mph")
	assert.Contains(t, text, "Remaining:[white] 4:30")
	assert.Contains(t, text, "Next:[white] Run, 2:00 @ 9 mph, 0%")
	assert.Contains(t, text, "Space[white] Pause")
	assert.Contains(t, text, " 50%")
}

func TestFormatWorkoutDisplay_PausedAndComplete(t *testing.T) {
	settings := config.DefaultSettings()
	snap := timer.Snapshot{
		Phase:         timer.PhasePaused,
		Program:       testPrograms()[0],
		IntervalIndex: 1,
		Repeat:        1,
		TimeRemaining: 60,
	}
	paused := formatWorkoutDisplay(snap, settings)
	assert.Contains(t, paused, "(PAUSED)")
	assert.Contains(t, paused, "Space[white] Resume")
	assert.Contains(t, paused, "Finish!")

	snap.Phase = timer.PhaseComplete
	snap.Elapsed = 420
	complete := formatWorkoutDisplay(snap, settings)
	assert.Contains(t, complete, "(COMPLETE)")
	assert.Contains(t, complete, "Elapsed:[white]  7:00")
}

func TestFormatTreadmillDisplay(t *testing.T) {
	settings := config.DefaultSettings()

	assert.Contains(t, formatTreadmillDisplay(TreadmillState{}, settings), "No treadmill configured")

	waiting := formatTreadmillDisplay(TreadmillState{Address: "mock"}, settings)
	assert.Contains(t, waiting, "no control")
	assert.Contains(t, waiting, "Waiting for data")

	state := TreadmillState{
		Address:         "mock",
		ControlAcquired: true,
		HasData:         true,
		Data: treadmill.TreadmillData{
			HasInstantaneousSpeed: true,
			InstantaneousSpeedKmh: 8,
			HasInclination:        true,
			InclinationPercent:    2.5,
			HasTotalDistance:      true,
			TotalDistanceMeters:   1250,
			HasElapsedTime:        true,
			ElapsedTimeSeconds:    605,
		},
	}
	settings.Unit = workout.UnitMph
	text := formatTreadmillDisplay(state, settings)
	assert.Contains(t, text, "(control)")
	assert.Contains(t, text, "[yellow]5.0[white] mph")
	assert.Contains(t, text, "[yellow]2.5[white]%")
	assert.Contains(t, text, "[yellow]1.25[white] km")
	assert.Contains(t, text, "[yellow]10:05[white]")
	assert.NotContains(t, text, "bpm")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, formatHistory(nil), "No workouts saved yet")

	entries := []store.HistoryEntry{
		{
			ID:         "r1",
			RecordedAt: time.Date(2026, 3, 1, 7, 30, 0, 0, time.Local),
			Record:     workout.Record{ProgramName: "Programme 1", Duration: 1500, Calories: 120, Completed: true},
		},
		{
			ID:         "r2",
			RecordedAt: time.Date(2026, 3, 2, 18, 5, 0, 0, time.Local),
			Record:     workout.Record{ProgramName: "Programme 2", Duration: 90, Calories: 6},
		},
	}
	text := formatHistory(entries)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2026-03-01 07:30")
	assert.Contains(t, lines[0], "25:00")
	assert.Contains(t, lines[0], "120 kcal")
	assert.Contains(t, lines[0], "done")
	assert.Contains(t, lines[1], "stopped")
}

func TestFormatSettings(t *testing.T) {
	settings := config.DefaultSettings()
	text := formatSettings(settings)
	assert.Contains(t, text, "Unit:               km/h")
	assert.Contains(t, text, "Language:           Français")
	assert.Contains(t, text, "Voice name:         automatic")
	assert.Contains(t, text, "Weight:             70 kg")

	settings.VoiceLanguage = announce.English
	settings.VoiceName = "Samantha"
	settings.SoundEnabled = false
	text = formatSettings(settings)
	assert.Contains(t, text, "English")
	assert.Contains(t, text, "Samantha")
	assert.Contains(t, text, "Sound:              [gray]off")
}

func TestProgressBar(t *testing.T) {
	bar := progressBar(50, 10)
	assert.Equal(t, 5, strings.Count(bar, "█"))
	assert.Equal(t, 5, strings.Count(bar, "░"))
	assert.Contains(t, bar, " 50%")

	assert.Equal(t, 10, strings.Count(progressBar(140, 10), "█"))
	assert.Equal(t, 10, strings.Count(progressBar(-3, 10), "░"))
	assert.Empty(t, progressBar(50, 0))
}
