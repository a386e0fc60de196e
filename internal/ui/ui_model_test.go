package ui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
)

func TestNewUIModel_PanicsOnMissingDeps(t *testing.T) {
	session := newFakeSession()
	assert.Panics(t, func() {
		NewUIModel(UIModelArgs{LogChan: make(chan string), Snapshots: session})
	})
	assert.Panics(t, func() {
		NewUIModel(UIModelArgs{Logger: newTestLogger(), Snapshots: session})
	})
	assert.Panics(t, func() {
		NewUIModel(UIModelArgs{Logger: newTestLogger(), LogChan: make(chan string)})
	})
}

func TestUIModel_SetProgramsSelectsFirstByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	model.SetPrograms(testPrograms())

	list := model.GetPrograms()
	require.Len(t, list.Programs, 3)
	assert.Equal(t, 0, list.SelectedIndex)
	selected, ok := list.Selected()
	require.True(t, ok)
	assert.Equal(t, "program_1", selected.ID)
}

func TestUIModel_SetProgramsKeepsSelection(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	model.SetPrograms(testPrograms())
	_, ok := model.SelectProgram(2)
	require.True(t, ok)

	// program_3 moves to the front after a reload
	programs := testPrograms()
	programs[0], programs[2] = programs[2], programs[0]
	model.SetPrograms(programs)

	selected, ok := model.GetPrograms().Selected()
	require.True(t, ok)
	assert.Equal(t, "program_3", selected.ID)
	assert.Equal(t, 0, model.GetPrograms().SelectedIndex)
}

func TestUIModel_SelectProgramOutOfRange(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	model.SetPrograms(testPrograms())
	_, ok := model.SelectProgram(5)
	assert.False(t, ok)
	_, ok = model.SelectProgram(-1)
	assert.False(t, ok)
	assert.Equal(t, 0, model.GetPrograms().SelectedIndex)
}

func TestUIModel_GetProgramsReturnsCopy(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	model.SetPrograms(testPrograms())
	list := model.GetPrograms()
	list.Programs[0].Intervals[0].Name = "Changed"

	assert.Equal(t, "Warmup", model.GetPrograms().Programs[0].Intervals[0].Name)
}

func TestUIModel_RestoresSelectionAndModeAcrossRuns(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	first, _ := newTestModel(t, dir)
	first.SetPrograms(testPrograms())
	first.SelectProgram(1)
	first.SetMode(UIModeSettings)
	first.Shutdown()

	second, _ := newTestModel(t, dir)
	defer second.Shutdown()
	second.SetPrograms(testPrograms())

	assert.Equal(t, 1, second.GetPrograms().SelectedIndex)
	assert.Equal(t, UIModeSettings, second.GetUIState().Mode)
}

func TestUIModel_DoesNotRestoreWorkoutMode(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	first, _ := newTestModel(t, dir)
	first.SetMode(UIModeWorkout)
	first.Shutdown()

	second, _ := newTestModel(t, dir)
	defer second.Shutdown()
	assert.Equal(t, UIModePrograms, second.GetUIState().Mode)
}

func TestUIModel_SetModeNotifiesOnChangeOnly(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	ch := make(chan UIState, 4)
	unregister := model.ListenToUIState(ch)
	defer unregister()

	model.SetMode(UIModePrograms)
	model.SetMode(UIModeHistory)

	select {
	case state := <-ch:
		assert.Equal(t, UIModeHistory, state.Mode)
	case <-time.After(time.Second):
		t.Fatal("no ui state change")
	}
	assert.Empty(t, ch)
}

func TestUIModel_MirrorsSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, session := newTestModel(t, "")
	defer model.Shutdown()

	snap := timer.Snapshot{Phase: timer.PhaseRunning, Program: testPrograms()[0], Repeat: 1, TimeRemaining: 42}
	require.Eventually(t, func() bool {
		session.snapshots.Notify(snap)
		return model.GetSnapshot().TimeRemaining == 42
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, timer.PhaseRunning, model.GetSnapshot().Phase)
}

func TestUIModel_MirrorsTreadmill(t *testing.T) {
	defer goleak.VerifyNone(t)
	tm := newFakeTreadmill()
	model := NewUIModel(UIModelArgs{
		Logger:           newTestLogger(),
		LogChan:          make(chan string),
		Snapshots:        newFakeSession(),
		Treadmill:        tm,
		TreadmillAddress: "mock",
		Settings:         config.DefaultSettings(),
	})
	defer model.Shutdown()

	assert.Equal(t, "mock", model.GetTreadmillState().Address)
	assert.False(t, model.GetTreadmillState().HasData)

	data := treadmill.TreadmillData{HasInstantaneousSpeed: true, InstantaneousSpeedKmh: 8.5}
	require.Eventually(t, func() bool {
		tm.data.Notify(data)
		return model.GetTreadmillState().HasData
	}, time.Second, 10*time.Millisecond)

	state := model.GetTreadmillState()
	assert.True(t, state.ControlAcquired)
	assert.InDelta(t, 8.5, state.Data.InstantaneousSpeedKmh, 1e-9)
}

func TestUIModel_LogTail(t *testing.T) {
	defer goleak.VerifyNone(t)
	logChan := make(chan string)
	model := NewUIModel(UIModelArgs{
		Logger:    newTestLogger(),
		LogChan:   logChan,
		Snapshots: newFakeSession(),
		Settings:  config.DefaultSettings(),
	})
	defer model.Shutdown()

	for i := 0; i < maxLogLines+5; i++ {
		logChan <- fmt.Sprintf("line %d\n", i)
	}

	require.Eventually(t, func() bool {
		tail := model.GetLogTail(1)
		return len(tail) == 1 && tail[0] == fmt.Sprintf("line %d\n", maxLogLines+4)
	}, time.Second, 10*time.Millisecond)

	assert.Len(t, model.GetLogTail(maxLogLines*2), maxLogLines)
	assert.Equal(t, []string{"line 1003\n", "line 1004\n"}, model.GetLogTail(2))
	assert.Empty(t, model.GetLogTail(0))
}

func TestUIModel_SettingsAndHistory(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	settingsCh := make(chan config.Settings, 2)
	unregister := model.ListenToSettings(settingsCh)
	defer unregister()

	// Initial settings are replayed to new listeners
	initial := <-settingsCh
	assert.Equal(t, config.DefaultSettings(), initial)

	next := config.DefaultSettings()
	next.UserWeight = 82
	model.SetSettings(next)
	assert.Equal(t, 82.0, (<-settingsCh).UserWeight)
	assert.Equal(t, 82.0, model.GetSettings().UserWeight)

	assert.Empty(t, model.GetHistory())
}

func TestUIModel_RequestCloseApplication(t *testing.T) {
	defer goleak.VerifyNone(t)
	model, _ := newTestModel(t, "")
	defer model.Shutdown()

	ch := make(chan struct{}, 1)
	unregister := model.ListenToCloseApplication(ch)
	defer unregister()

	model.RequestCloseApplication()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close request not delivered")
	}
}
