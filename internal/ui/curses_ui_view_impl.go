package ui

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
)

// Page names for tview.Pages
const (
	pagePrograms = "programs"
	pageWorkout  = "workout"
	pageHistory  = "history"
	pageSettings = "settings"
)

const modeHelp = "[yellow]1[white] Programs  |  [yellow]2[white] Workout  |  [yellow]3[white] History  |  [yellow]4[white] Settings  |  [yellow]Tab[white] Focus  |  [yellow]Esc[white] Quit"

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger *log.Logger
	app    *tview.Application
	model  *UIModel

	mu          sync.Mutex
	currentMode UIMode
	settings    config.Settings
	programs    ProgramList
	snapshot    timer.Snapshot
	treadmill   TreadmillState

	// Set while the program list is rebuilt so tview callbacks don't move the selection
	populating atomic.Bool

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Programs mode components
	programsFlex       *tview.Flex
	programsTabWidgets []*tview.Box
	programList        *tview.List
	programDetails     *tview.TextView

	// Workout mode components
	workoutFlex       *tview.Flex
	workoutTabWidgets []*tview.Box
	dashboardPanel    *tview.TextView
	treadmillPanel    *tview.TextView

	// History mode components
	historyFlex       *tview.Flex
	historyTabWidgets []*tview.Box
	historyView       *tview.TextView

	// Settings mode components
	settingsFlex       *tview.Flex
	settingsTabWidgets []*tview.Box
	settingsView       *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIView: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIView: app cannot be nil")
	}
	if model == nil {
		panic("CursesUIView: model cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModePrograms,
		settings:    model.GetSettings(),
		programs:    ProgramList{SelectedIndex: -1},
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw() here: the BaseUIView listeners draw after each update
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initProgramsMode(controller)
	ui.initWorkoutMode()
	ui.initHistoryMode()
	ui.initSettingsMode()

	ui.pages.AddPage(pagePrograms, ui.programsFlex, true, true)
	ui.pages.AddPage(pageWorkout, ui.workoutFlex, true, false)
	ui.pages.AddPage(pageHistory, ui.historyFlex, true, false)
	ui.pages.AddPage(pageSettings, ui.settingsFlex, true, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func newHelpText(text string) *tview.TextView {
	help := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	help.SetText(text + "\n" + modeHelp)
	return help
}

func newPanel(title string) *tview.TextView {
	panel := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	panel.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", title))
	return panel
}

// initProgramsMode sets up the program list and details panel
func (ui *CursesUIViewImpl) initProgramsMode(controller *UIController) {
	ui.programList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Program selected: index=%d, name=%s", index, mainText)
			controller.OnProgramSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			if ui.populating.Load() {
				return
			}
			controller.OnProgramHighlighted(index)
		})
	ui.programList.SetBorder(true).SetTitle(" Programs ")

	ui.programDetails = newPanel("Program Details")
	ui.renderProgramDetails()

	ui.programsTabWidgets = append(ui.programsTabWidgets, ui.programList.Box, ui.programDetails.Box)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.programList, 0, 1, true).
		AddItem(ui.programDetails, 0, 1, false)

	ui.programsFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newHelpText("[yellow]Enter[white] Start  |  [yellow]Space[white] Start/Pause  |  [yellow]R[white] Reload"), 2, 0, false).
		AddItem(content, 0, 1, true)
}

// initWorkoutMode sets up the dashboard and the treadmill panel
func (ui *CursesUIViewImpl) initWorkoutMode() {
	ui.dashboardPanel = newPanel("Workout")
	ui.treadmillPanel = newPanel("Treadmill")
	ui.renderWorkout()

	ui.workoutTabWidgets = append(ui.workoutTabWidgets, ui.dashboardPanel.Box, ui.treadmillPanel.Box)

	content := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.dashboardPanel, 0, 3, true).
		AddItem(ui.treadmillPanel, 0, 1, false)

	ui.workoutFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newHelpText("[yellow]Space[white] Start/Pause  |  [yellow]N[white] Next  |  [yellow]P[white] Previous  |  [yellow]S[white] Stop  |  [yellow]X[white] Discard"), 2, 0, false).
		AddItem(content, 0, 1, true)
}

// initHistoryMode sets up the saved runs view
func (ui *CursesUIViewImpl) initHistoryMode() {
	ui.historyView = newPanel("History")
	ui.historyView.SetScrollable(true)
	ui.historyView.SetText(formatHistory(nil))

	ui.historyTabWidgets = append(ui.historyTabWidgets, ui.historyView.Box)

	ui.historyFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newHelpText("[yellow]R[white] Refresh"), 2, 0, false).
		AddItem(ui.historyView, 0, 1, true)
}

// initSettingsMode sets up the settings view
func (ui *CursesUIViewImpl) initSettingsMode() {
	ui.settingsView = newPanel("Settings")
	ui.settingsView.SetText(formatSettings(ui.settings))

	ui.settingsTabWidgets = append(ui.settingsTabWidgets, ui.settingsView.Box)

	ui.settingsFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(newHelpText("Press the highlighted key to change a setting"), 2, 0, false).
		AddItem(ui.settingsView, 0, 1, true)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	ui.mu.Lock()
	if ui.currentMode == mode {
		ui.mu.Unlock()
		return
	}
	ui.currentMode = mode
	ui.mu.Unlock()

	switch mode {
	case UIModePrograms:
		ui.pages.SwitchToPage(pagePrograms)
	case UIModeWorkout:
		ui.pages.SwitchToPage(pageWorkout)
	case UIModeHistory:
		ui.pages.SwitchToPage(pageHistory)
	case UIModeSettings:
		ui.pages.SwitchToPage(pageSettings)
	}

	ui.setFocusForCurrentMode()
	ui.app.Draw()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	if widgets := ui.getTabWidgetsForCurrentMode(); len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.GetCurrentMode() {
	case UIModePrograms:
		return ui.programsTabWidgets
	case UIModeWorkout:
		return ui.workoutTabWidgets
	case UIModeHistory:
		return ui.historyTabWidgets
	case UIModeSettings:
		return ui.settingsTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// The controller updates the model, which notifies us
				controller.OnModeChange(mode)
				return nil
			}
		}

		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			if widgetCount > 0 {
				for i := 0; i < widgetCount+1; i++ {
					idx := i % widgetCount
					if widgets[idx].HasFocus() {
						ui.app.SetFocus(widgets[(idx+1)%widgetCount])
						break
					}
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if event.Key() != tcell.KeyRune {
			return event
		}

		switch ui.GetCurrentMode() {
		case UIModePrograms:
			return ui.handleProgramsKey(controller, event)
		case UIModeWorkout:
			return ui.handleWorkoutKey(controller, event)
		case UIModeHistory:
			if event.Rune() == KeyRefresh {
				controller.RefreshHistory()
				return nil
			}
		case UIModeSettings:
			return ui.handleSettingsKey(controller, event)
		}
		return event
	})
}

func (ui *CursesUIViewImpl) handleProgramsKey(controller *UIController, event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case KeyToggleWorkout:
		controller.ToggleWorkout()
		controller.OnModeChange(UIModeWorkout)
	case KeyRefresh:
		if err := controller.LoadPrograms(); err != nil {
			ui.logger.Printf("UI: Failed to reload programs: %v", err)
		}
	default:
		return event
	}
	return nil
}

func (ui *CursesUIViewImpl) handleWorkoutKey(controller *UIController, event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case KeyToggleWorkout:
		controller.ToggleWorkout()
	case KeySkip:
		controller.SkipInterval()
	case KeyPrevious:
		controller.PreviousInterval()
	case KeyStopAndSave:
		controller.StopWorkout(true)
	case KeyDiscard:
		controller.StopWorkout(false)
	default:
		return event
	}
	return nil
}

func (ui *CursesUIViewImpl) handleSettingsKey(controller *UIController, event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case KeyToggleUnit:
		controller.ToggleUnit()
	case KeyToggleSound:
		controller.ToggleSound()
	case KeyToggleVibration:
		controller.ToggleVibration()
	case KeyToggleVoice:
		controller.ToggleVoice()
	case KeyToggleLanguage:
		controller.ToggleLanguage()
	case KeyCycleVoice:
		controller.CycleVoice()
	case KeyToggleTime:
		controller.ToggleAnnounceTime()
	case KeyToggleSex:
		controller.ToggleSex()
	case KeyWeightUp, '=':
		controller.AdjustWeight(WeightStepKg)
	case KeyWeightDown:
		controller.AdjustWeight(-WeightStepKg)
	case KeyHeightUp:
		controller.AdjustHeight(HeightStepCm)
	case KeyHeightDown:
		controller.AdjustHeight(-HeightStepCm)
	case KeyPreviewCue:
		controller.PreviewCue()
	default:
		return event
	}
	return nil
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// SetProgramList rebuilds the program list, keeping the model's selection
func (ui *CursesUIViewImpl) SetProgramList(list ProgramList) {
	ui.mu.Lock()
	ui.programs = list
	ui.mu.Unlock()

	ui.populating.Store(true)
	ui.programList.Clear()
	for _, p := range list.Programs {
		ui.programList.AddItem(p.Name, formatProgramSecondary(p), 0, nil)
	}
	if list.SelectedIndex >= 0 && list.SelectedIndex < len(list.Programs) {
		ui.programList.SetCurrentItem(list.SelectedIndex)
	}
	ui.populating.Store(false)

	ui.renderProgramDetails()
}

func (ui *CursesUIViewImpl) renderProgramDetails() {
	ui.mu.Lock()
	list := ui.programs
	settings := ui.settings
	ui.mu.Unlock()

	if p, ok := list.Selected(); ok {
		ui.programDetails.SetText(formatProgramDetails(p, settings))
		return
	}
	ui.programDetails.SetText("\n\n  [yellow]Programs[white]\n\n" +
		"  Select a program from the list to view details.\n\n" +
		"  [gray]Press Enter to start the selected program.[white]\n")
}

// UpdateSnapshot shows the latest timer state
func (ui *CursesUIViewImpl) UpdateSnapshot(snap timer.Snapshot) {
	ui.mu.Lock()
	ui.snapshot = snap
	ui.mu.Unlock()
	ui.renderWorkout()
}

// UpdateTreadmill shows the latest treadmill state
func (ui *CursesUIViewImpl) UpdateTreadmill(state TreadmillState) {
	ui.mu.Lock()
	ui.treadmill = state
	ui.mu.Unlock()
	ui.renderWorkout()
}

func (ui *CursesUIViewImpl) renderWorkout() {
	ui.mu.Lock()
	snap := ui.snapshot
	state := ui.treadmill
	settings := ui.settings
	ui.mu.Unlock()

	ui.dashboardPanel.SetText(formatWorkoutDisplay(snap, settings))
	ui.treadmillPanel.SetText(formatTreadmillDisplay(state, settings))
}

// SetHistory replaces the saved runs shown
func (ui *CursesUIViewImpl) SetHistory(entries []store.HistoryEntry) {
	ui.historyView.SetText(formatHistory(entries))
	ui.historyView.ScrollToBeginning()
}

// UpdateSettings re-renders everything that depends on the settings
func (ui *CursesUIViewImpl) UpdateSettings(settings config.Settings) {
	ui.mu.Lock()
	ui.settings = settings
	ui.mu.Unlock()

	ui.settingsView.SetText(formatSettings(settings))
	ui.renderProgramDetails()
	ui.renderWorkout()
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
