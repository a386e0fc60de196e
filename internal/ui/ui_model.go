package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/events"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// ProgramList is the program catalogue with the current selection
type ProgramList struct {
	Programs      []workout.Program
	SelectedIndex int
}

// Selected returns the selected program, if any
func (l ProgramList) Selected() (workout.Program, bool) {
	if l.SelectedIndex < 0 || l.SelectedIndex >= len(l.Programs) {
		return workout.Program{}, false
	}
	return l.Programs[l.SelectedIndex], true
}

// TreadmillState is what the dashboard shows about a connected treadmill
type TreadmillState struct {
	Address         string
	ControlAcquired bool
	HasData         bool
	Data            treadmill.TreadmillData
}

// SnapshotSource publishes timer state changes
type SnapshotSource interface {
	ListenToSnapshots(ch chan<- timer.Snapshot) func()
}

// TreadmillSource publishes decoded treadmill data
type TreadmillSource interface {
	ListenToData(ch chan<- treadmill.TreadmillData) func()
	ControlAcquired() bool
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	programsEvent         *events.ChannelEvent[ProgramList]
	programs              ProgramList
	snapshotEvent         *events.ChannelEvent[timer.Snapshot]
	snapshot              timer.Snapshot
	historyEvent          *events.ChannelEvent[[]store.HistoryEntry]
	history               []store.HistoryEntry
	settingsEvent         *events.ChannelEvent[config.Settings]
	settings              config.Settings
	treadmillEvent        *events.ChannelEvent[TreadmillState]
	treadmillState        TreadmillState
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

// UIModelArgs holds the arguments for creating a new UIModel
type UIModelArgs struct {
	Logger    *log.Logger
	LogChan   <-chan string
	Snapshots SnapshotSource
	// Treadmill and TreadmillAddress are set when a treadmill is driven
	Treadmill        TreadmillSource
	TreadmillAddress string
	// DataDir holds ui_state.json; empty keeps UI state in memory
	DataDir  string
	Settings config.Settings
}

func NewUIModel(args UIModelArgs) *UIModel {
	if args.Logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if args.LogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	if args.Snapshots == nil {
		panic("UIModel: snapshots cannot be nil")
	}

	persistence := newUIModelPersistence(args.Logger, args.DataDir)
	mode := UIModePrograms
	if m, ok := persistence.getLastMode(); ok && m != UIModeWorkout {
		mode = m
	}

	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: mode},
		programsEvent:         events.NewChannelEvent[ProgramList](true),
		programs:              ProgramList{SelectedIndex: -1},
		snapshotEvent:         events.NewChannelEvent[timer.Snapshot](true),
		historyEvent:          events.NewChannelEvent[[]store.HistoryEntry](true),
		settingsEvent:         events.NewChannelEvent[config.Settings](true),
		settings:              args.Settings,
		treadmillEvent:        events.NewChannelEvent[TreadmillState](true),
		treadmillState:        TreadmillState{Address: args.TreadmillAddress},
		persistence:           persistence,
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                args.Logger,
	}
	model.settingsEvent.Notify(args.Settings)

	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, args.LogChan) })

	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.listenToSnapshots(ctx, args.Snapshots) })

	if args.Treadmill != nil {
		model.treadmillEvent.Notify(model.treadmillState)
		model.wg.Add(1)
		go_func_utils.SafeGo(model.logger, func() { model.listenToTreadmill(ctx, args.Treadmill) })
	}

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.persistence.setLastMode(mode)
	m.uiStateEvent.Notify(state)
}

// ListenToPrograms registers a channel to receive program list changes
func (m *UIModel) ListenToPrograms(ch chan<- ProgramList) func() {
	return m.programsEvent.Listen(ch)
}

// GetPrograms returns a copy of the program list
func (m *UIModel) GetPrograms() ProgramList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyProgramList(m.programs)
}

// SetPrograms replaces the catalogue. The previous selection, or the one
// remembered from the last run, is kept when the program still exists.
func (m *UIModel) SetPrograms(programs []workout.Program) {
	m.mu.Lock()
	selectedID := ""
	if p, ok := m.programs.Selected(); ok {
		selectedID = p.ID
	} else {
		selectedID = m.persistence.getLastProgramID()
	}
	list := ProgramList{Programs: make([]workout.Program, 0, len(programs)), SelectedIndex: -1}
	for i, p := range programs {
		list.Programs = append(list.Programs, p.Clone())
		if p.ID == selectedID {
			list.SelectedIndex = i
		}
	}
	if list.SelectedIndex < 0 && len(list.Programs) > 0 {
		list.SelectedIndex = 0
	}
	m.programs = list
	result := copyProgramList(list)
	m.mu.Unlock()

	m.programsEvent.Notify(result)
}

// SelectProgram marks programs[index] as selected and remembers it
func (m *UIModel) SelectProgram(index int) (workout.Program, bool) {
	m.mu.Lock()
	if index < 0 || index >= len(m.programs.Programs) {
		m.mu.Unlock()
		return workout.Program{}, false
	}
	changed := m.programs.SelectedIndex != index
	m.programs.SelectedIndex = index
	selected := m.programs.Programs[index].Clone()
	result := copyProgramList(m.programs)
	m.mu.Unlock()

	m.persistence.setLastProgramID(selected.ID)
	if changed {
		m.programsEvent.Notify(result)
	}
	return selected, true
}

// ListenToSnapshot registers a channel to receive timer state changes
func (m *UIModel) ListenToSnapshot(ch chan<- timer.Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

// GetSnapshot returns the last timer state seen
func (m *UIModel) GetSnapshot() timer.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ListenToHistory registers a channel to receive history list changes
func (m *UIModel) ListenToHistory(ch chan<- []store.HistoryEntry) func() {
	return m.historyEvent.Listen(ch)
}

func (m *UIModel) GetHistory() []store.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.HistoryEntry(nil), m.history...)
}

func (m *UIModel) SetHistory(entries []store.HistoryEntry) {
	result := append([]store.HistoryEntry(nil), entries...)
	m.mu.Lock()
	m.history = result
	m.mu.Unlock()

	m.historyEvent.Notify(append([]store.HistoryEntry(nil), result...))
}

// ListenToSettings registers a channel to receive settings changes
func (m *UIModel) ListenToSettings(ch chan<- config.Settings) func() {
	return m.settingsEvent.Listen(ch)
}

func (m *UIModel) GetSettings() config.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *UIModel) SetSettings(settings config.Settings) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()

	m.settingsEvent.Notify(settings)
}

// ListenToTreadmill registers a channel to receive treadmill state changes.
// Nothing is sent when no treadmill is configured.
func (m *UIModel) ListenToTreadmill(ch chan<- TreadmillState) func() {
	return m.treadmillEvent.Listen(ch)
}

func (m *UIModel) GetTreadmillState() TreadmillState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.treadmillState
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

// listenToSnapshots mirrors the session state into the model
func (m *UIModel) listenToSnapshots(ctx context.Context, source SnapshotSource) {
	defer m.wg.Done()

	ch := make(chan timer.Snapshot, 1)
	unregister := source.ListenToSnapshots(ch)
	defer unregister()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.snapshot = snap
			m.mu.Unlock()

			m.snapshotEvent.Notify(snap)
		}
	}
}

// listenToTreadmill mirrors treadmill data and the control state into the model
func (m *UIModel) listenToTreadmill(ctx context.Context, source TreadmillSource) {
	defer m.wg.Done()

	ch := make(chan treadmill.TreadmillData, 1)
	unregister := source.ListenToData(ch)
	defer unregister()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.treadmillState.HasData = true
			m.treadmillState.Data = data
			m.treadmillState.ControlAcquired = source.ControlAcquired()
			state := m.treadmillState
			m.mu.Unlock()

			m.treadmillEvent.Notify(state)
		}
	}
}

func copyProgramList(l ProgramList) ProgramList {
	out := ProgramList{Programs: make([]workout.Program, len(l.Programs)), SelectedIndex: l.SelectedIndex}
	for i, p := range l.Programs {
		out.Programs[i] = p.Clone()
	}
	return out
}
