package ui

import (
	"context"
	"log"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/feedback"
	"github.com/lowaak/treadmill-timer/internal/platform"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

// WorkoutSession is the timer surface the controller drives
type WorkoutSession interface {
	Start(program workout.Program)
	TogglePause()
	Stop(save bool)
	Skip()
	Previous()
	Snapshot() timer.Snapshot
	UpdateSettings(settings config.Settings)
}

// DataStore is the persistence the controller reads and writes
type DataStore interface {
	ListPrograms(ctx context.Context) ([]workout.Program, error)
	ListWorkoutRecords(ctx context.Context, limit int) ([]store.HistoryEntry, error)
	SaveSettings(ctx context.Context, settings config.Settings) error
}

// CuePlayer plays a tone sequence on demand
type CuePlayer interface {
	Preview(cue []feedback.Tone)
}

// VoiceCatalog lists the speech voices for a language
type VoiceCatalog interface {
	Voices(lang announce.Language) []platform.Voice
}

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model   *UIModel
	session WorkoutSession
	store   DataStore
	cues    CuePlayer
	voices  VoiceCatalog
	logger  *log.Logger
}

// UIControllerArgs holds the arguments for creating a new UIController.
// Cues and Voices are optional.
type UIControllerArgs struct {
	Model   *UIModel
	Session WorkoutSession
	Store   DataStore
	Cues    CuePlayer
	Voices  VoiceCatalog
	Logger  *log.Logger
}

func NewUIController(args UIControllerArgs) *UIController {
	if args.Model == nil {
		panic("UIController: model cannot be nil")
	}
	if args.Session == nil {
		panic("UIController: session cannot be nil")
	}
	if args.Store == nil {
		panic("UIController: store cannot be nil")
	}
	if args.Logger == nil {
		panic("UIController: logger cannot be nil")
	}
	return &UIController{
		model:   args.Model,
		session: args.Session,
		store:   args.Store,
		cues:    args.Cues,
		voices:  args.Voices,
		logger:  args.Logger,
	}
}

// LoadPrograms reads the catalogue from the store into the model
func (c *UIController) LoadPrograms() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	programs, err := c.store.ListPrograms(ctx)
	if err != nil {
		return err
	}
	c.model.SetPrograms(programs)
	return nil
}

// RefreshHistory reads the most recent runs into the model
func (c *UIController) RefreshHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := c.store.ListWorkoutRecords(ctx, HistoryPageSize)
	if err != nil {
		c.logger.Printf("UIController: Failed to load history: %v", err)
		return
	}
	c.model.SetHistory(entries)
}

// OnEscapeKey stops an unfinished run, saving it, and closes the application
func (c *UIController) OnEscapeKey() {
	switch c.session.Snapshot().Phase {
	case timer.PhaseRunning, timer.PhasePaused:
		c.session.Stop(true)
	}
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	if mode == UIModeHistory {
		c.RefreshHistory()
	}
	c.model.SetMode(mode)
}

// --- Program Methods ---

// OnProgramHighlighted records the program under the cursor
func (c *UIController) OnProgramHighlighted(index int) {
	c.model.SelectProgram(index)
}

// OnProgramSelected starts the program at index and shows the dashboard
func (c *UIController) OnProgramSelected(index int) {
	program, ok := c.model.SelectProgram(index)
	if !ok {
		c.logger.Printf("Invalid program index: %d", index)
		return
	}
	if !program.Runnable() {
		c.logger.Printf("Program '%s' has no intervals", program.Name)
		return
	}
	c.logger.Printf("Program selected: %s", program.Name)
	c.session.Start(program)
	c.model.SetMode(UIModeWorkout)
}

// --- Workout Methods ---

// ToggleWorkout pauses or resumes the run, or starts the selected program
// when nothing is running.
func (c *UIController) ToggleWorkout() {
	switch c.session.Snapshot().Phase {
	case timer.PhaseRunning, timer.PhasePaused:
		c.session.TogglePause()
	default:
		list := c.model.GetPrograms()
		program, ok := list.Selected()
		if !ok {
			c.logger.Printf("No program selected - pick one in Programs mode (press 1)")
			return
		}
		if !program.Runnable() {
			c.logger.Printf("Program '%s' has no intervals", program.Name)
			return
		}
		c.session.Start(program)
	}
}

func (c *UIController) SkipInterval() {
	c.session.Skip()
}

func (c *UIController) PreviousInterval() {
	c.session.Previous()
}

// StopWorkout ends the run. With save set, a qualifying run is written to history.
func (c *UIController) StopWorkout(save bool) {
	c.session.Stop(save)
}

// --- Settings Methods ---

// UpdateSettings applies mutate to the current settings, validates and
// stores the result, then hands it to the session.
func (c *UIController) UpdateSettings(mutate func(*config.Settings)) {
	next := c.model.GetSettings()
	mutate(&next)
	if err := next.Validate(); err != nil {
		c.logger.Printf("UIController: Rejected settings: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.SaveSettings(ctx, next); err != nil {
		c.logger.Printf("UIController: Failed to save settings: %v", err)
		return
	}
	c.session.UpdateSettings(next)
	c.model.SetSettings(next)
}

func (c *UIController) ToggleUnit() {
	c.UpdateSettings(func(s *config.Settings) {
		if s.Unit == workout.UnitKmh {
			s.Unit = workout.UnitMph
		} else {
			s.Unit = workout.UnitKmh
		}
	})
}

func (c *UIController) ToggleSound() {
	c.UpdateSettings(func(s *config.Settings) { s.SoundEnabled = !s.SoundEnabled })
}

func (c *UIController) ToggleVibration() {
	c.UpdateSettings(func(s *config.Settings) { s.VibrationEnabled = !s.VibrationEnabled })
}

func (c *UIController) ToggleVoice() {
	c.UpdateSettings(func(s *config.Settings) { s.VoiceEnabled = !s.VoiceEnabled })
}

func (c *UIController) ToggleAnnounceTime() {
	c.UpdateSettings(func(s *config.Settings) { s.VoiceAnnounceTime = !s.VoiceAnnounceTime })
}

// ToggleLanguage switches between French and English and clears the voice,
// since a named voice belongs to one language.
func (c *UIController) ToggleLanguage() {
	c.UpdateSettings(func(s *config.Settings) {
		if s.VoiceLanguage == announce.French {
			s.VoiceLanguage = announce.English
		} else {
			s.VoiceLanguage = announce.French
		}
		s.VoiceName = ""
	})
}

// CycleVoice moves to the next voice for the current language. After the
// last one it returns to automatic selection.
func (c *UIController) CycleVoice() {
	if c.voices == nil {
		c.logger.Printf("No speech engine available")
		return
	}
	settings := c.model.GetSettings()
	voices := c.voices.Voices(settings.VoiceLanguage)
	if len(voices) == 0 {
		c.logger.Printf("No voices for language %s", settings.VoiceLanguage)
		return
	}

	next := voices[0].Name
	for i, v := range voices {
		if v.Name == settings.VoiceName {
			if i+1 < len(voices) {
				next = voices[i+1].Name
			} else {
				next = ""
			}
			break
		}
	}
	c.UpdateSettings(func(s *config.Settings) { s.VoiceName = next })
}

func (c *UIController) ToggleSex() {
	c.UpdateSettings(func(s *config.Settings) {
		if s.UserSex == workout.SexMale {
			s.UserSex = workout.SexFemale
		} else {
			s.UserSex = workout.SexMale
		}
	})
}

// AdjustWeight changes the weight by delta kilograms within the allowed range
func (c *UIController) AdjustWeight(delta float64) {
	c.UpdateSettings(func(s *config.Settings) {
		s.UserWeight = clamp(s.UserWeight+delta, config.MinUserWeight, config.MaxUserWeight)
	})
}

// AdjustHeight changes the height by delta centimeters within the allowed range
func (c *UIController) AdjustHeight(delta float64) {
	c.UpdateSettings(func(s *config.Settings) {
		s.UserHeight = clamp(s.UserHeight+delta, config.MinUserHeight, config.MaxUserHeight)
	})
}

// PreviewCue plays the interval change tones
func (c *UIController) PreviewCue() {
	if c.cues == nil {
		c.logger.Printf("No audio output available")
		return
	}
	c.cues.Preview(feedback.IntervalChangeCue)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
