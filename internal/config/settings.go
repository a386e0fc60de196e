package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

// Limits for the calorie model inputs
const (
	MinUserWeight = 30.0
	MaxUserWeight = 250.0
	MinUserHeight = 100.0
	MaxUserHeight = 250.0
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the user's device configuration. The timer only ever sees a copy.
type Settings struct {
	Unit              workout.SpeedUnit `json:"unit"`
	SoundEnabled      bool              `json:"soundEnabled"`
	VibrationEnabled  bool              `json:"vibrationEnabled"`
	VoiceEnabled      bool              `json:"voiceEnabled"`
	VoiceLanguage     announce.Language `json:"voiceLanguage"`
	VoiceName         string            `json:"voiceName"`
	VoiceAnnounceTime bool              `json:"voiceAnnounceTime"`
	UserSex           workout.Sex       `json:"userSex"`
	UserWeight        float64           `json:"userWeight"`
	UserHeight        float64           `json:"userHeight"`
}

// DefaultSettings is what a fresh install starts with
func DefaultSettings() Settings {
	return Settings{
		Unit:              workout.UnitKmh,
		SoundEnabled:      true,
		VibrationEnabled:  true,
		VoiceEnabled:      true,
		VoiceLanguage:     announce.French,
		VoiceName:         "",
		VoiceAnnounceTime: true,
		UserSex:           workout.SexMale,
		UserWeight:        70,
		UserHeight:        170,
	}
}

// DecodeSettings overlays stored JSON on the defaults, so fields missing from
// older records keep their default value, then normalizes the result.
func DecodeSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return s.Normalize(), nil
}

// Encode serializes settings for storage
func (s Settings) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Normalize replaces unknown or missing values with their defaults
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.Unit != workout.UnitKmh && s.Unit != workout.UnitMph {
		s.Unit = d.Unit
	}
	if !s.VoiceLanguage.Valid() {
		s.VoiceLanguage = d.VoiceLanguage
	}
	if s.UserSex != workout.SexMale && s.UserSex != workout.SexFemale {
		s.UserSex = d.UserSex
	}
	if s.UserWeight <= 0 {
		s.UserWeight = d.UserWeight
	}
	if s.UserHeight <= 0 {
		s.UserHeight = d.UserHeight
	}
	return s
}

// Validate rejects settings a user could not have entered
func (s Settings) Validate() error {
	if s.Unit != workout.UnitKmh && s.Unit != workout.UnitMph {
		return fmt.Errorf("%w: unit %q", ErrInvalidSettings, s.Unit)
	}
	if !s.VoiceLanguage.Valid() {
		return fmt.Errorf("%w: voice language %q", ErrInvalidSettings, s.VoiceLanguage)
	}
	if s.UserSex != workout.SexMale && s.UserSex != workout.SexFemale {
		return fmt.Errorf("%w: sex %q", ErrInvalidSettings, s.UserSex)
	}
	if s.UserWeight < MinUserWeight || s.UserWeight > MaxUserWeight {
		return fmt.Errorf("%w: weight %.0f kg", ErrInvalidSettings, s.UserWeight)
	}
	if s.UserHeight < MinUserHeight || s.UserHeight > MaxUserHeight {
		return fmt.Errorf("%w: height %.0f cm", ErrInvalidSettings, s.UserHeight)
	}
	return nil
}
