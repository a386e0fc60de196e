package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, workout.UnitKmh, s.Unit)
	assert.True(t, s.SoundEnabled)
	assert.True(t, s.VibrationEnabled)
	assert.True(t, s.VoiceEnabled)
	assert.Equal(t, announce.French, s.VoiceLanguage)
	assert.Empty(t, s.VoiceName)
	assert.True(t, s.VoiceAnnounceTime)
	assert.Equal(t, workout.SexMale, s.UserSex)
	assert.Equal(t, 70.0, s.UserWeight)
	assert.Equal(t, 170.0, s.UserHeight)
	assert.NoError(t, s.Validate())
}

func TestDecodeSettings_KeepsDefaultsForMissingFields(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"unit":"mph","soundEnabled":false,"userWeight":82}`))
	require.NoError(t, err)

	assert.Equal(t, workout.UnitMph, s.Unit)
	assert.False(t, s.SoundEnabled)
	assert.Equal(t, 82.0, s.UserWeight)
	assert.True(t, s.VoiceEnabled)
	assert.Equal(t, announce.French, s.VoiceLanguage)
	assert.Equal(t, 170.0, s.UserHeight)
}

func TestDecodeSettings_NormalizesUnknownValues(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"unit":"knots","voiceLanguage":"de","userSex":"","userWeight":0}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestDecodeSettings_Empty(t *testing.T) {
	s, err := DecodeSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	_, err = DecodeSettings([]byte(`{`))
	assert.Error(t, err)
}

func TestSettings_EncodeDecode(t *testing.T) {
	s := DefaultSettings()
	s.VoiceLanguage = announce.English
	s.VoiceName = "Samantha"
	s.VoiceAnnounceTime = false

	raw, err := s.Encode()
	require.NoError(t, err)
	got, err := DecodeSettings(raw)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	s.UserWeight = 10
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)

	s = DefaultSettings()
	s.UserHeight = 300
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)

	s = DefaultSettings()
	s.VoiceLanguage = "es"
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)

	s = DefaultSettings()
	s.Unit = "knots"
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
}
