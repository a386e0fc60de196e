package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lowaak/treadmill-timer/internal/workout"
)

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		lang    Language
		want    string
	}{
		{300, French, "5 minutes restantes"},
		{240, English, "4 minutes remaining"},
		{60, French, "1 minute restante"},
		{60, English, "1 minute remaining"},
		{30, French, "30 secondes restantes"},
		{30, English, "30 seconds remaining"},
	}
	for _, tt := range tests {
		got, ok := TimeRemaining(tt.seconds, tt.lang)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	for _, s := range []int{301, 299, 90, 45, 10, 0} {
		_, ok := TimeRemaining(s, English)
		assert.False(t, ok, "seconds=%d", s)
	}
}

func TestCountdown(t *testing.T) {
	got, ok := Countdown(5, French)
	assert.True(t, ok)
	assert.Equal(t, "Changement dans 5", got)

	got, ok = Countdown(5, English)
	assert.True(t, ok)
	assert.Equal(t, "Change in 5", got)

	got, ok = Countdown(3, English)
	assert.True(t, ok)
	assert.Equal(t, "3", got)

	_, ok = Countdown(0, English)
	assert.False(t, ok)
	_, ok = Countdown(6, English)
	assert.False(t, ok)
}

func TestIntervalPhrases(t *testing.T) {
	in := workout.Interval{Name: "Marche rapide", Speed: 5.5, Incline: 2}

	assert.Equal(t, "Marche rapide. Vitesse 5.5. Inclinaison 2 pourcent.", IntervalChange(in, French))
	assert.Equal(t, "Marche rapide. Speed 5.5. Incline 2 percent.", IntervalChange(in, English))
	assert.Equal(t, "C'est parti! Marche rapide. Vitesse 5.5. Inclinaison 2 pourcent.", WorkoutStart(in, French))
	assert.Equal(t, "Let's go! Marche rapide. Speed 5.5. Incline 2 percent.", WorkoutStart(in, English))
}

func TestStatusPhrases(t *testing.T) {
	assert.Equal(t, "Pause", Pause(French))
	assert.Equal(t, "Paused", Pause(English))
	assert.Equal(t, "On reprend!", Resume(French))
	assert.Equal(t, "Let's continue!", Resume(English))
	assert.Equal(t, "Bravo! Entraînement terminé!", Complete(French))
	assert.Equal(t, "Great job! Workout complete!", Complete(English))
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "fr-FR", French.LocaleTag())
	assert.Equal(t, "en-US", English.LocaleTag())
	assert.True(t, French.Valid())
	assert.False(t, Language("de").Valid())
	assert.Equal(t, "Paused", Pause(Language("de")))
}
