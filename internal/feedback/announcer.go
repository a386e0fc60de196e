package feedback

import (
	"log"
	"strings"
	"sync"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/platform"
)

// femaleVoiceKeywords match common female voice names across platforms
var femaleVoiceKeywords = []string{
	"female", "femme", "amelie", "marie", "julie", "samantha", "victoria",
	"karen", "moira", "tessa", "fiona", "veena", "zira", "hazel", "susan", "alice",
}

// VoicesForLanguage keeps the voices whose tag starts with the language code
func VoicesForLanguage(voices []platform.Voice, lang announce.Language) []platform.Voice {
	var out []platform.Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), string(lang)) {
			out = append(out, v)
		}
	}
	return out
}

// SelectVoice picks the named voice if the language has it, else the first
// female sounding voice, else the first voice of the language. nil leaves the
// choice to the synthesizer.
func SelectVoice(voices []platform.Voice, lang announce.Language, name string) *platform.Voice {
	candidates := VoicesForLanguage(voices, lang)

	if name != "" {
		for i := range candidates {
			if candidates[i].Name == name || candidates[i].ID == name {
				return &candidates[i]
			}
		}
	}

	for i := range candidates {
		lower := strings.ToLower(candidates[i].Name)
		for _, kw := range femaleVoiceKeywords {
			if strings.Contains(lower, kw) {
				return &candidates[i]
			}
		}
	}

	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

// Announcer speaks phrases through the host synthesizer. Every utterance
// interrupts the one before it.
type Announcer struct {
	logger *log.Logger
	synth  platform.Synthesizer

	mu           sync.Mutex
	voices       []platform.Voice
	voicesLoaded bool
}

// NewAnnouncer returns an Announcer; a nil synth makes it silent
func NewAnnouncer(logger *log.Logger, synth platform.Synthesizer) *Announcer {
	if logger == nil {
		panic("Announcer: logger cannot be nil")
	}
	return &Announcer{logger: logger, synth: synth}
}

// Available reports whether the host can speak at all
func (a *Announcer) Available() bool {
	return a.synth != nil
}

// Voices returns the voices for lang, loading the catalogue on first use
func (a *Announcer) Voices(lang announce.Language) []platform.Voice {
	return VoicesForLanguage(a.allVoices(), lang)
}

func (a *Announcer) allVoices() []platform.Voice {
	if a.synth == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.voicesLoaded {
		voices, err := a.synth.Voices()
		if err != nil {
			a.logger.Printf("Announcer: Failed to list voices: %v", err)
		}
		a.voices = voices
		a.voicesLoaded = true
	}
	return a.voices
}

// Speak says text when voice is enabled in settings
func (a *Announcer) Speak(text string, settings config.Settings) {
	if a.synth == nil || !settings.VoiceEnabled || text == "" {
		return
	}
	voice := SelectVoice(a.allVoices(), settings.VoiceLanguage, settings.VoiceName)
	utterance := platform.Utterance{
		Text:   text,
		Lang:   settings.VoiceLanguage.LocaleTag(),
		Voice:  voice,
		Rate:   1,
		Pitch:  1,
		Volume: 1,
	}
	go_func_utils.SafeCall(a.logger, "Announcer", func() error {
		if err := a.synth.Cancel(); err != nil {
			a.logger.Printf("Announcer: Failed to cancel speech: %v", err)
		}
		return a.synth.Speak(utterance)
	})
}

// Speaking reports whether an utterance is still playing. Synthesizers that
// cannot tell are treated as silent.
func (a *Announcer) Speaking() bool {
	r, ok := a.synth.(platform.SpeakingReporter)
	return ok && r.Speaking()
}

// Cancel silences any utterance in progress
func (a *Announcer) Cancel() {
	if a.synth == nil {
		return
	}
	go_func_utils.SafeCall(a.logger, "Announcer", a.synth.Cancel)
}
