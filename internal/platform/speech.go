package platform

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const voiceListTimeout = 5 * time.Second

// Defaults of the espeak family, scaled by Utterance rate, pitch and volume
const (
	espeakWordsPerMinute = 175
	espeakPitch          = 50
	espeakAmplitude      = 100
)

// CommandSynthesizer speaks through espeak-ng, espeak or macOS say.
// Only one utterance plays at a time.
type CommandSynthesizer struct {
	logger  *log.Logger
	command string
	say     bool
	proc    *process
}

func NewCommandSynthesizer(logger *log.Logger, command string) *CommandSynthesizer {
	if logger == nil {
		panic("CommandSynthesizer: logger cannot be nil")
	}
	return &CommandSynthesizer{
		logger:  logger,
		command: command,
		say:     filepath.Base(command) == "say",
		proc:    newProcess(logger, "Speech"),
	}
}

// Voices lists the voices the command reports
func (s *CommandSynthesizer) Voices() ([]Voice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceListTimeout)
	defer cancel()

	args := []string{"--voices"}
	if s.say {
		args = []string{"-v", "?"}
	}
	cmd := exec.CommandContext(ctx, s.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list voices: %w, stderr: %s", err, stderr.String())
	}

	if s.say {
		return parseSayVoices(stdout.String()), nil
	}
	return parseEspeakVoices(stdout.String()), nil
}

// Speak interrupts anything still playing and starts u
func (s *CommandSynthesizer) Speak(u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return nil
	}
	return s.proc.start(s.command, s.speakArgs(u)...)
}

func (s *CommandSynthesizer) Cancel() error {
	return s.proc.stop()
}

// Speaking reports whether an utterance is still playing
func (s *CommandSynthesizer) Speaking() bool {
	return s.proc.running()
}

func (s *CommandSynthesizer) speakArgs(u Utterance) []string {
	var args []string
	if s.say {
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.ID)
		}
		if u.Rate > 0 && u.Rate != 1 {
			args = append(args, "-r", strconv.Itoa(int(espeakWordsPerMinute*u.Rate)))
		}
		return append(args, u.Text)
	}

	switch {
	case u.Voice != nil:
		args = append(args, "-v", u.Voice.ID)
	case u.Lang != "":
		args = append(args, "-v", strings.ToLower(u.Lang))
	}
	if u.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(espeakWordsPerMinute*u.Rate)))
	}
	if u.Pitch > 0 {
		args = append(args, "-p", strconv.Itoa(int(espeakPitch*u.Pitch)))
	}
	if u.Volume > 0 {
		args = append(args, "-a", strconv.Itoa(int(espeakAmplitude*u.Volume)))
	}
	return append(args, u.Text)
}

// parseEspeakVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  fr-fr           --/M      French_(France)    roa/fr
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: normalizeLang(fields[1]),
		})
	}
	return voices
}

// parseSayVoices reads the listing printed by `say -v '?'`:
//
//	Amelie              fr_CA    # Bonjour, je m’appelle Amelie.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		left, _, _ := strings.Cut(line, "#")
		left = strings.TrimSpace(left)
		idx := strings.LastIndexAny(left, " \t")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(left[:idx])
		locale := left[idx+1:]
		if name == "" || !strings.ContainsAny(locale, "_-") {
			continue
		}
		voices = append(voices, Voice{ID: name, Name: name, Lang: normalizeLang(locale)})
	}
	return voices
}

// normalizeLang turns fr_ca or fr-fr into fr-CA or fr-FR
func normalizeLang(tag string) string {
	parts := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return ""
	}
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 2 {
			parts[i] = strings.ToUpper(parts[i])
		}
	}
	return strings.Join(parts, "-")
}
