package ui

import (
	"fmt"
	"strings"

	"github.com/lowaak/treadmill-timer/internal/announce"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/store"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

const (
	progressBarWidth = 30
	historyTimeFmt   = "2006-01-02 15:04"
)

// formatProgramSecondary is the one-line summary shown under a program name
func formatProgramSecondary(p workout.Program) string {
	return fmt.Sprintf("%d intervals x%d | %s", len(p.Intervals), p.RepeatCount, workout.FormatTimeShort(p.TotalDuration()))
}

// formatProgramDetails renders the details panel for a program
func formatProgramDetails(p workout.Program, settings config.Settings) string {
	unit := workout.SpeedUnitLabel(settings.Unit)

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", p.Name)
	fmt.Fprintf(&b, "  [gray]Duration:[white] %s\n", workout.FormatTime(p.TotalDuration()))
	fmt.Fprintf(&b, "  [gray]Repeats:[white]  %d\n", p.RepeatCount)
	fmt.Fprintf(&b, "  [gray]Calories:[white] ~%d kcal\n\n", workout.ProgramCalories(p, settings.UserWeight, settings.UserSex))

	if len(p.Intervals) == 0 {
		b.WriteString("  [gray]No intervals[white]\n")
		return b.String()
	}

	b.WriteString("  [gray]Intervals:[white]\n")
	for i, in := range p.Intervals {
		fmt.Fprintf(&b, "    %d. %s  %s @ %s %s, %s%%\n",
			i+1, in.Name, workout.FormatTime(in.Duration), workout.FormatSpeed(in.Speed), unit, workout.FormatSpeed(in.Incline))
	}
	b.WriteString("\n  [green]Press Enter to start this program[white]\n")
	return b.String()
}

// formatWorkoutDisplay renders the dashboard for a timer snapshot
func formatWorkoutDisplay(snap timer.Snapshot, settings config.Settings) string {
	if snap.Phase == timer.PhaseIdle {
		return "\n  [gray]No workout running[white]\n\n" +
			"  Pick a program in Programs mode (press 1), then press Enter,\n" +
			"  or press [yellow]Space[white] to start the selected one.\n"
	}

	unit := workout.SpeedUnitLabel(settings.Unit)
	var b strings.Builder
	b.WriteString("\n")

	switch snap.Phase {
	case timer.PhasePaused:
		fmt.Fprintf(&b, "  [yellow]%s[white] [gray](PAUSED)[white]\n\n", snap.Program.Name)
	case timer.PhaseComplete:
		fmt.Fprintf(&b, "  [yellow]%s[white] [green](COMPLETE)[white]\n\n", snap.Program.Name)
	default:
		fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", snap.Program.Name)
	}

	if snap.Phase == timer.PhaseComplete {
		fmt.Fprintf(&b, "  [gray]Elapsed:[white]  %s\n", workout.FormatTime(snap.Elapsed))
		b.WriteString("\n  [gray]Press[white] [yellow]Space[white] [gray]to run it again[white]\n")
		return b.String()
	}

	if in, ok := snap.CurrentInterval(); ok {
		fmt.Fprintf(&b, "  [cyan]%s[white] (%d/%d, repeat %d/%d)\n",
			in.Name, snap.IntervalIndex+1, len(snap.Program.Intervals), snap.Repeat, snap.Program.RepeatCount)
		fmt.Fprintf(&b, "  [white::b]%s[white::-]\n", workout.FormatTime(snap.TimeRemaining))
		fmt.Fprintf(&b, "  %s\n\n", progressBar(snap.IntervalProgress(), progressBarWidth))
		fmt.Fprintf(&b, "  [gray]Speed:[white]   [yellow]%s[white] %s\n", workout.FormatSpeed(in.Speed), unit)
		fmt.Fprintf(&b, "  [gray]Incline:[white] [yellow]%s[white]%%\n\n", workout.FormatSpeed(in.Incline))
	}

	fmt.Fprintf(&b, "  [gray]Elapsed:[white]   %s\n", workout.FormatTime(snap.Elapsed))
	fmt.Fprintf(&b, "  [gray]Remaining:[white] %s\n", workout.FormatTime(snap.TotalTimeRemaining))
	fmt.Fprintf(&b, "  %s\n", progressBar(snap.TotalProgress(), progressBarWidth))

	if next, ok := snap.NextInterval(); ok {
		fmt.Fprintf(&b, "\n  [gray]Next:[white] %s, %s @ %s %s, %s%%\n",
			next.Name, workout.FormatTime(next.Duration), workout.FormatSpeed(next.Speed), unit, workout.FormatSpeed(next.Incline))
	} else {
		b.WriteString("\n  [gray]Next:[white] [green]Finish![white]\n")
	}

	b.WriteString("\n  [gray]─────────────────────────[white]\n")
	if snap.Phase == timer.PhasePaused {
		b.WriteString("  [yellow]Space[white] Resume")
	} else {
		b.WriteString("  [yellow]Space[white] Pause")
	}
	b.WriteString("  |  [yellow]N[white] Next  |  [yellow]P[white] Previous\n")
	b.WriteString("  [yellow]S[white] Stop and save  |  [yellow]X[white] Discard\n")
	return b.String()
}

// formatTreadmillDisplay renders the live treadmill panel
func formatTreadmillDisplay(state TreadmillState, settings config.Settings) string {
	if state.Address == "" {
		return "\n  [gray]No treadmill configured[white]\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	if state.ControlAcquired {
		fmt.Fprintf(&b, "  [green]●[white] %s [gray](control)[white]\n\n", state.Address)
	} else {
		fmt.Fprintf(&b, "  [yellow]●[white] %s [gray](no control)[white]\n\n", state.Address)
	}

	if !state.HasData {
		b.WriteString("  [gray]Waiting for data...[white]\n")
		return b.String()
	}

	d := state.Data
	if d.HasInstantaneousSpeed {
		speed := workout.ConvertSpeed(d.InstantaneousSpeedKmh, workout.UnitKmh, settings.Unit)
		fmt.Fprintf(&b, "  [gray]Speed:[white]    [yellow]%.1f[white] %s\n", speed, workout.SpeedUnitLabel(settings.Unit))
	}
	if d.HasInclination {
		fmt.Fprintf(&b, "  [gray]Incline:[white]  [yellow]%.1f[white]%%\n", d.InclinationPercent)
	}
	if d.HasTotalDistance {
		if d.TotalDistanceMeters >= 1000 {
			fmt.Fprintf(&b, "  [gray]Distance:[white] [yellow]%.2f[white] km\n", float64(d.TotalDistanceMeters)/1000)
		} else {
			fmt.Fprintf(&b, "  [gray]Distance:[white] [yellow]%d[white] m\n", d.TotalDistanceMeters)
		}
	}
	if d.HasElapsedTime {
		fmt.Fprintf(&b, "  [gray]Elapsed:[white]  [yellow]%s[white]\n", workout.FormatTime(int(d.ElapsedTimeSeconds)))
	}
	if d.HasHeartRate && d.HeartRateBpm > 0 {
		fmt.Fprintf(&b, "  [red]♥[white] [yellow]%d[white] bpm\n", d.HeartRateBpm)
	}
	if d.HasExpendedEnergy {
		fmt.Fprintf(&b, "  [gray]Energy:[white]   [yellow]%d[white] kcal\n", d.TotalEnergyKcal)
	}
	return b.String()
}

// formatHistoryEntry is one line of the history list
func formatHistoryEntry(e store.HistoryEntry) string {
	status := "[yellow]stopped[white]"
	if e.Completed {
		status = "[green]done[white]"
	}
	return fmt.Sprintf("%s  %-20s %8s  %4d kcal  %s",
		e.RecordedAt.Local().Format(historyTimeFmt), e.ProgramName, workout.FormatTime(e.Duration), e.Calories, status)
}

// formatHistory renders the history panel
func formatHistory(entries []store.HistoryEntry) string {
	if len(entries) == 0 {
		return "\n  [gray]No workouts saved yet[white]\n"
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString("  ")
		b.WriteString(formatHistoryEntry(e))
		b.WriteString("\n")
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "[green]on[white]"
	}
	return "[gray]off[white]"
}

func languageName(lang announce.Language) string {
	if lang == announce.English {
		return "English"
	}
	return "Français"
}

// formatSettings renders the settings panel with the key for each entry
func formatSettings(s config.Settings) string {
	voice := s.VoiceName
	if voice == "" {
		voice = "automatic"
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  [yellow]%c[white]  Unit:               %s\n", KeyToggleUnit, workout.SpeedUnitLabel(s.Unit))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Sound:              %s\n", KeyToggleSound, onOff(s.SoundEnabled))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Vibration:          %s\n", KeyToggleVibration, onOff(s.VibrationEnabled))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Voice:              %s\n", KeyToggleVoice, onOff(s.VoiceEnabled))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Language:           %s\n", KeyToggleLanguage, languageName(s.VoiceLanguage))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Voice name:         %s\n", KeyCycleVoice, voice)
	fmt.Fprintf(&b, "  [yellow]%c[white]  Time announcements: %s\n\n", KeyToggleTime, onOff(s.VoiceAnnounceTime))
	fmt.Fprintf(&b, "  [yellow]%c[white]  Sex:                %s\n", KeyToggleSex, s.UserSex)
	fmt.Fprintf(&b, "  [yellow]%c%c[white] Weight:             %.0f kg\n", KeyWeightDown, KeyWeightUp, s.UserWeight)
	fmt.Fprintf(&b, "  [yellow]%c%c[white] Height:             %.0f cm\n\n", KeyHeightDown, KeyHeightUp, s.UserHeight)
	fmt.Fprintf(&b, "  [yellow]%c[white]  Preview interval change cue\n", KeyPreviewCue)
	return b.String()
}

// progressBar draws pct (0 to 100) as a bar of width cells
func progressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return "[green]" + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[white]" +
		fmt.Sprintf(" %3.0f%%", pct)
}
