package workout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SpeedUnit is the unit system used to display and enter speeds
type SpeedUnit string

const (
	UnitKmh SpeedUnit = "kmh"
	UnitMph SpeedUnit = "mph"
)

const (
	kmhToMph = 0.621371
	mphToKmh = 1.60934
)

// FormatTime renders seconds as H:MM:SS, or M:SS under an hour
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hrs := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatTimeShort renders seconds compactly: 1h30m, 1h, 5m30s, 5m
func FormatTimeShort(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := seconds / 60
	secs := seconds % 60
	if mins >= 60 {
		hrs := mins / 60
		rem := mins % 60
		if rem > 0 {
			return fmt.Sprintf("%dh%dm", hrs, rem)
		}
		return fmt.Sprintf("%dh", hrs)
	}
	if secs > 0 {
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	return fmt.Sprintf("%dm", mins)
}

// ParseTimeInput parses MM:SS or HH:MM:SS into seconds. Anything else yields 0.
func ParseTimeInput(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}
	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}
}

// ConvertSpeed converts between km/h and mph, rounded to one decimal
func ConvertSpeed(speed float64, from, to SpeedUnit) float64 {
	if from == to {
		return speed
	}
	switch {
	case from == UnitKmh && to == UnitMph:
		return math.Round(speed*kmhToMph*10) / 10
	case from == UnitMph && to == UnitKmh:
		return math.Round(speed*mphToKmh*10) / 10
	default:
		return speed
	}
}

// SpeedUnitLabel is the display suffix for a unit
func SpeedUnitLabel(unit SpeedUnit) string {
	if unit == UnitMph {
		return "mph"
	}
	return "km/h"
}

// FormatSpeed renders a speed the way it is spoken and displayed: 4, 5.5
func FormatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64)
}
