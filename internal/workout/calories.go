package workout

import "math"

// Sex is the calorie model input that scales energy expenditure
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

const femaleCalorieFactor = 0.9

// MET estimates the metabolic equivalent for walking or running at speed on the given incline.
// The explicit float64 conversions keep the products from being fused on architectures with FMA.
func MET(speed, incline float64) float64 {
	var met float64
	switch {
	case speed < 5:
		met = 2.5 + float64(0.3*speed)
	case speed < 8:
		met = 6 + float64(1.5*(speed-5))
	default:
		met = 10 + float64(1*(speed-8))
	}
	return met + float64(0.5*incline)
}

// CalculateCalories estimates kcal burned over the intervals, rounded to the nearest integer
func CalculateCalories(intervals []Interval, weightKg float64, sex Sex) int {
	var total float64
	for _, in := range intervals {
		hours := float64(in.Duration) / 3600
		total += float64(MET(in.Speed, in.Incline) * weightKg * hours)
	}
	if sex == SexFemale {
		total *= femaleCalorieFactor
	}
	if total < 0 {
		return 0
	}
	return int(math.Round(total))
}

// ProgramCalories estimates a full run: one sequence, rounded, then scaled by the repeat count
func ProgramCalories(p Program, weightKg float64, sex Sex) int {
	return CalculateCalories(p.Intervals, weightKg, sex) * p.RepeatCount
}
