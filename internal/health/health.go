package health

import (
	"strings"
)

// DaysInWeek is the number of daily entries a summary is computed from.
const DaysInWeek = 7

// litersPerCup converts the tracked water cups into liters.
const litersPerCup = 0.25

// DailyMetrics holds one tracked day. Zero means "not tracked" for every metric.
type DailyMetrics struct {
	Calories   float64 `json:"calories"`
	WaterCups  float64 `json:"water"`
	Steps      int     `json:"steps"`
	SleepHours float64 `json:"sleep"`
}

type Gender string

const (
	GenderMale  Gender = "Male"
	GenderOther Gender = "Other"
)

// ParseGender maps any non-empty value other than male to GenderOther,
// since the BMR formula only distinguishes the two.
func ParseGender(s string) (Gender, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", false
	case strings.EqualFold(s, string(GenderMale)):
		return GenderMale, true
	default:
		return GenderOther, true
	}
}

type ActivityLevel string

const (
	ActivitySedentary     ActivityLevel = "sedentary"
	ActivityLightlyActive ActivityLevel = "lightly active"
)

// Multiplier returns the factor applied to BMR for this activity level.
// Every level other than sedentary and lightly active counts as active.
func (a ActivityLevel) Multiplier() float64 {
	switch ActivityLevel(strings.ToLower(strings.TrimSpace(string(a)))) {
	case ActivitySedentary:
		return 1.2
	case ActivityLightlyActive:
		return 1.375
	default:
		return 1.55
	}
}

type Profile struct {
	ActualWeight  float64       `json:"actualWeight"`
	TargetWeight  float64       `json:"targetWeight"`
	Age           int           `json:"age"`
	Height        float64       `json:"height"`
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
}

// WeeklySummary holds the non-zero-day averages of a tracked week.
type WeeklySummary struct {
	AvgCalories    float64 `json:"avgCalories"`
	AvgWaterLiters float64 `json:"avgWaterLiters"`
	AvgSteps       float64 `json:"avgSteps"`
	AvgSleepHours  float64 `json:"avgSleepHours"`
}

// Targets are the recommended daily values for reaching the target weight.
type Targets struct {
	BMR           float64 `json:"bmr"`
	Calories      float64 `json:"calories"`
	Steps         int     `json:"steps"`
	WaterLiters   float64 `json:"waterLiters"`
	SleepHoursMin float64 `json:"sleepHoursMin"`
	SleepHoursMax float64 `json:"sleepHoursMax"`
}
