package health

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

const (
	MetricCalories = "calories"
	MetricWater    = "water"
	MetricSteps    = "steps"
	MetricSleep    = "sleep"
)

const (
	recommendedSleepMin = 6
	recommendedSleepMax = 8

	calorieAdjustment = 400
)

// ComputeSummary averages the tracked week and derives the daily targets for the profile.
// It is a pure function and safe to call concurrently.
func ComputeSummary(profile Profile, week []DailyMetrics) (WeeklySummary, Targets, error) {
	if err := validate(profile, week); err != nil {
		return WeeklySummary{}, Targets{}, err
	}

	summary, err := weeklyAverages(week)
	if err != nil {
		return WeeklySummary{}, Targets{}, err
	}

	bmr := BMR(profile)
	steps, adjustment := StepsAndCalorieAdjustment(profile.ActualWeight, profile.TargetWeight)

	targets := Targets{
		BMR:           bmr,
		Calories:      bmr*profile.ActivityLevel.Multiplier() + adjustment,
		Steps:         steps,
		WaterLiters:   WaterTarget(profile.Age),
		SleepHoursMin: recommendedSleepMin,
		SleepHoursMax: recommendedSleepMax,
	}

	return summary, targets, nil
}

// BMR estimates the basal metabolic rate (kcal/day) with the revised Harris-Benedict equations.
func BMR(p Profile) float64 {
	age := float64(p.Age)
	if p.Gender == GenderMale {
		return 88.362 + 13.397*p.ActualWeight + 4.799*p.Height - 5.677*age
	}
	return 447.593 + 9.247*p.ActualWeight + 3.098*p.Height - 4.330*age
}

// WaterTarget returns the recommended daily water intake in liters for the given age.
func WaterTarget(age int) float64 {
	switch {
	case age >= 9 && age <= 13:
		return 1.89
	case age >= 14 && age <= 18:
		return 2.6
	default:
		return 3.5
	}
}

// StepsAndCalorieAdjustment returns the daily step target and the calorie
// delta to apply, based only on the direction of the weight goal.
func StepsAndCalorieAdjustment(actualWeight, targetWeight float64) (int, float64) {
	switch {
	case targetWeight < actualWeight:
		return 10000, -calorieAdjustment
	case targetWeight == actualWeight:
		return 8000, 0
	default:
		return 7500, calorieAdjustment
	}
}

func weeklyAverages(week []DailyMetrics) (WeeklySummary, error) {
	var calories, water, steps, sleep nonZeroMean
	for _, day := range week {
		calories.add(day.Calories)
		water.add(day.WaterCups * litersPerCup)
		steps.add(float64(day.Steps))
		sleep.add(day.SleepHours)
	}

	var missing []string
	for _, m := range []struct {
		name string
		mean nonZeroMean
	}{
		{MetricCalories, calories},
		{MetricWater, water},
		{MetricSteps, steps},
		{MetricSleep, sleep},
	} {
		if m.mean.count == 0 {
			missing = append(missing, m.name)
		}
	}
	if len(missing) > 0 {
		return WeeklySummary{}, &InsufficientDataError{Metrics: missing}
	}

	return WeeklySummary{
		AvgCalories:    calories.value(),
		AvgWaterLiters: water.value(),
		AvgSteps:       steps.value(),
		AvgSleepHours:  sleep.value(),
	}, nil
}

// nonZeroMean accumulates only recorded (non-zero) values.
type nonZeroMean struct {
	sum   float64
	count int
}

func (m *nonZeroMean) add(v float64) {
	if v == 0 {
		return
	}
	m.sum += v
	m.count++
}

func (m nonZeroMean) value() float64 {
	return m.sum / float64(m.count)
}

func validate(p Profile, week []DailyMetrics) error {
	var errs error
	if p.ActualWeight <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("actual weight must be positive, got %v", p.ActualWeight))
	}
	if p.TargetWeight <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("target weight must be positive, got %v", p.TargetWeight))
	}
	if p.Height <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("height must be positive, got %v", p.Height))
	}
	if p.Age < 0 {
		errs = multierr.Append(errs, fmt.Errorf("age must not be negative, got %d", p.Age))
	}
	if p.Gender != GenderMale && p.Gender != GenderOther {
		errs = multierr.Append(errs, fmt.Errorf("unknown gender [%s]", p.Gender))
	}
	if strings.TrimSpace(string(p.ActivityLevel)) == "" {
		errs = multierr.Append(errs, fmt.Errorf("activity level missing"))
	}

	if len(week) != DaysInWeek {
		errs = multierr.Append(errs, fmt.Errorf("expected %d daily entries, got %d", DaysInWeek, len(week)))
	}
	for i, day := range week {
		if day.Calories < 0 || day.WaterCups < 0 || day.Steps < 0 || day.SleepHours < 0 {
			errs = multierr.Append(errs, fmt.Errorf("day %d: metrics must not be negative", i+1))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errs)
	}
	return nil
}
