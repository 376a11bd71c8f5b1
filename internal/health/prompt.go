package health

import (
	"fmt"
)

// InsightsPrompt renders the weekly summary and the targets into the
// question sent to the text generation model.
func InsightsPrompt(summary WeeklySummary, targets Targets) string {
	return fmt.Sprintf(
		"Give me insights for these: My 7 days average data is as follows: "+
			"Average calories taken %.0f, Average sleep taken %.1f hours, Average steps taken %.0f, Average water intake %.2f litres. "+
			"Recommended data to achieve my goal for a day is as follows:\n"+
			"Calories taken %.0f, Sleep to be taken %.0f hours to %.0f hours, Steps to be taken %d, Water intake should be %.2f litres. "+
			"Provide me insights for each data, what things I need to improve in each data. "+
			"Give me an overall rating as good, better, best, bad, very bad. "+
			"Use a natural tone and provide motivation to do things.",
		summary.AvgCalories, summary.AvgSleepHours, summary.AvgSteps, summary.AvgWaterLiters,
		targets.Calories, targets.SleepHoursMin, targets.SleepHoursMax, targets.Steps, targets.WaterLiters,
	)
}
