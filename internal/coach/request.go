package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/2beens/fitcoach/internal/health"
)

const maxRequestBodyBytes = 1 << 20

var errRequestTooLarge = errors.New("request body too large")

// dayEntry is one element of the tracked week as sent by the app. The profile
// fields are read from the first entry only.
type dayEntry struct {
	ActualWeight  *float64 `json:"actualWeight"`
	TargetWeight  *float64 `json:"targetWeight"`
	Age           *float64 `json:"age"`
	Height        *float64 `json:"height"`
	Gender        *string  `json:"gender"`
	ActivityLevel *string  `json:"activityLevel"`

	Calories float64 `json:"calories"`
	Water    float64 `json:"water"`
	Steps    float64 `json:"steps"`
	Sleep    float64 `json:"sleep"`
}

type weekRequest struct {
	Data []dayEntry `json:"data"`
}

type summaryResponse struct {
	Summary health.WeeklySummary `json:"summary"`
	Targets health.Targets       `json:"targets"`
}

type insightsResponse struct {
	Response string               `json:"response"`
	Summary  health.WeeklySummary `json:"summary"`
	Targets  health.Targets       `json:"targets"`
}

// parseWeekRequest decodes the payload into a profile and the daily metrics.
// Malformed payloads are reported as health.ErrInvalidInput.
func parseWeekRequest(body io.Reader) (health.Profile, []health.DailyMetrics, error) {
	var req weekRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return health.Profile{}, nil, fmt.Errorf("%w: limit is %d bytes", errRequestTooLarge, maxBytesErr.Limit)
		}
		return health.Profile{}, nil, fmt.Errorf("%w: decode request: %s", health.ErrInvalidInput, err)
	}
	if len(req.Data) == 0 {
		return health.Profile{}, nil, fmt.Errorf("%w: data must not be empty", health.ErrInvalidInput)
	}

	profile, err := req.Data[0].profile()
	if err != nil {
		return health.Profile{}, nil, err
	}

	week := make([]health.DailyMetrics, len(req.Data))
	for i, entry := range req.Data {
		if !isWhole(entry.Steps) {
			return health.Profile{}, nil, fmt.Errorf("%w: day %d: steps must be a whole number, got %v", health.ErrInvalidInput, i+1, entry.Steps)
		}
		week[i] = health.DailyMetrics{
			Calories:   entry.Calories,
			WaterCups:  entry.Water,
			Steps:      int(entry.Steps),
			SleepHours: entry.Sleep,
		}
	}

	return profile, week, nil
}

func (e dayEntry) profile() (health.Profile, error) {
	var missing []string
	if e.ActualWeight == nil {
		missing = append(missing, "actualWeight")
	}
	if e.TargetWeight == nil {
		missing = append(missing, "targetWeight")
	}
	if e.Age == nil {
		missing = append(missing, "age")
	}
	if e.Height == nil {
		missing = append(missing, "height")
	}
	if e.Gender == nil {
		missing = append(missing, "gender")
	}
	if e.ActivityLevel == nil {
		missing = append(missing, "activityLevel")
	}
	if len(missing) > 0 {
		return health.Profile{}, fmt.Errorf("%w: missing profile fields %v", health.ErrInvalidInput, missing)
	}

	if !isWhole(*e.Age) {
		return health.Profile{}, fmt.Errorf("%w: age must be a whole number, got %v", health.ErrInvalidInput, *e.Age)
	}

	gender, ok := health.ParseGender(*e.Gender)
	if !ok {
		return health.Profile{}, fmt.Errorf("%w: gender must be set", health.ErrInvalidInput)
	}

	return health.Profile{
		ActualWeight:  *e.ActualWeight,
		TargetWeight:  *e.TargetWeight,
		Age:           int(*e.Age),
		Height:        *e.Height,
		Gender:        gender,
		ActivityLevel: health.ActivityLevel(*e.ActivityLevel),
	}, nil
}

func isWhole(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}
