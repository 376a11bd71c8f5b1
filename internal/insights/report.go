package insights

import (
	"time"

	"github.com/2beens/fitcoach/internal/health"
)

// Report is one generated insights response together with the data it was generated from.
type Report struct {
	ID        int                  `json:"id"`
	Profile   health.Profile       `json:"profile"`
	Summary   health.WeeklySummary `json:"summary"`
	Targets   health.Targets       `json:"targets"`
	Response  string               `json:"response"`
	CreatedAt time.Time            `json:"createdAt"`
}

type ReportsPage struct {
	Reports []*Report `json:"reports"`
	Total   int       `json:"total"`
}
