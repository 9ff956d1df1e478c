package schema

import "time"

// Report composes one run's artifacts. It is a view over the pipeline
// outputs, not a separately owned object.
type Report struct {
	GeneratedAt     string          `json:"generated_at"`
	MarketDate      string          `json:"market_date"`
	Snapshot        Snapshot        `json:"snapshot"`
	Stances         []Stance        `json:"stances"`
	CommitteeResult CommitteeResult `json:"committee_result"`
}

// BuildReport assembles a report with a UTC generation timestamp.
func BuildReport(marketDate string, snapshot Snapshot, stances []Stance, result CommitteeResult) Report {
	return Report{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		MarketDate:      marketDate,
		Snapshot:        snapshot,
		Stances:         stances,
		CommitteeResult: result,
	}
}
