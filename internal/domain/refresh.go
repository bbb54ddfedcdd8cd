package domain

import "time"

// RefreshStats holds statistics about one refresh invocation.
// Reconciled is the post-skip count reported to the caller as totalCountries.
type RefreshStats struct {
	Fetched     int
	Reconciled  int
	Inserted    int
	Updated     int
	Skipped     int
	RefreshedAt time.Time
	Duration    time.Duration
}

// Status is the lightweight store summary served on /status.
type Status struct {
	TotalCountries  int        `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}
