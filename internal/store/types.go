package store

import "time"

// Scan is one recorded run of the checks.
type Scan struct {
	ID        int64
	CreatedAt time.Time
	Repo      string
	Upstream  string
	Packages  int
	Errors    int
	Warnings  int
}

// FindingRow is one persisted finding, denormalized for display.
type FindingRow struct {
	ScanID   int64
	Kind     string
	Severity string
	Target   string
	Message  string
}
