package model

import "time"

// RecomputeRequest asks for a fresh snapshot of one scoring format at one
// evaluation week.
type RecomputeRequest struct {
	ID          string
	Format      ScoringFormat
	Week        int
	RequestedAt time.Time
}
