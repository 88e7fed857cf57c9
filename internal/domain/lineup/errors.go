package lineup

import "errors"

var (
	// ErrInvalidSlots is returned for negative, oversized or empty slot counts.
	ErrInvalidSlots = errors.New("invalid lineup slots")
	// ErrEmptyRoster is returned for a lineup request without players.
	ErrEmptyRoster = errors.New("lineup roster is empty")
)
