package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds for model parsing errors.
var (
	ErrUnknownFormat   = errors.New("unknown scoring format")
	ErrUnknownPosition = errors.New("unknown position")
	ErrInvalidWeek     = errors.New("invalid week")
)

// CheckWeek reports whether week is inside the regular season.
func CheckWeek(week int) error {
	if week < FirstWeek || week > LastWeek {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidWeek, week, FirstWeek, LastWeek)
	}
	return nil
}
