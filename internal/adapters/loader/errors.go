package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNoData        = errors.New("no season data found")
	ErrReadFile      = errors.New("read data file")
)
