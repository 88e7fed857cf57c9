package types

import "errors"

// Error kinds shared between the service and its transports.
var (
	ErrNotFound     = errors.New("not found")
	ErrNoData       = errors.New("no data")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("unavailable")
)
