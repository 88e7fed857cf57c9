package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrNoDataset is returned by Start when neither a dataset nor a loader
	// was configured.
	ErrNoDataset = errors.New("no dataset or loader configured")
)
