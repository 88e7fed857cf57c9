package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("snapshot not found")
	ErrInvalidLimit = errors.New("invalid projection limit")
	ErrNilSnapshot  = errors.New("nil snapshot")
)
