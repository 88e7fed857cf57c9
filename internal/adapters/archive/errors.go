package archive

import "errors"

var (
	// ErrArchiveClosed is returned by operations on a closed archive.
	ErrArchiveClosed = errors.New("archive is closed")
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")
	// ErrEmptyPath is returned when Open is called without a database path.
	ErrEmptyPath = errors.New("archive path is empty")
	// ErrNilSnapshot is returned when Save receives nil.
	ErrNilSnapshot = errors.New("snapshot is nil")
)
