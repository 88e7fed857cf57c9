package accuracy

import "errors"

// Sentinel kinds for accuracy configuration errors.
var (
	ErrInvalidAnchors = errors.New("invalid grade anchors")
)
