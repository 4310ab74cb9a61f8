package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrEmptyRoster = errors.New("no players extracted from log")
)
