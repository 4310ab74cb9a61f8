package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	ErrUnreadable = errors.New("log input unreadable")
	ErrNoRecords  = errors.New("log contains no usable records")
)
