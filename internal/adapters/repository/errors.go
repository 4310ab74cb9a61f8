package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("game not found")
	ErrDuplicateGame = errors.New("game already stored")
)
