package prize

import "errors"

// Sentinel kinds for prize allocation errors.
var (
	ErrNoPlayers = errors.New("prize allocation needs at least one player")
)
