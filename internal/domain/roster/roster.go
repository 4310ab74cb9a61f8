// Package roster extracts the set of players present in a session log.
package roster

import (
	"slices"

	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/rules"
)

// Roster is the set of distinct player names and each player's
// first-seen session token. The display name is the durable identity;
// tokens may be recycled later in the log but the first-seen one is
// what the other extraction stages match against.
type Roster struct {
	names  []string
	tokens map[string]string
}

// Extract scans the ordered entries for "name @ id" tokens and builds
// the roster. A later occurrence of a known name with a different id
// does not overwrite the first-seen token.
func Extract(entries []model.LogEntry) *Roster {
	r := &Roster{tokens: make(map[string]string)}
	for _, e := range entries {
		for _, tok := range rules.PlayerTokens(e.Entry) {
			if _, seen := r.tokens[tok.Name]; !seen {
				r.tokens[tok.Name] = tok.ID
				r.names = append(r.names, tok.Name)
			}
		}
	}
	slices.Sort(r.names)
	return r
}

// Names returns the player display names in sorted order.
func (r *Roster) Names() []string {
	return slices.Clone(r.names)
}

// Token returns the first-seen session token for name.
func (r *Roster) Token(name string) (string, bool) {
	id, ok := r.tokens[name]
	return id, ok
}

// Size returns the number of distinct players.
func (r *Roster) Size() int {
	return len(r.names)
}
