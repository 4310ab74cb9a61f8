// Package stacks keeps each player's time-ordered chip history taken
// from full-table stack broadcasts.
package stacks

import (
	"time"

	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/roster"
	"github.com/tablelog/pokerstats/internal/domain/rules"
)

// Tracker holds per-player snapshot histories for one session.
type Tracker struct {
	history map[string][]model.StackSnapshot
	roster  *roster.Roster
	entries []model.LogEntry
}

// Track scans the ordered entries for "Player stacks:" broadcasts and
// appends one snapshot per listed player, in encounter order. Given the
// ingest ordering, encounter order is chronological.
func Track(entries []model.LogEntry, r *roster.Roster) *Tracker {
	t := &Tracker{
		history: make(map[string][]model.StackSnapshot),
		roster:  r,
		entries: entries,
	}
	for _, e := range entries {
		updates, ok := rules.StackBroadcast(e.Entry)
		if !ok {
			continue
		}
		for _, u := range updates {
			if _, known := r.Token(u.Name); !known {
				continue
			}
			t.history[u.Name] = append(t.history[u.Name], model.StackSnapshot{
				TS:    e.TS,
				Chips: u.Chips,
			})
		}
	}
	return t
}

// History returns a player's snapshots in chronological order.
func (t *Tracker) History(name string) []model.StackSnapshot {
	return t.history[name]
}

// FinalChips returns the player's last observed chip count, zero when
// no snapshot exists.
func (t *Tracker) FinalChips(name string) int {
	h := t.history[name]
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1].Chips
}

// OutTime returns the time the player went out. When the last snapshot
// shows zero chips, that snapshot's time is authoritative; otherwise
// the time of the player's last identity-matched line anywhere in the
// log stands in for it (covers disconnects without a final broadcast).
// The second return is false when no time could be determined.
func (t *Tracker) OutTime(name string) (time.Time, bool) {
	h := t.history[name]
	if len(h) > 0 && h[len(h)-1].Chips == 0 {
		return h[len(h)-1].TS, true
	}
	id, ok := t.roster.Token(name)
	if !ok {
		return time.Time{}, false
	}
	var last time.Time
	found := false
	for _, e := range t.entries {
		if rules.Mentions(e.Entry, name, id) {
			last = e.TS
			found = true
		}
	}
	return last, found
}
