// Package hands segments the ordered log into hands and records, per
// hand, who took part and who collected the pot.
package hands

import (
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/roster"
	"github.com/tablelog/pokerstats/internal/domain/rules"
)

// Tracker holds the reconstructed hand records of one session.
type Tracker struct {
	hands      map[string]*model.Hand
	totalHands int
}

// Track replays the ordered entries through a two-state machine: no
// active hand, and hand in progress. A hand opens on its start marker
// and closes implicitly when the next one starts or the log ends.
func Track(entries []model.LogEntry, r *roster.Roster) *Tracker {
	t := &Tracker{hands: make(map[string]*model.Hand)}
	var current *model.Hand

	for _, e := range entries {
		if number, id, ok := rules.HandStart(e.Entry); ok {
			current = model.NewHand(number, id)
			t.hands[id] = current
			// Out-of-order hand numbers are tolerated but never move
			// the running total backward.
			if number > t.totalHands {
				t.totalHands = number
			}
		}
		if current == nil {
			continue
		}
		for _, name := range r.Names() {
			id, _ := r.Token(name)
			if !rules.Mentions(e.Entry, name, id) {
				continue
			}
			current.Participants[name] = struct{}{}
			if amount, ok := rules.PotCollect(e.Entry, name, id); ok {
				current.Winners[name] = struct{}{}
				current.PotAmounts = append(current.PotAmounts, amount)
			}
		}
	}
	return t
}

// TotalHands returns the maximum hand number observed.
func (t *Tracker) TotalHands() int {
	return t.totalHands
}

// Hands returns the reconstructed hands keyed by hand id.
func (t *Tracker) Hands() map[string]*model.Hand {
	return t.hands
}

// WinCount returns the number of hands the player won, one count per
// hand regardless of how many pots they collected in it.
func (t *Tracker) WinCount(name string) int {
	n := 0
	for _, h := range t.hands {
		if _, ok := h.Winners[name]; ok {
			n++
		}
	}
	return n
}

// HandCount returns the number of hands the player took part in.
func (t *Tracker) HandCount(name string) int {
	n := 0
	for _, h := range t.hands {
		if _, ok := h.Participants[name]; ok {
			n++
		}
	}
	return n
}
