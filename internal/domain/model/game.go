// Package model contains domain models passed between layers.
package model

import "time"

// LogEntry is one raw line of a PokerNow session log after timestamp
// parsing. Entries are immutable once produced by the ingest stage.
type LogEntry struct {
	Entry string    // raw free-text line
	TS    time.Time // parsed timestamp; zero value when the source string was malformed
	Order int       // original sequence index, tie-break for identical timestamps
}

// Hand is a single dealt hand reconstructed from the log.
type Hand struct {
	Number       int    // sequential hand number as announced by the log
	ID           string // opaque hand identifier from the start marker
	Participants map[string]struct{}
	Winners      map[string]struct{}
	PotAmounts   []int
}

// NewHand returns an open Hand with empty participant and winner sets.
func NewHand(number int, id string) *Hand {
	return &Hand{
		Number:       number,
		ID:           id,
		Participants: make(map[string]struct{}),
		Winners:      make(map[string]struct{}),
		PotAmounts:   []int{},
	}
}

// BuyinEvent is one admin-approved stake event for a player. The first
// event per player is the initial buy-in, every later one a rebuy.
type BuyinEvent struct {
	TS     time.Time
	Amount int
}

// StackSnapshot is a player's chip count taken from a full-table
// "Player stacks:" broadcast.
type StackSnapshot struct {
	TS    time.Time
	Chips int
}

// Period is the span between the first and last log entries.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PlayerResult is the per-player statistical record for one session.
type PlayerResult struct {
	UserName      string `json:"user_name"`
	Rank          int    `json:"rank"`
	TotalRebuyAmt int    `json:"total_rebuy_amt"`
	TotalWinCnt   int    `json:"total_win_cnt"`
	TotalHandCnt  int    `json:"total_hand_cnt"`
	TotalChip     int    `json:"total_chip"`
	TotalIncome   int    `json:"total_income"`
	RebuyCnt      int    `json:"rebuy_cnt"`
}

// Result is the complete reconstructed record for one session log,
// players ordered by rank.
type Result struct {
	GamePeriod Period         `json:"game_period"`
	TotalHands int            `json:"total_hands"`
	Players    []PlayerResult `json:"players"`
}

// PrizeRow is one rank's share of the prize pool, with the fee the
// player at that rank owes.
type PrizeRow struct {
	Rank       int     `json:"rank"`
	Percentage float64 `json:"prize_percentage"`
	Amount     int     `json:"prize_amount"`
	FeeTotal   int     `json:"fee_total"`
}

// PrizeTable is the full pool distribution, rows ordered by rank.
type PrizeTable struct {
	Pool int        `json:"total_prize_pool"`
	Rows []PrizeRow `json:"rows"`
}
