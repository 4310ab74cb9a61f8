// Package ranking combines the hand, buy-in, and stack reconstructions
// into per-player statistics with a total rank order.
package ranking

import (
	"context"
	"slices"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/hands"
	"github.com/tablelog/pokerstats/internal/domain/ledger"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/roster"
	"github.com/tablelog/pokerstats/internal/domain/stacks"
	"github.com/tablelog/pokerstats/pkg/logger"
)

// Input bundles the upstream reconstructions the engine ranks.
type Input struct {
	Period model.Period
	Roster *roster.Roster
	Hands  *hands.Tracker
	Ledger *ledger.Ledger
	Stacks *stacks.Tracker
}

type playerState struct {
	result   model.PlayerResult
	outTime  time.Time
	outKnown bool
}

// Build computes per-player statistics and assigns ranks 1..N.
//
// Active players (final chips > 0) take the top ranks ordered by income
// descending; eliminated players follow, ordered by out time ascending.
// Ties in either group break by player name ascending, which makes the
// order a documented, deterministic contract. An eliminated player with
// no determinable out time sorts last among the eliminated.
func Build(ctx context.Context, in Input) (*model.Result, error) {
	names := in.Roster.Names()
	if len(names) == 0 {
		return nil, ErrEmptyRoster
	}

	states := make([]*playerState, 0, len(names))
	for _, name := range names {
		acct := in.Ledger.Account(name)
		chips := in.Stacks.FinalChips(name)
		out, outKnown := in.Stacks.OutTime(name)
		states = append(states, &playerState{
			result: model.PlayerResult{
				UserName:      name,
				TotalRebuyAmt: acct.TotalRebuyAmount(),
				TotalWinCnt:   in.Hands.WinCount(name),
				TotalHandCnt:  in.Hands.HandCount(name),
				TotalChip:     chips,
				TotalIncome:   chips - acct.TotalRebuyAmount(),
				RebuyCnt:      acct.RebuyCount,
			},
			outTime:  out,
			outKnown: outKnown,
		})
	}

	var active, eliminated []*playerState
	for _, s := range states {
		if s.result.TotalChip > 0 {
			active = append(active, s)
		} else {
			eliminated = append(eliminated, s)
		}
	}

	slices.SortFunc(active, func(a, b *playerState) int {
		if a.result.TotalIncome != b.result.TotalIncome {
			return b.result.TotalIncome - a.result.TotalIncome
		}
		return compareNames(a, b)
	})
	slices.SortFunc(eliminated, func(a, b *playerState) int {
		switch {
		case a.outKnown && !b.outKnown:
			return -1
		case !a.outKnown && b.outKnown:
			return 1
		case a.outKnown && b.outKnown:
			if c := a.outTime.Compare(b.outTime); c != 0 {
				return c
			}
		}
		return compareNames(a, b)
	})

	log := logger.Named("ranking")
	rank := 1
	results := make([]model.PlayerResult, 0, len(states))
	for _, s := range append(active, eliminated...) {
		s.result.Rank = rank
		log.Debug(ctx, "rank assigned",
			logger.String("player", s.result.UserName),
			logger.Int("rank", rank),
			logger.Int("income", s.result.TotalIncome),
		)
		results = append(results, s.result)
		rank++
	}

	return &model.Result{
		GamePeriod: in.Period,
		TotalHands: in.Hands.TotalHands(),
		Players:    results,
	}, nil
}

func compareNames(a, b *playerState) int {
	switch {
	case a.result.UserName < b.result.UserName:
		return -1
	case a.result.UserName > b.result.UserName:
		return 1
	default:
		return 0
	}
}
