// Package prize computes the prize-pool distribution from final
// session statistics and the table's fee rules.
package prize

import (
	"context"
	"math"

	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/pkg/logger"
)

// Default fee rules, in won.
const (
	defaultEntryFee   = 5000
	defaultFreeRebuys = 2
	defaultRebuyFee   = 5000
)

// Rules are the fee parameters that build the pool.
type Rules struct {
	EntryFee   int
	FreeRebuys int
	RebuyFee   int
}

// DefaultRules returns the standard table fees.
func DefaultRules() Rules {
	return Rules{
		EntryFee:   defaultEntryFee,
		FreeRebuys: defaultFreeRebuys,
		RebuyFee:   defaultRebuyFee,
	}
}

// PlayerFee returns the total fee owed for the given rebuy count: the
// flat entry fee plus a per-rebuy charge beyond the free allowance.
func (r Rules) PlayerFee(rebuyCount int) int {
	extra := rebuyCount - r.FreeRebuys
	if extra < 0 {
		extra = 0
	}
	return r.EntryFee + extra*r.RebuyFee
}

// Allocate distributes the pool over ranks.
//
// Percentages form a strictly decreasing arithmetic sequence with the
// last rank fixed at 0%; the common difference 200/(N*(N-1)) makes the
// exact sequence sum to 100. After rounding each percentage to two
// decimals, any residual is folded into rank 1. Amounts for ranks 2..N
// are truncated down to the nearest 100 won and rank 1 takes whatever
// remains, so the distributed total always equals the pool exactly.
func Allocate(ctx context.Context, players []model.PlayerResult, rules Rules) (*model.PrizeTable, error) {
	n := len(players)
	if n == 0 {
		return nil, ErrNoPlayers
	}

	byRank := make(map[int]model.PlayerResult, n)
	pool := 0
	for _, p := range players {
		byRank[p.Rank] = p
		pool += rules.PlayerFee(p.RebuyCnt)
	}

	log := logger.Named("prize")
	if n == 1 {
		log.Debug(ctx, "single-player pool", logger.Int("pool", pool))
		return &model.PrizeTable{
			Pool: pool,
			Rows: []model.PrizeRow{{
				Rank:       1,
				Percentage: 100.0,
				Amount:     pool,
				FeeTotal:   rules.PlayerFee(byRank[1].RebuyCnt),
			}},
		}, nil
	}

	commonDiff := 200.0 / float64(n*(n-1))
	percentages := make(map[int]float64, n)
	total := 0.0
	for rank := 1; rank <= n; rank++ {
		pct := 0.0
		if rank < n {
			pct = round2(float64(n-rank) * commonDiff)
		}
		percentages[rank] = pct
		total += pct
	}
	if math.Abs(total-100) > 0.01 {
		percentages[1] = round2(percentages[1] + (100 - total))
	}

	rows := make([]model.PrizeRow, 0, n)
	truncated := 0
	for rank := 2; rank <= n; rank++ {
		exact := float64(pool) * percentages[rank] / 100
		amount := int(exact/100) * 100
		truncated += amount
		rows = append(rows, model.PrizeRow{
			Rank:       rank,
			Percentage: percentages[rank],
			Amount:     amount,
			FeeTotal:   rules.PlayerFee(byRank[rank].RebuyCnt),
		})
	}
	first := model.PrizeRow{
		Rank:       1,
		Percentage: percentages[1],
		Amount:     pool - truncated,
		FeeTotal:   rules.PlayerFee(byRank[1].RebuyCnt),
	}
	rows = append([]model.PrizeRow{first}, rows...)

	log.Debug(ctx, "prize pool allocated",
		logger.Int("pool", pool),
		logger.Int("players", n),
	)
	return &model.PrizeTable{Pool: pool, Rows: rows}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
