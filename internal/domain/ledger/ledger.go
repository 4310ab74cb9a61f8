// Package ledger extracts admin-approved stake events per player and
// derives buy-in and rebuy totals.
package ledger

import (
	"context"

	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/rules"
	"github.com/tablelog/pokerstats/pkg/logger"
)

// Account is one player's buy-in record. The first approval is the
// initial buy-in, every later one a rebuy of the same stake; the total
// therefore assumes all approvals use the initial amount.
type Account struct {
	Events       []model.BuyinEvent
	InitialBuyin int
	RebuyCount   int
}

// TotalRebuyAmount is the player's total money committed.
func (a Account) TotalRebuyAmount() int {
	return a.InitialBuyin * (1 + a.RebuyCount)
}

// Ledger maps player names to their buy-in accounts.
type Ledger struct {
	accounts     map[string]*Account
	defaultBuyin int
}

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithDefaultBuyin sets the fallback initial buy-in used for players
// with no approval events.
func WithDefaultBuyin(amount int) Option {
	return func(l *Ledger) {
		if amount > 0 {
			l.defaultBuyin = amount
		}
	}
}

const defaultInitialBuyin = 20000

// Collect scans the ordered entries for admin stake approvals and
// builds one account per named player. Names not present in names are
// ignored; a player with zero approvals gets the default buy-in and a
// zero rebuy count, surfaced as a data-quality warning only.
func Collect(ctx context.Context, entries []model.LogEntry, names []string, opts ...Option) *Ledger {
	l := &Ledger{
		accounts:     make(map[string]*Account),
		defaultBuyin: defaultInitialBuyin,
	}
	for _, opt := range opts {
		opt(l)
	}

	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
		l.accounts[name] = &Account{}
	}

	for _, e := range entries {
		name, amount, ok := rules.AdminApproval(e.Entry)
		if !ok || !known[name] {
			continue
		}
		acct := l.accounts[name]
		acct.Events = append(acct.Events, model.BuyinEvent{TS: e.TS, Amount: amount})
	}

	log := logger.Named("ledger")
	for _, name := range names {
		acct := l.accounts[name]
		if len(acct.Events) == 0 {
			acct.InitialBuyin = l.defaultBuyin
			acct.RebuyCount = 0
			log.Warn(ctx, "no admin approval events for player; using default buy-in",
				logger.String("player", name),
				logger.Int("default_buyin", l.defaultBuyin),
			)
			continue
		}
		acct.InitialBuyin = acct.Events[0].Amount
		acct.RebuyCount = len(acct.Events) - 1
		log.Debug(ctx, "buy-in account built",
			logger.String("player", name),
			logger.Int("initial_buyin", acct.InitialBuyin),
			logger.Int("rebuys", acct.RebuyCount),
		)
	}
	return l
}

// Account returns the buy-in account for name.
func (l *Ledger) Account(name string) Account {
	if acct, ok := l.accounts[name]; ok {
		return *acct
	}
	return Account{InitialBuyin: l.defaultBuyin}
}
