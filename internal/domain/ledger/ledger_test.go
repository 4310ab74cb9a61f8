package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/ledger"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func entries(lines ...string) []model.LogEntry {
	base := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	out := make([]model.LogEntry, len(lines))
	for i, l := range lines {
		out[i] = model.LogEntry{Entry: l, TS: base.Add(time.Duration(i) * time.Second), Order: i}
	}
	return out
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	Convey("Given approval events in a session log", t, func() {
		Convey("When a player has a single approval", func() {
			l := ledger.Collect(ctx, entries(
				`The admin approved the player "alice @ a1" participation with a stack of 20000.`,
			), []string{"alice"})

			acct := l.Account("alice")

			Convey("Then it is the initial buy-in with no rebuys", func() {
				So(acct.InitialBuyin, ShouldEqual, 20000)
				So(acct.RebuyCount, ShouldEqual, 0)
				So(acct.TotalRebuyAmount(), ShouldEqual, 20000)
				So(acct.Events, ShouldHaveLength, 1)
			})
		})

		Convey("When a player has three approvals", func() {
			l := ledger.Collect(ctx, entries(
				`The admin approved the player "alice @ a1" participation with a stack of 20000.`,
				`The admin approved the player "alice @ a2" participation with a stack of 20000.`,
				`The admin approved the player "alice @ a3" participation with a stack of 20000.`,
			), []string{"alice"})

			acct := l.Account("alice")

			Convey("Then two count as rebuys and the total is tripled", func() {
				So(acct.InitialBuyin, ShouldEqual, 20000)
				So(acct.RebuyCount, ShouldEqual, 2)
				So(acct.TotalRebuyAmount(), ShouldEqual, 60000)
			})
		})

		Convey("When later approvals carry a different amount", func() {
			l := ledger.Collect(ctx, entries(
				`The admin approved the player "alice @ a1" participation with a stack of 10000.`,
				`The admin approved the player "alice @ a1" participation with a stack of 99999.`,
			), []string{"alice"})

			acct := l.Account("alice")

			Convey("Then the total still assumes the initial stake per buy-in", func() {
				So(acct.InitialBuyin, ShouldEqual, 10000)
				So(acct.RebuyCount, ShouldEqual, 1)
				So(acct.TotalRebuyAmount(), ShouldEqual, 20000)
			})
		})

		Convey("When a player has no approvals at all", func() {
			l := ledger.Collect(ctx, entries(
				`"ghost @ g1" joined the game`,
			), []string{"ghost"})

			acct := l.Account("ghost")

			Convey("Then the default buy-in stands in", func() {
				So(acct.InitialBuyin, ShouldEqual, 20000)
				So(acct.RebuyCount, ShouldEqual, 0)
				So(acct.Events, ShouldBeEmpty)
			})
		})

		Convey("When a custom default buy-in is configured", func() {
			l := ledger.Collect(ctx, entries(
				`"ghost @ g1" joined the game`,
			), []string{"ghost"}, ledger.WithDefaultBuyin(5000))

			So(l.Account("ghost").InitialBuyin, ShouldEqual, 5000)
		})

		Convey("When approvals mention players outside the roster", func() {
			l := ledger.Collect(ctx, entries(
				`The admin approved the player "stranger @ s1" participation with a stack of 20000.`,
				`The admin approved the player "alice @ a1" participation with a stack of 20000.`,
			), []string{"alice"})

			Convey("Then only roster players get accounts", func() {
				So(l.Account("alice").Events, ShouldHaveLength, 1)
				So(l.Account("stranger").Events, ShouldBeEmpty)
			})
		})
	})
}
