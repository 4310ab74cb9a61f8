package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tablelog/pokerstats/internal/adapters/repository"
	service "github.com/tablelog/pokerstats/internal/app"
	"github.com/tablelog/pokerstats/internal/domain/ingest"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/prize"
	"github.com/tablelog/pokerstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeStore implements repository.Store in memory.
type fakeStore struct {
	mu       sync.Mutex
	games    map[string]*repository.GameDetail
	existErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{games: make(map[string]*repository.GameDetail)}
}

func (f *fakeStore) GameExists(_ context.Context, start time.Time, _ []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existErr != nil {
		return false, f.existErr
	}
	for _, g := range f.games {
		if g.StartTime.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) StoreGame(_ context.Context, result *model.Result, logFileName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "game-" + logFileName
	f.games[id] = &repository.GameDetail{
		GameSummary: repository.GameSummary{
			GameID:      id,
			LogFileName: logFileName,
			StartTime:   result.GamePeriod.Start,
			EndTime:     result.GamePeriod.End,
			TotalHands:  result.TotalHands,
			PlayerCount: len(result.Players),
		},
		Players: result.Players,
	}
	return id, nil
}

func (f *fakeStore) ListGames(context.Context) ([]repository.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.GameSummary, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, g.GameSummary)
	}
	return out, nil
}

func (f *fakeStore) GetGame(_ context.Context, gameID string) (*repository.GameDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) PlayerAggregates(context.Context, string) ([]repository.PlayerAggregate, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.games)
}

// sessionRecords is a minimal two-player session log.
func sessionRecords() []ingest.Record {
	return []ingest.Record{
		{Entry: `The admin approved the player "alice @ a1" participation with a stack of 20000.`, Timestamp: "2024-03-01T20:00:00.000Z", Order: 0},
		{Entry: `The admin approved the player "bob @ b2" participation with a stack of 20000.`, Timestamp: "2024-03-01T20:00:01.000Z", Order: 1},
		{Entry: `-- starting hand #1 (id: h1) --`, Timestamp: "2024-03-01T20:00:02.000Z", Order: 2},
		{Entry: `"alice @ a1" calls 20000`, Timestamp: "2024-03-01T20:00:03.000Z", Order: 3},
		{Entry: `"bob @ b2" calls 20000`, Timestamp: "2024-03-01T20:00:04.000Z", Order: 4},
		{Entry: `"alice @ a1" collected 40000 from pot`, Timestamp: "2024-03-01T20:00:05.000Z", Order: 5},
		{Entry: `-- ending hand #1 --`, Timestamp: "2024-03-01T20:00:06.000Z", Order: 6},
		{Entry: `Player stacks: #1 "alice @ a1" (40000) | #2 "bob @ b2" (0)`, Timestamp: "2024-03-01T20:00:07.000Z", Order: 7},
	}
}

func startService(t *testing.T, store repository.Store) *service.Service {
	t.Helper()
	svc := service.New(service.WithStore(store))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is created with sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["worker_count"], ShouldEqual, 1)
			So(stats["queue_size"], ShouldEqual, 256)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithQueueSize(32),
			service.WithWorkerCount(2),
			service.WithDedupeSize(64),
			service.WithDefaultBuyin(10000),
			service.WithPrizeRules(prize.Rules{EntryFee: 1000, FreeRebuys: 1, RebuyFee: 2000}),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["worker_count"], ShouldEqual, 2)
			So(stats["queue_size"], ShouldEqual, 32)
			So(stats["dedupe_size"], ShouldEqual, 64)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service over a fake store", t, func() {
		svc := service.New(service.WithStore(newFakeStore()))

		Convey("When started", func() {
			err := svc.Start(context.Background())

			Convey("Then it reports started", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})

			svc.Stop()

			Convey("And stopping marks it stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_AnalyzeLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService(t, newFakeStore())

		Convey("When analyzing a session log", func() {
			result, table, err := svc.AnalyzeLog(ctx, sessionRecords())

			Convey("Then the full pipeline runs", func() {
				So(err, ShouldBeNil)
				So(result.TotalHands, ShouldEqual, 1)
				So(result.Players, ShouldHaveLength, 2)
				So(result.Players[0].UserName, ShouldEqual, "alice")
				So(result.Players[0].Rank, ShouldEqual, 1)
				So(result.Players[1].UserName, ShouldEqual, "bob")
				So(result.Players[1].Rank, ShouldEqual, 2)
			})

			Convey("And the prize table covers both players", func() {
				So(err, ShouldBeNil)
				So(table.Pool, ShouldEqual, 10000)
				So(table.Rows, ShouldHaveLength, 2)
				So(table.Rows[0].Percentage, ShouldEqual, 100.0)
			})
		})

		Convey("When the log has no identity tokens", func() {
			_, _, err := svc.AnalyzeLog(ctx, []ingest.Record{
				{Entry: "nothing to see", Timestamp: "2024-03-01T20:00:00.000Z", Order: 0},
			})

			Convey("Then analysis fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_SubmitResult(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		store := newFakeStore()
		svc := startService(t, store)

		result, _, err := svc.AnalyzeLog(ctx, sessionRecords())
		So(err, ShouldBeNil)

		Convey("When submitting a new result", func() {
			accepted, duplicate, err := svc.SubmitResult(ctx, result, "log.csv")

			Convey("Then it is accepted for persistence", func() {
				So(err, ShouldBeNil)
				So(accepted, ShouldBeTrue)
				So(duplicate, ShouldBeFalse)
			})

			Convey("And the workers eventually store it", func() {
				deadline := time.Now().Add(2 * time.Second)
				for store.count() == 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(store.count(), ShouldEqual, 1)
			})
		})

		Convey("When submitting the same result twice", func() {
			_, _, err := svc.SubmitResult(ctx, result, "log.csv")
			So(err, ShouldBeNil)

			accepted, duplicate, err := svc.SubmitResult(ctx, result, "log.csv")

			Convey("Then the second submit reports a duplicate", func() {
				So(err, ShouldBeNil)
				So(accepted, ShouldBeFalse)
				So(duplicate, ShouldBeTrue)
			})
		})

		Convey("When the game is already in the store", func() {
			_, err := store.StoreGame(ctx, result, "earlier.csv")
			So(err, ShouldBeNil)

			accepted, duplicate, err := svc.SubmitResult(ctx, result, "log.csv")

			Convey("Then the store check reports a duplicate", func() {
				So(err, ShouldBeNil)
				So(accepted, ShouldBeFalse)
				So(duplicate, ShouldBeTrue)
			})
		})
	})
}

func TestService_Reads(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a stored game", t, func() {
		store := newFakeStore()
		svc := startService(t, store)

		result, _, err := svc.AnalyzeLog(ctx, sessionRecords())
		So(err, ShouldBeNil)
		gameID, err := store.StoreGame(ctx, result, "log.csv")
		So(err, ShouldBeNil)

		Convey("Then ListGames returns it", func() {
			games, err := svc.ListGames(ctx)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 1)
		})

		Convey("And GetGame resolves the id", func() {
			detail, err := svc.GetGame(ctx, gameID)
			So(err, ShouldBeNil)
			So(detail.LogFileName, ShouldEqual, "log.csv")
		})

		Convey("And an unknown id is not found", func() {
			_, err := svc.GetGame(ctx, "missing")
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}
