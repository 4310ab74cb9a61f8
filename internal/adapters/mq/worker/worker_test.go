package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tablelog/pokerstats/internal/adapters/mq/queue"
	"github.com/tablelog/pokerstats/internal/adapters/mq/worker"
	"github.com/tablelog/pokerstats/internal/adapters/repository"
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

// fakeStore records StoreGame calls and returns a scripted error.
type fakeStore struct {
	mu     sync.Mutex
	stored []string
	err    error
}

func (f *fakeStore) StoreGame(_ context.Context, _ *model.Result, logFileName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, logFileName)
	return "game-" + logFileName, nil
}

func (f *fakeStore) storedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored...)
}

// fakeReleaser records released dedupe keys.
type fakeReleaser struct {
	mu       sync.Mutex
	released []string
}

func (f *fakeReleaser) Unrecord(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, key)
}

func (f *fakeReleaser) releasedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func job(name string) queue.Job {
	return queue.Job{
		GameKey:     "key-" + name,
		LogFileName: name + ".csv",
		Result:      &model.Result{TotalHands: 10},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWorker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a worker over a queue", t, func() {
		Convey("When a job arrives", func() {
			q := queue.NewInMemoryQueue()
			store := &fakeStore{}
			releaser := &fakeReleaser{}
			w := worker.New(q, store, releaser)
			go w.Run(ctx)

			So(q.Enqueue(ctx, job("g1")), ShouldBeTrue)

			Convey("Then the game is persisted", func() {
				So(waitFor(func() bool { return len(store.storedFiles()) == 1 }), ShouldBeTrue)
				So(store.storedFiles()[0], ShouldEqual, "g1.csv")
				So(releaser.releasedKeys(), ShouldBeEmpty)
			})

			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(q.Close(), ShouldBeNil)
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})

		Convey("When the store reports a duplicate", func() {
			q := queue.NewInMemoryQueue()
			store := &fakeStore{err: repository.ErrDuplicateGame}
			releaser := &fakeReleaser{}
			w := worker.New(q, store, releaser)
			go w.Run(ctx)

			So(q.Enqueue(ctx, job("g1")), ShouldBeTrue)

			Convey("Then the job is dropped and the dedupe key is kept", func() {
				So(waitFor(func() bool { return q.Len(ctx) == 0 }), ShouldBeTrue)
				time.Sleep(50 * time.Millisecond)
				So(store.storedFiles(), ShouldBeEmpty)
				So(releaser.releasedKeys(), ShouldBeEmpty)
			})

			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(q.Close(), ShouldBeNil)
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})

		Convey("When the store fails", func() {
			q := queue.NewInMemoryQueue()
			store := &fakeStore{err: errors.New("disk full")}
			releaser := &fakeReleaser{}
			w := worker.New(q, store, releaser)
			go w.Run(ctx)

			So(q.Enqueue(ctx, job("g1")), ShouldBeTrue)

			Convey("Then the dedupe key is released for a retry", func() {
				So(waitFor(func() bool { return len(releaser.releasedKeys()) == 1 }), ShouldBeTrue)
				So(releaser.releasedKeys()[0], ShouldEqual, "key-g1")
			})

			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(q.Close(), ShouldBeNil)
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue()
		store := &fakeStore{}
		releaser := &fakeReleaser{}
		pool := worker.NewPool(2, q, store, releaser)
		pool.Start(ctx)

		Convey("When several jobs are enqueued", func() {
			for _, name := range []string{"g1", "g2", "g3"} {
				So(q.Enqueue(ctx, job(name)), ShouldBeTrue)
			}

			Convey("Then every job is persisted", func() {
				So(waitFor(func() bool { return len(store.storedFiles()) == 3 }), ShouldBeTrue)
			})

			So(q.Close(), ShouldBeNil)
			pool.Stop()
		})
	})
}
