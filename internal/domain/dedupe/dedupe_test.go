package dedupe_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tablelog/pokerstats/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGameKey(t *testing.T) {
	start := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	Convey("Given session identities", t, func() {
		Convey("When the same players are listed in different orders", func() {
			k1 := dedupe.GameKey(start, []string{"bob", "alice"})
			k2 := dedupe.GameKey(start, []string{"alice", "bob"})

			Convey("Then the keys are equal", func() {
				So(k1, ShouldEqual, k2)
			})
		})

		Convey("When start times differ", func() {
			k1 := dedupe.GameKey(start, []string{"alice"})
			k2 := dedupe.GameKey(start.Add(time.Second), []string{"alice"})

			So(k1, ShouldNotEqual, k2)
		})

		Convey("When the start time carries a zone offset", func() {
			loc := time.FixedZone("KST", 9*3600)
			k1 := dedupe.GameKey(start.In(loc), []string{"alice"})
			k2 := dedupe.GameKey(start, []string{"alice"})

			Convey("Then the key normalizes to UTC", func() {
				So(k1, ShouldEqual, k2)
			})
		})

		Convey("When the player sets differ", func() {
			k1 := dedupe.GameKey(start, []string{"alice", "bob"})
			k2 := dedupe.GameKey(start, []string{"alice", "carol"})

			So(k1, ShouldNotEqual, k2)
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		Convey("When recording a fresh key", func() {
			d := dedupe.NewInMemoryDeduper()
			seen := d.SeenAndRecord(ctx, "game-1")

			Convey("Then it was not seen and is now recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording the same key twice", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "game-1")
			seen := d.SeenAndRecord(ctx, "game-1")

			Convey("Then the second attempt reports it as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "game-1")
			d.Unrecord(ctx, "game-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "game-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "game-1")
			d.Unrecord(ctx, "other")

			So(d.Size(), ShouldEqual, 1)
		})

		Convey("When the cache exceeds its size bound", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("game-%d", i))
			}

			Convey("Then the oldest keys were evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "game-0"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "game-4"), ShouldBeTrue)
			})
		})
	})
}
