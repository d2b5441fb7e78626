package dedupe_test

import (
	"context"
	"testing"

	dedupe "github.com/okian/hiveclaim/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When an id is new", func() {
			seen := d.SeenAndRecord(ctx, "alice")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id repeats", func() {
			d.SeenAndRecord(ctx, "alice")
			seen := d.SeenAndRecord(ctx, " alice ")

			Convey("Then the repeat is reported and not recorded twice", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When ids differ only by case", func() {
			d.SeenAndRecord(ctx, "alice")

			Convey("Then they are distinct by default", func() {
				So(d.SeenAndRecord(ctx, "Alice"), ShouldBeFalse)
			})

			Convey("Then case folding makes them collide", func() {
				f := dedupe.NewInMemoryDeduper(dedupe.WithCaseFold(true))
				f.SeenAndRecord(ctx, "alice")
				So(f.SeenAndRecord(ctx, "ALICE"), ShouldBeTrue)
			})
		})
	})
}

func TestUnique(t *testing.T) {
	Convey("Given an account list with repeats", t, func() {
		ctx := context.Background()
		in := []string{"main", "dep1", "main", "dep2", "dep1"}

		unique, dropped := dedupe.Unique(ctx, in)

		Convey("Then first occurrences are kept in order", func() {
			So(unique, ShouldResemble, []string{"main", "dep1", "dep2"})
			So(dropped, ShouldResemble, []string{"main", "dep1"})
		})

		Convey("Then the input is untouched", func() {
			So(in, ShouldResemble, []string{"main", "dep1", "main", "dep2", "dep1"})
		})

		Convey("And a list without repeats passes through", func() {
			u, d := dedupe.Unique(ctx, []string{"a", "b"})
			So(u, ShouldResemble, []string{"a", "b"})
			So(d, ShouldBeEmpty)
		})
	})
}
