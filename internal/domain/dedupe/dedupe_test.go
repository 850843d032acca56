package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/okian/graphboard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the ID is new", func() {
				seen := d.SeenAndRecord(ctx, "alice:0.9:0.8:0.1")

				Convey("Then it should return false and record it", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the ID was already seen", func() {
				d.SeenAndRecord(ctx, "alice:0.9:0.8:0.1")
				seen := d.SeenAndRecord(ctx, "alice:0.9:0.8:0.1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When using bounded mode at capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest ID is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := range 1000 {
				d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "id-0"), ShouldBeTrue)
			})
		})

		Convey("When recording unusual IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then empty and very long strings are tracked", func() {
				So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
				long := strings.Repeat("x", 10000)
				So(d.SeenAndRecord(ctx, long), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, long), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentDeduper(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		ctx := context.Background()

		Convey("When goroutines race on the same IDs", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 100 {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each ID is fresh exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}

func TestMessageID(t *testing.T) {
	Convey("Given a broker message position", t, func() {
		Convey("Then the ID is stable and distinct per offset", func() {
			So(dedupe.MessageID("scores", 1, 42), ShouldEqual, "scores/1/42")
			So(dedupe.MessageID("scores", 1, 42), ShouldNotEqual, dedupe.MessageID("scores", 1, 43))
		})
	})
}
