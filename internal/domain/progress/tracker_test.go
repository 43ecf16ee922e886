package progress_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/progress"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	Convey("Given a tracker expecting three batches", t, func() {
		tr := progress.NewTracker(progress.WithTotalBatches(3))

		Convey("When recording batches in order", func() {
			r1, err1 := tr.Record(ctx, 1, 10, 10, 2, 1, now)
			r2, err2 := tr.Record(ctx, 2, 5, 15, 3, 1, now.Add(time.Second))

			Convey("Then records accumulate with running totals", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(r1.Batch, ShouldEqual, 1)
				So(r1.TotalBatches, ShouldEqual, 3)
				So(r2.Cumulative, ShouldEqual, 15)
				So(tr.Batches(ctx), ShouldEqual, 2)
				So(tr.Done(ctx), ShouldBeFalse)
			})

			Convey("And the history is an ordered copy", func() {
				h := tr.History(ctx)
				So(h, ShouldHaveLength, 2)
				So(h[0].Batch, ShouldEqual, 1)
				So(h[1].Batch, ShouldEqual, 2)

				h[0].InBatch = 999
				fresh := tr.History(ctx)
				So(fresh[0].InBatch, ShouldEqual, 10)
			})

			Convey("And recording the final batch marks completion", func() {
				_, err := tr.Record(ctx, 3, 0, 15, 3, 1, now.Add(2*time.Second))
				So(err, ShouldBeNil)
				So(tr.Done(ctx), ShouldBeTrue)

				last, ok := tr.Last(ctx)
				So(ok, ShouldBeTrue)
				So(last.Batch, ShouldEqual, 3)
				So(last.InBatch, ShouldEqual, 0)
			})
		})

		Convey("When a batch number skips ahead", func() {
			_, err := tr.Record(ctx, 2, 10, 10, 0, 0, now)

			Convey("Then the record is rejected", func() {
				So(errors.Is(err, progress.ErrBatchOrder), ShouldBeTrue)
				So(tr.Batches(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the cumulative count does not add up", func() {
			_, err := tr.Record(ctx, 1, 10, 12, 0, 0, now)

			Convey("Then the record is rejected", func() {
				So(errors.Is(err, progress.ErrBatchAccounting), ShouldBeTrue)
			})
		})
	})

	Convey("Given a tracker with an unknown total", t, func() {
		tr := progress.NewTracker()
		_, err := tr.Record(ctx, 1, 4, 4, 0, 0, now)
		So(err, ShouldBeNil)

		Convey("Then it never reports completion", func() {
			So(tr.Done(ctx), ShouldBeFalse)
			last, ok := tr.Last(ctx)
			So(ok, ShouldBeTrue)
			So(last.TotalBatches, ShouldEqual, 0)
		})
	})
}
