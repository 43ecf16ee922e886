package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func newStore() *repository.ResultStore {
	n, err := risk.NewNormalizer(risk.MethodMinMax, 0, 100)
	if err != nil {
		panic(err)
	}
	return repository.NewResultStore(n, risk.Thresholds{Medium: 25, High: 50, Critical: 75})
}

func scored(id string, raw float64, batch int) model.ScoredEntity {
	return model.ScoredEntity{
		EmployeeID: id,
		SubScores:  map[string]float64{model.ModelIsolationForest: raw},
		RawRisk:    raw,
		Batch:      batch,
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty result store", t, func() {
		store := newStore()

		Convey("When merging a first batch", func() {
			snap, err := store.Merge(ctx, []model.ScoredEntity{
				scored("emp-a", 1.0, 1),
				scored("emp-b", 3.0, 1),
				scored("emp-c", 2.0, 1),
			})

			Convey("Then the snapshot ranks the full population", func() {
				So(err, ShouldBeNil)
				So(snap.Entries, ShouldHaveLength, 3)
				So(snap.Entries[0].EmployeeID, ShouldEqual, "emp-b")
				So(snap.Entries[0].Score, ShouldEqual, 100)
				So(snap.Entries[2].EmployeeID, ShouldEqual, "emp-a")
				So(snap.Entries[2].Score, ShouldEqual, 0)
				So(snap.Batches, ShouldEqual, 1)
			})

			Convey("And merging a second batch renormalizes everyone", func() {
				// emp-d's raw risk exceeds the old maximum, so emp-b must
				// lose its 100 even though its raw value never changed.
				snap2, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-d", 5.0, 2)})
				So(err, ShouldBeNil)
				So(snap2.Entries, ShouldHaveLength, 4)

				top, ok := snap2.Entry("emp-d")
				So(ok, ShouldBeTrue)
				So(top.Score, ShouldEqual, 100)

				prev, ok := snap2.Entry("emp-b")
				So(ok, ShouldBeTrue)
				So(prev.Score, ShouldBeLessThan, 100)
				So(prev.RawRisk, ShouldEqual, 3.0) // raw value immutable
			})
		})
	})
}

func TestDuplicateRejection(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with one merged batch", t, func() {
		store := newStore()
		_, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-a", 1.0, 1), scored("emp-b", 2.0, 1)})
		So(err, ShouldBeNil)
		before := store.Snapshot(ctx)

		Convey("When a batch re-submits a scored employee", func() {
			_, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-c", 3.0, 2), scored("emp-a", 9.0, 2)})

			Convey("Then the whole batch is rejected", func() {
				So(errors.Is(err, repository.ErrDuplicateEntity), ShouldBeTrue)
			})

			Convey("And no partial merge happened", func() {
				after := store.Snapshot(ctx)
				So(after, ShouldEqual, before) // same published pointer
				So(store.Count(ctx), ShouldEqual, 2)
				So(store.Batches(ctx), ShouldEqual, 1)
				So(store.Contains(ctx, "emp-c"), ShouldBeFalse)
			})
		})

		Convey("When a batch contains the same employee twice", func() {
			_, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-x", 1.0, 2), scored("emp-x", 2.0, 2)})

			Convey("Then it is rejected as a duplicate", func() {
				So(errors.Is(err, repository.ErrDuplicateEntity), ShouldBeTrue)
				So(store.Contains(ctx, "emp-x"), ShouldBeFalse)
			})
		})
	})
}

func TestEmptyBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with scored employees", t, func() {
		store := newStore()
		_, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-a", 1.0, 1), scored("emp-b", 4.0, 1)})
		So(err, ShouldBeNil)
		before := store.Snapshot(ctx)

		Convey("When merging an empty batch", func() {
			snap, err := store.Merge(ctx, nil)

			Convey("Then scores are bit-identical and only bookkeeping advances", func() {
				So(err, ShouldBeNil)
				So(snap.Entries, ShouldResemble, before.Entries)
				So(snap.Batches, ShouldEqual, before.Batches+1)
			})
		})
	})
}

func TestGlobalRenormalizationLaw(t *testing.T) {
	ctx := context.Background()

	Convey("Given the same employees arriving in different batch splits", t, func() {
		all := []model.ScoredEntity{
			scored("emp-a", 0.4, 1),
			scored("emp-b", 1.9, 1),
			scored("emp-c", 0.7, 1),
			scored("emp-d", 2.6, 1),
			scored("emp-e", 1.1, 1),
		}

		incremental := newStore()
		_, err := incremental.Merge(ctx, all[:2])
		So(err, ShouldBeNil)
		_, err = incremental.Merge(ctx, all[2:4])
		So(err, ShouldBeNil)
		inc, err := incremental.Merge(ctx, all[4:])
		So(err, ShouldBeNil)

		oneShot := newStore()
		direct, err := oneShot.Merge(ctx, all)
		So(err, ShouldBeNil)

		Convey("Then incremental and from-scratch normalization agree exactly", func() {
			So(inc.Entries, ShouldResemble, direct.Entries)
		})
	})
}

func TestSingleEmployeePopulation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with exactly one employee", t, func() {
		store := newStore()
		snap, err := store.Merge(ctx, []model.ScoredEntity{scored("emp-solo", 123.4, 1)})

		Convey("Then the midpoint sentinel is used", func() {
			So(err, ShouldBeNil)
			So(snap.Entries[0].Score, ShouldEqual, 50)
			So(snap.Entries[0].Tier, ShouldEqual, model.TierHigh)
			So(snap.Entries[0].Rank, ShouldEqual, 1)
		})
	})
}

func TestRankAndTopN(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with tied scores", t, func() {
		store := newStore()
		_, err := store.Merge(ctx, []model.ScoredEntity{
			scored("emp-b", 2.0, 1),
			scored("emp-a", 2.0, 1),
			scored("emp-c", 5.0, 1),
			scored("emp-d", 1.0, 1),
		})
		So(err, ShouldBeNil)

		Convey("When reading the top entries", func() {
			top, err := store.TopN(ctx, 3)

			Convey("Then ties share a rank and break by employee ID", func() {
				So(err, ShouldBeNil)
				So(top[0].EmployeeID, ShouldEqual, "emp-c")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].EmployeeID, ShouldEqual, "emp-a")
				So(top[2].EmployeeID, ShouldEqual, "emp-b")
				So(top[1].Rank, ShouldEqual, top[2].Rank)
			})
		})

		Convey("When asking for more entries than exist", func() {
			top, err := store.TopN(ctx, 100)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 4)
		})

		Convey("When the limit is invalid", func() {
			_, err := store.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When looking up one employee", func() {
			e, err := store.Rank(ctx, "emp-d")
			So(err, ShouldBeNil)
			So(e.EmployeeID, ShouldEqual, "emp-d")
			So(e.Score, ShouldEqual, 0)
		})

		Convey("When looking up an unknown employee", func() {
			_, err := store.Rank(ctx, "emp-zz")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
