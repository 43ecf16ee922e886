package ensemble_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/ensemble"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

// failingModel always errors, simulating a broken detector.
type failingModel struct{ name string }

func (f *failingModel) Name() string { return f.name }
func (f *failingModel) Score(context.Context, []float64) (float64, error) {
	return 0, errors.New("boom")
}

// constantModel returns a fixed score per vector length, for determinism checks.
type constantModel struct {
	name  string
	score float64
}

func (c *constantModel) Name() string { return c.name }
func (c *constantModel) Score(_ context.Context, vec []float64) (float64, error) {
	return c.score + float64(len(vec)), nil
}

func batchOf(ids ...string) []model.FeatureRecord {
	out := make([]model.FeatureRecord, len(ids))
	for i, id := range ids {
		out[i] = model.FeatureRecord{
			EmployeeID: id,
			Features: []model.Feature{
				{Name: "files_mean", Value: float64(i) * 2},
				{Name: "failed_total", Value: float64(i)},
			},
		}
	}
	return out
}

func TestEnsembleScoreBatch(t *testing.T) {
	Convey("Given an ensemble with one healthy and one failing model", t, func() {
		e := ensemble.New([]ensemble.Model{
			&constantModel{name: model.ModelIsolationForest, score: 0.5},
			&failingModel{name: model.ModelOneClassSVM},
		})

		Convey("When scoring a batch", func() {
			batch := batchOf("emp-a", "emp-b", "emp-c")
			scores := e.ScoreBatch(context.Background(), batch)

			Convey("Then every employee gets a sub-score from the healthy model", func() {
				So(scores, ShouldHaveLength, 3)
				for _, id := range []string{"emp-a", "emp-b", "emp-c"} {
					So(scores[id], ShouldContainKey, model.ModelIsolationForest)
				}
			})

			Convey("And the failing model is absent, not zero", func() {
				for _, id := range []string{"emp-a", "emp-b", "emp-c"} {
					_, ok := scores[id][model.ModelOneClassSVM]
					So(ok, ShouldBeFalse)
				}
			})
		})

		Convey("When scoring the same batch twice", func() {
			batch := batchOf("emp-a", "emp-b")
			first := e.ScoreBatch(context.Background(), batch)
			second := e.ScoreBatch(context.Background(), batch)

			Convey("Then the outputs should be identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When scoring an empty batch", func() {
			scores := e.ScoreBatch(context.Background(), nil)

			Convey("Then the result should be empty", func() {
				So(scores, ShouldBeEmpty)
			})
		})
	})
}

func TestIsolationForest(t *testing.T) {
	Convey("Given a fitted two-tree isolation forest", t, func() {
		// Single split on feature 0 at 0: left leaf holds the bulk of the
		// training sample, right leaf a single outlier.
		tree := ensemble.IsoTree{Nodes: []ensemble.IsoNode{
			{Feature: 0, Threshold: 0, Left: 1, Right: 2},
			{Left: -1, Right: -1, Size: 255},
			{Left: -1, Right: -1, Size: 1},
		}}
		forest, err := ensemble.NewIsolationForest(ensemble.IsolationForestParams{
			Trees:      []ensemble.IsoTree{tree, tree},
			SampleSize: 256,
		})
		So(err, ShouldBeNil)

		Convey("When scoring an isolated and a crowded point", func() {
			outlier, err1 := forest.Score(context.Background(), []float64{5})
			inlier, err2 := forest.Score(context.Background(), []float64{-5})

			Convey("Then the isolated point scores higher", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(outlier, ShouldBeGreaterThan, inlier)
				So(outlier, ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		Convey("When the vector is shorter than the tree expects", func() {
			_, err := forest.Score(context.Background(), nil)

			Convey("Then it should report a dimension mismatch", func() {
				So(errors.Is(err, ensemble.ErrBadDimension), ShouldBeTrue)
			})
		})
	})

	Convey("Given empty forest parameters", t, func() {
		_, err := ensemble.NewIsolationForest(ensemble.IsolationForestParams{})

		Convey("Then construction should fail", func() {
			So(errors.Is(err, ensemble.ErrNoModels), ShouldBeTrue)
		})
	})
}

func TestOneClassSVM(t *testing.T) {
	Convey("Given a boundary fitted around the origin", t, func() {
		svm, err := ensemble.NewOneClassSVM(ensemble.OneClassSVMParams{
			Vectors: [][]float64{{0, 0}, {1, 0}},
			Coefs:   []float64{0.5, 0.5},
			Gamma:   0.5,
			Rho:     0.1,
		})
		So(err, ShouldBeNil)

		Convey("When scoring points near and far from the support set", func() {
			near, err1 := svm.Score(context.Background(), []float64{0.5, 0})
			far, err2 := svm.Score(context.Background(), []float64{10, 10})

			Convey("Then the far point scores higher", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(far, ShouldBeGreaterThan, near)
			})
		})

		Convey("When the input dimension does not match", func() {
			_, err := svm.Score(context.Background(), []float64{1})

			Convey("Then it should report a dimension mismatch", func() {
				So(errors.Is(err, ensemble.ErrBadDimension), ShouldBeTrue)
			})
		})
	})
}

func TestAutoencoder(t *testing.T) {
	Convey("Given an identity-ish autoencoder", t, func() {
		// Encoder/decoder are identity matrices: perfect reconstruction for
		// non-negative inputs, error for negative ones (relu clips them).
		ae, err := ensemble.NewAutoencoder(ensemble.AutoencoderParams{
			Encoder: [][]float64{{1, 0}, {0, 1}},
			EncBias: []float64{0, 0},
			Decoder: [][]float64{{1, 0}, {0, 1}},
			DecBias: []float64{0, 0},
		})
		So(err, ShouldBeNil)

		Convey("When scoring a reconstructible point", func() {
			mse, err := ae.Score(context.Background(), []float64{2, 3})

			Convey("Then the reconstruction error should be zero", func() {
				So(err, ShouldBeNil)
				So(mse, ShouldEqual, 0)
			})
		})

		Convey("When scoring a point the network cannot reconstruct", func() {
			mse, err := ae.Score(context.Background(), []float64{-2, 3})

			Convey("Then the reconstruction error should be positive", func() {
				So(err, ShouldBeNil)
				So(mse, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestScaler(t *testing.T) {
	Convey("Given a fitted scaler", t, func() {
		sc, err := ensemble.NewScaler(ensemble.ScalerParams{
			Mean: []float64{10, 5},
			Std:  []float64{2, 0},
		})
		So(err, ShouldBeNil)

		Convey("When transforming a vector", func() {
			out := sc.Transform([]float64{14, 7})

			Convey("Then standardized values come back, constant features centered only", func() {
				So(out, ShouldResemble, []float64{2, 2})
			})
		})
	})
}
