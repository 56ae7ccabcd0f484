package gbt_test

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/scoutai/scoutai/internal/domain/gbt"
	. "github.com/smartystreets/goconvey/convey"
)

// stepData builds y = 1 when x0 > 0.5 else 0, with x1 as pure noise.
func stepData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		rows[i] = []float64{rng.Float64(), rng.Float64()}
		if rows[i][0] > 0.5 {
			y[i] = 1
		}
	}
	return rows, y
}

func TestFit(t *testing.T) {
	Convey("Given a step function on the first feature", t, func() {
		rows, y := stepData(400, 3)

		Convey("When fitting with default parameters", func() {
			m, err := gbt.Fit(rows, y)
			So(err, ShouldBeNil)

			Convey("Then it grows the default number of trees", func() {
				So(len(m.Trees), ShouldEqual, gbt.DefaultNumTrees)
				So(m.NumFeatures, ShouldEqual, 2)
				So(m.Validate(), ShouldBeNil)
			})

			Convey("And it separates both sides of the step", func() {
				lo, err := m.Predict([]float64{0.1, 0.5})
				So(err, ShouldBeNil)
				hi, err := m.Predict([]float64{0.9, 0.5})
				So(err, ShouldBeNil)
				So(lo, ShouldBeLessThan, 0.1)
				So(hi, ShouldBeGreaterThan, 0.9)
			})

			Convey("And the informative feature dominates importance", func() {
				imp := m.FeatureImportance()
				So(len(imp), ShouldEqual, 2)
				So(imp[0], ShouldBeGreaterThan, 0.9)
				So(imp[0]+imp[1], ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And the wrong input width is rejected", func() {
				_, err := m.Predict([]float64{1})
				So(errors.Is(err, gbt.ErrShapeMismatch), ShouldBeTrue)
			})
		})

		Convey("When fitting twice", func() {
			a, _ := gbt.Fit(rows, y, gbt.WithNumTrees(10))
			b, _ := gbt.Fit(rows, y, gbt.WithNumTrees(10))

			Convey("Then the ensembles are identical", func() {
				So(a.Trees, ShouldResemble, b.Trees)
				So(a.BaseScore, ShouldEqual, b.BaseScore)
			})
		})

		Convey("When round-tripping through JSON", func() {
			m, _ := gbt.Fit(rows, y, gbt.WithNumTrees(20))
			raw, err := json.Marshal(m)
			So(err, ShouldBeNil)
			var decoded gbt.Model
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)

			Convey("Then predictions are unchanged", func() {
				for _, x := range [][]float64{{0.2, 0.3}, {0.7, 0.1}, {0.5, 0.5}} {
					want, _ := m.Predict(x)
					got, _ := decoded.Predict(x)
					So(got, ShouldEqual, want)
				}
			})
		})
	})

	Convey("Given a constant target", t, func() {
		rows, _ := stepData(50, 1)
		y := make([]float64, len(rows))
		for i := range y {
			y[i] = 0.25
		}

		Convey("When fitting", func() {
			m, err := gbt.Fit(rows, y, gbt.WithNumTrees(5))

			Convey("Then every tree is a single leaf at the mean", func() {
				So(err, ShouldBeNil)
				for _, tr := range m.Trees {
					So(len(tr.Nodes), ShouldEqual, 1)
				}
				p, _ := m.Predict([]float64{0.3, 0.3})
				So(math.Abs(p-0.25), ShouldBeLessThan, 1e-12)
				So(m.FeatureImportance(), ShouldResemble, []float64{0, 0})
			})
		})
	})

	Convey("Given invalid input", t, func() {
		Convey("Then empty data is rejected", func() {
			_, err := gbt.Fit(nil, nil)
			So(errors.Is(err, gbt.ErrNoData), ShouldBeTrue)
		})

		Convey("And misaligned targets are rejected", func() {
			_, err := gbt.Fit([][]float64{{1}, {2}}, []float64{1})
			So(errors.Is(err, gbt.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("And ragged rows are rejected", func() {
			_, err := gbt.Fit([][]float64{{1, 2}, {2}}, []float64{1, 2})
			So(errors.Is(err, gbt.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("And bad parameters are rejected", func() {
			_, err := gbt.Fit([][]float64{{1}}, []float64{1}, gbt.WithMaxDepth(0))
			So(errors.Is(err, gbt.ErrBadParams), ShouldBeTrue)
		})
	})

	Convey("Given a malformed decoded model", t, func() {
		m := gbt.Model{NumFeatures: 1, Trees: []gbt.Tree{{Nodes: []gbt.Node{{Feature: 3, Left: 1, Right: 2}}}}}

		Convey("Then validation fails", func() {
			So(errors.Is(m.Validate(), gbt.ErrShapeMismatch), ShouldBeTrue)
		})
	})
}
