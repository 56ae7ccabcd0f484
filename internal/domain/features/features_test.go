package features_test

import (
	"errors"
	"math"
	"testing"

	"github.com/scoutai/scoutai/internal/domain/features"
	"github.com/scoutai/scoutai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEncode(t *testing.T) {
	Convey("Given a running back and a roster with one RB", t, func() {
		player := model.Player{
			Name:            "Saquon Barkley",
			Position:        model.RB,
			Team:            "NYG",
			ADP:             model.Float(8.5),
			ProjectedPoints: model.Float(245.3),
			ByeWeek:         model.Int(11),
		}
		roster := model.RosterSnapshot{model.QB: 1, model.RB: 1}
		draft := model.DraftContext{Round: 1, Pick: 3}

		Convey("When encoding", func() {
			v, err := features.Encode(player, roster, draft)
			So(err, ShouldBeNil)

			Convey("Then the one-hot block marks RB only", func() {
				So(v[:6], ShouldResemble, []float64{0, 1, 0, 0, 0, 0})
			})

			Convey("And raw fields are copied in order", func() {
				So(v[6], ShouldEqual, 8.5)
				So(v[7], ShouldEqual, 245.3)
				So(v[8], ShouldEqual, 11.0)
				So(v[9:15], ShouldResemble, []float64{1, 1, 0, 0, 0, 0})
				So(v[15], ShouldEqual, 1.0)
				So(v[16], ShouldEqual, 3.0)
			})

			Convey("And derived values follow the formulas", func() {
				So(v.NeedScore(), ShouldAlmostEqual, 2.0/3.0, 1e-12)
				So(v.ADPValue(), ShouldAlmostEqual, (200-8.5)/200, 1e-12)
				So(v.PointsValue(), ShouldAlmostEqual, 245.3/400, 1e-12)
			})
		})

		Convey("When encoding twice", func() {
			a, errA := features.Encode(player, roster, draft)
			b, errB := features.Encode(player, roster, draft)

			Convey("Then the vectors are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})
	})

	Convey("Given a player with no optional fields", t, func() {
		player := model.Player{Name: "Unknown K", Position: model.K, Team: "FA"}

		Convey("When encoding", func() {
			v, err := features.Encode(player, nil, model.DraftContext{Round: 12, Pick: 7})

			Convey("Then defaults are used", func() {
				So(err, ShouldBeNil)
				So(v[6], ShouldEqual, model.DefaultADP)
				So(v[7], ShouldEqual, model.DefaultProjectedPoints)
				So(v[8], ShouldEqual, float64(model.DefaultByeWeek))
				So(v.NeedScore(), ShouldEqual, 1.0)
				So(v.ADPValue(), ShouldEqual, 0.5)
				So(v.PointsValue(), ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given malformed inputs", t, func() {
		draft := model.DraftContext{Round: 1, Pick: 1}

		Convey("Then an unknown position fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: "LB"}, nil, draft)
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})

		Convey("And a NaN adp fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: model.WR, ADP: model.Float(math.NaN())}, nil, draft)
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})

		Convey("And an infinite projection fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: model.WR, ProjectedPoints: model.Float(math.Inf(1))}, nil, draft)
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})

		Convey("And a bye week out of range fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: model.WR, ByeWeek: model.Int(19)}, nil, draft)
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})

		Convey("And a negative roster count fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: model.WR}, model.RosterSnapshot{model.TE: -1}, draft)
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})

		Convey("And a zero round fails", func() {
			_, err := features.Encode(model.Player{Name: "x", Position: model.WR}, nil, model.DraftContext{Round: 0, Pick: 1})
			So(errors.Is(err, model.ErrFeatureComputation), ShouldBeTrue)
		})
	})
}

func TestDerivedValues(t *testing.T) {
	Convey("Given the position need score", t, func() {
		Convey("Then it stays within [0,1] up to the target and is 0 at or beyond it", func() {
			for _, p := range model.Positions {
				for count := 0; count <= p.TargetCount()+3; count++ {
					need := features.PositionNeed(p, count)
					So(need, ShouldBeBetweenOrEqual, 0.0, 1.0)
					if count >= p.TargetCount() {
						So(need, ShouldEqual, 0.0)
					}
				}
			}
		})
	})

	Convey("Given the value features", t, func() {
		Convey("Then adp_value clamps at zero past the horizon", func() {
			So(features.ADPValue(250), ShouldEqual, 0.0)
			So(features.ADPValue(200), ShouldEqual, 0.0)
			So(features.ADPValue(0), ShouldEqual, 1.0)
		})

		Convey("And points_value clamps at one", func() {
			So(features.PointsValue(500), ShouldEqual, 1.0)
			So(features.PointsValue(100), ShouldEqual, 0.25)
		})
	})

	Convey("Given the feature names", t, func() {
		names := features.Names()

		Convey("Then there is one per dimension", func() {
			So(len(names), ShouldEqual, features.Dim)
			So(names[0], ShouldEqual, "position_qb")
			So(names[features.Dim-1], ShouldEqual, "points_value")
		})
	})
}
