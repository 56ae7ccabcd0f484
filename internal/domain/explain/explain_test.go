package explain_test

import (
	"testing"

	"github.com/scoutai/scoutai/internal/domain/explain"
	"github.com/scoutai/scoutai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExplanation(t *testing.T) {
	Convey("Given an early round with an empty RB slot", t, func() {
		roster := model.RosterSnapshot{model.QB: 1, model.RB: 1}
		player := model.Player{Name: "Back", Position: model.RB, ADP: model.Float(8.5), ProjectedPoints: model.Float(260)}

		Convey("Then every matching clause is joined in order", func() {
			So(explain.Explanation(player, roster, 1), ShouldEqual,
				"Need 2 more RB. Elite ADP value. High projected points. Early round priority")
		})
	})

	Convey("Given a filled position and a mid-range ADP", t, func() {
		roster := model.RosterSnapshot{model.QB: 1}
		player := model.Player{Name: "Passer", Position: model.QB, ADP: model.Float(35), ProjectedPoints: model.Float(240)}

		Convey("Then the depth and good ADP clauses apply", func() {
			So(explain.Explanation(player, roster, 5), ShouldEqual, "Good QB depth. Good ADP value")
		})
	})

	Convey("Given a kicker in a late round with defaults", t, func() {
		player := model.Player{Name: "Leg", Position: model.K}

		Convey("Then the late round clause applies", func() {
			So(explain.Explanation(player, model.RosterSnapshot{}, 12), ShouldEqual, "Need 1 more K. Late round target")
		})

		Convey("And an early round adds nothing else", func() {
			So(explain.Explanation(player, model.RosterSnapshot{model.K: 1}, 2), ShouldEqual, "Good K depth")
		})
	})
}

func TestRisk(t *testing.T) {
	Convey("Given the risk classifier", t, func() {
		safe := model.Player{Position: model.WR, ADP: model.Float(30), ProjectedPoints: model.Float(220)}

		Convey("Then no factors is low risk", func() {
			So(explain.Risk(safe, 0.8), ShouldEqual, model.RiskLow)
		})

		Convey("And one factor is medium risk", func() {
			So(explain.Risk(safe, 0.1), ShouldEqual, model.RiskMedium)
		})

		Convey("And two or more factors are high risk", func() {
			late := model.Player{Position: model.WR, ADP: model.Float(150), ProjectedPoints: model.Float(120)}
			So(explain.Risk(late, 0.9), ShouldEqual, model.RiskHigh)
			So(explain.Risk(late, 0.1), ShouldEqual, model.RiskHigh)
		})

		Convey("And missing values use the defaults", func() {
			So(explain.Risk(model.Player{Position: model.TE}, 0.5), ShouldEqual, model.RiskLow)
		})
	})
}
