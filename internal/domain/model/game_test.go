package model_test

import (
	"testing"
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGameCard_Matchup(t *testing.T) {
	Convey("Given game cards", t, func() {
		Convey("When both teams are known", func() {
			card := model.GameCard{Home: "Boston Celtics", Away: "New York Knicks"}
			So(card.Matchup(), ShouldEqual, "New York Knicks at Boston Celtics")
		})

		Convey("When a team name is missing", func() {
			card := model.GameCard{Home: "Denver Nuggets"}
			So(card.Matchup(), ShouldEqual, "Unknown at Denver Nuggets")
		})
	})
}

func TestNewRankedGame(t *testing.T) {
	Convey("Given a scored card", t, func() {
		card := model.GameCard{EventID: "401", Date: "2025-11-01", Home: "Heat", Away: "Magic"}
		res := excitement.Result{Score: 7.2, Verdict: excitement.VerdictExciting}
		at := time.Date(2025, 11, 2, 3, 0, 0, 0, time.FixedZone("EST", -5*3600))

		rg := model.NewRankedGame(card, res, at)

		Convey("Then it keeps the card identity and stores UTC time", func() {
			So(rg.EventID, ShouldEqual, "401")
			So(rg.Date, ShouldEqual, "2025-11-01")
			So(rg.Matchup, ShouldEqual, "Magic at Heat")
			So(rg.Result, ShouldResemble, res)
			So(rg.ScoredAt.Location(), ShouldEqual, time.UTC)
			So(rg.ScoredAt.Equal(at), ShouldBeTrue)
		})
	})
}

func TestDates(t *testing.T) {
	Convey("Given a ranking date", t, func() {
		d, err := model.ParseDate("2025-03-09")
		So(err, ShouldBeNil)
		So(model.FormatDate(d), ShouldEqual, "2025-03-09")

		_, err = model.ParseDate("03/09/2025")
		So(err, ShouldNotBeNil)
	})
}
