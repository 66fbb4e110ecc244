package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/dancefloor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseRole(t *testing.T) {
	Convey("Given role strings from an external registry", t, func() {
		Convey("When the casing and whitespace vary", func() {
			leader, errL := model.ParseRole(" leader ")
			follower, errF := model.ParseRole("Follower")

			Convey("Then they normalize to the enum", func() {
				So(errL, ShouldBeNil)
				So(errF, ShouldBeNil)
				So(leader, ShouldEqual, model.RoleLeader)
				So(follower, ShouldEqual, model.RoleFollower)
			})
		})

		Convey("When the role is unknown", func() {
			_, err := model.ParseRole("lead")

			Convey("Then a validation error is returned", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "unknown role lead")
			})
		})
	})
}

func TestParsePhase(t *testing.T) {
	Convey("Given phase strings", t, func() {
		p, err := model.ParsePhase("semifinal")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, model.PhaseSemifinal)

		_, err = model.ParsePhase("quarterfinal")
		So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given a wrapped domain error", t, func() {
		cause := errors.New("connection refused")
		err := fmt.Errorf("save snapshot: %w", model.WrapKind("repository.append", model.ErrStorageUnavailable, cause))

		Convey("Then both the kind and the cause are reachable", func() {
			So(errors.Is(err, model.ErrStorageUnavailable), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, model.ErrNotFound), ShouldBeFalse)
			So(model.KindOf(err), ShouldEqual, model.ErrStorageUnavailable)
		})

		Convey("And plain errors carry no kind", func() {
			So(model.KindOf(cause), ShouldBeNil)
		})
	})
}

func TestScoreQuery(t *testing.T) {
	Convey("Given a heat scoped query", t, func() {
		q := model.ScoreQuery{ParticipantIDs: []string{"p1"}, Phase: model.PhaseHeats, HeatID: "h1"}

		So(q.Matches(model.Score{ParticipantID: "p1", Phase: model.PhaseHeats, HeatID: "h1"}), ShouldBeTrue)
		So(q.Matches(model.Score{ParticipantID: "p1", Phase: model.PhaseHeats, HeatID: "h2"}), ShouldBeFalse)
		So(q.Matches(model.Score{ParticipantID: "p2", Phase: model.PhaseHeats, HeatID: "h1"}), ShouldBeFalse)
		So(q.Matches(model.Score{ParticipantID: "p1", Phase: model.PhaseFinal}), ShouldBeFalse)
	})
}

func TestSnapshotNext(t *testing.T) {
	Convey("Given a snapshot with frozen cohorts", t, func() {
		heat := "h1"
		prev := model.Snapshot{
			ID:            "s1",
			Version:       3,
			Phase:         model.PhaseSemifinal,
			Category:      "Novice",
			ActiveHeatID:  &heat,
			Semifinalists: &model.Cohort{Leaders: []model.Participant{{ID: "l1"}}},
		}

		Convey("When deriving the next payload", func() {
			next := prev.Next()
			next.Semifinalists.Leaders[0].Name = "changed"
			*next.ActiveHeatID = "h2"

			Convey("Then the previous snapshot is untouched", func() {
				So(prev.Semifinalists.Leaders[0].Name, ShouldEqual, "")
				So(*prev.ActiveHeatID, ShouldEqual, "h1")
				So(next.ID, ShouldEqual, "")
				So(next.Version, ShouldEqual, 0)
				So(next.Category, ShouldEqual, "Novice")
			})
		})
	})
}
