package heats_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/okian/dancefloor/internal/domain/heats"
	"github.com/okian/dancefloor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(role model.Role, n int) []model.Participant {
	out := make([]model.Participant, n)
	for i := range out {
		out[i] = model.Participant{
			ID:     fmt.Sprintf("%s-%d", role, i+1),
			Name:   fmt.Sprintf("%s %d", role, i+1),
			Role:   role,
			Number: i + 1,
		}
	}
	return out
}

func TestHeatCount(t *testing.T) {
	Convey("Given couple counts around the thresholds", t, func() {
		So(heats.HeatCount(1), ShouldEqual, 1)
		So(heats.HeatCount(14), ShouldEqual, 1)
		So(heats.HeatCount(15), ShouldEqual, 2)
		So(heats.HeatCount(18), ShouldEqual, 2)
		So(heats.HeatCount(19), ShouldEqual, 3)
		So(heats.HeatCount(60), ShouldEqual, 3)
	})
}

func TestAllocate(t *testing.T) {
	Convey("Given a seeded allocator", t, func() {
		a := heats.NewAllocator(heats.WithRand(rand.New(rand.NewPCG(1, 2))))

		Convey("When 20 leaders and 20 followers register", func() {
			res, err := a.Allocate(roster(model.RoleLeader, 20), roster(model.RoleFollower, 20))

			Convey("Then three heats with blocks of 7, 7 and 6 are created", func() {
				So(err, ShouldBeNil)
				So(res.CoupleCount, ShouldEqual, 20)
				So(len(res.Heats), ShouldEqual, 3)
				So(len(res.Heats[0].Leaders), ShouldEqual, 7)
				So(len(res.Heats[1].Leaders), ShouldEqual, 7)
				So(len(res.Heats[2].Leaders), ShouldEqual, 6)
				for i, h := range res.Heats {
					So(h.Number, ShouldEqual, i+1)
					So(h.ID, ShouldNotBeEmpty)
				}
			})

			Convey("And each heat carries three fixed presentations", func() {
				for _, h := range res.Heats {
					So(len(h.Presentations), ShouldEqual, 3)
					So(h.Presentations[0].Sequence, ShouldEqual, 1)
					So(h.Presentations[2].Sequence, ShouldEqual, 3)
					So(h.Presentations[1].Duration, ShouldEqual, 90*time.Second)
				}
			})
		})

		Convey("When the roles are unbalanced", func() {
			res, err := a.Allocate(roster(model.RoleLeader, 30), roster(model.RoleFollower, 16))

			Convey("Then the smaller role decides the heat count and every dancer still gets a heat", func() {
				So(err, ShouldBeNil)
				So(res.CoupleCount, ShouldEqual, 16)
				So(len(res.Heats), ShouldEqual, 2)
				So(len(res.Heats[0].Leaders)+len(res.Heats[1].Leaders), ShouldEqual, 30)
				So(len(res.Heats[0].Followers), ShouldEqual, 8)
				So(len(res.Heats[1].Followers), ShouldEqual, 8)
			})
		})

		Convey("When a role roster is empty", func() {
			_, errL := a.Allocate(nil, roster(model.RoleFollower, 3))
			_, errF := a.Allocate(roster(model.RoleLeader, 3), nil)

			Convey("Then a validation error is returned", func() {
				So(errors.Is(errL, model.ErrValidation), ShouldBeTrue)
				So(errors.Is(errF, model.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestAllocatePresentations(t *testing.T) {
	Convey("Given an allocator with custom presentations", t, func() {
		a := heats.NewAllocator(heats.WithPresentations([]string{"Blues", "Swing"}, 2*time.Minute))

		Convey("When heats are allocated", func() {
			res, err := a.Allocate(roster(model.RoleLeader, 4), roster(model.RoleFollower, 4))

			Convey("Then every heat dances the configured rotation", func() {
				So(err, ShouldBeNil)
				for _, h := range res.Heats {
					So(len(h.Presentations), ShouldEqual, 2)
					So(h.Presentations[0].Style, ShouldEqual, "Blues")
					So(h.Presentations[1].Sequence, ShouldEqual, 2)
					So(h.Presentations[1].Duration, ShouldEqual, 2*time.Minute)
				}
			})
		})
	})

	Convey("Given only a custom duration", t, func() {
		a := heats.NewAllocator(heats.WithPresentations(nil, time.Minute))

		Convey("Then the default styles are kept", func() {
			res, err := a.Allocate(roster(model.RoleLeader, 2), roster(model.RoleFollower, 2))
			So(err, ShouldBeNil)
			So(len(res.Heats[0].Presentations), ShouldEqual, 3)
			So(res.Heats[0].Presentations[0].Style, ShouldEqual, "Slow")
			So(res.Heats[0].Presentations[0].Duration, ShouldEqual, time.Minute)
		})
	})
}

func TestAllocateMembership(t *testing.T) {
	Convey("Given every roster size from 1 to 40 per role", t, func() {
		a := heats.NewAllocator()
		for l := 1; l <= 40; l += 3 {
			for f := 1; f <= 40; f += 5 {
				leaders := roster(model.RoleLeader, l)
				followers := roster(model.RoleFollower, f)
				res, err := a.Allocate(leaders, followers)
				So(err, ShouldBeNil)
				So(len(res.Heats), ShouldEqual, heats.HeatCount(min(l, f)))

				seen := map[string]int{}
				for _, h := range res.Heats {
					for _, id := range h.Members() {
						seen[id]++
					}
				}
				So(len(seen), ShouldEqual, l+f)
				for _, n := range seen {
					So(n, ShouldEqual, 1)
				}
			}
		}
	})
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	Convey("Given a roster slice", t, func() {
		leaders := roster(model.RoleLeader, 10)
		before := append([]model.Participant(nil), leaders...)

		_, err := heats.NewAllocator().Allocate(leaders, roster(model.RoleFollower, 10))

		So(err, ShouldBeNil)
		So(leaders, ShouldResemble, before)
	})
}
