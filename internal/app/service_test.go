package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/dancefloor/internal/app"
	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then nothing is running yet", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Competition(), ShouldBeNil)
			So(errors.Is(svc.Ping(context.Background()), service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		svc := service.New(service.WithQueueSize(8))
		defer svc.Stop(ctx)

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it starts on the memory store with a HEATS snapshot", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["store"], ShouldEqual, "memory")
				So(stats["phase"], ShouldEqual, "HEATS")
				So(stats["feedQueueSize"], ShouldEqual, 8)
				So(svc.Ping(ctx), ShouldBeNil)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Competition(), ShouldNotBeNil)
			})
		})
	})

	Convey("Given an unknown tie-break rule", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		svc := service.New(service.WithTieBreak("coin", 0))

		Convey("Then Start fails with a validation error", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a missing roster file", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		svc := service.New(service.WithRosterFile(filepath.Join(t.TempDir(), "missing.yaml")))

		Convey("Then Start fails", func() {
			So(svc.Start(ctx), ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_RosterFile(t *testing.T) {
	Convey("Given a roster file", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		path := filepath.Join(t.TempDir(), "roster.yaml")
		So(os.WriteFile(path, []byte(rosterYAML), 0o600), ShouldBeNil)

		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithRosterFile(path))
		defer svc.Stop(ctx)

		Convey("When the service starts", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the roster is in the injected store", func() {
				ps, err := store.ListParticipants(ctx)
				So(err, ShouldBeNil)
				So(len(ps), ShouldEqual, 4)
				js, err := store.ListJudges(ctx)
				So(err, ShouldBeNil)
				So(len(js), ShouldEqual, 2)
				So(svc.GetStats()["participants"], ShouldEqual, 4)
			})
		})
	})
}

func TestService_Presentations(t *testing.T) {
	Convey("Given a service with a custom presentation rotation", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		path := filepath.Join(t.TempDir(), "roster.yaml")
		So(os.WriteFile(path, []byte(rosterYAML), 0o600), ShouldBeNil)

		svc := service.New(
			service.WithRosterFile(path),
			service.WithPresentations([]string{"Waltz", "Tango"}, 2*time.Minute),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When heats are generated", func() {
			_, err := svc.Competition().GenerateHeats(ctx, "")
			So(err, ShouldBeNil)

			Convey("Then every heat dances the configured rotation", func() {
				v, err := svc.Competition().Snapshot(ctx)
				So(err, ShouldBeNil)
				So(len(v.Heats), ShouldEqual, 1)
				ps := v.Heats[0].Presentations
				So(len(ps), ShouldEqual, 2)
				So(ps[0].Style, ShouldEqual, "Waltz")
				So(ps[1].Style, ShouldEqual, "Tango")
				So(ps[1].Duration, ShouldEqual, 2*time.Minute)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := testContext()
		defer cancel()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop(ctx)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And stopping twice is safe", func() {
				svc.Stop(ctx)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithTieBreak("random", 7))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then only static settings are reported", func() {
				So(stats["started"], ShouldEqual, false)
				So(stats["tieBreak"], ShouldEqual, "random")
				_, ok := stats["phase"]
				So(ok, ShouldBeFalse)
			})
		})
	})
}
