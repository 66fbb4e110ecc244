package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/dancefloor/internal/config"
	"github.com/okian/dancefloor/pkg/logger"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("DANCE_ADDR", ":8088")
			_ = os.Setenv("DANCE_FEED_QUEUE_SIZE", "64")
			_ = os.Setenv("DANCE_TIE_BREAK", "random")
			defer func() {
				_ = os.Unsetenv("DANCE_ADDR")
				_ = os.Unsetenv("DANCE_FEED_QUEUE_SIZE")
				_ = os.Unsetenv("DANCE_TIE_BREAK")
			}()

			convey.Convey("Then it is loaded and builds a service", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8088")
				convey.So(cfg.FeedQueueSize, convey.ShouldEqual, 64)

				svc := newService(cfg, logger.Nop())
				convey.So(svc.GetStats()["tieBreak"], convey.ShouldEqual, "random")
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given a started service behind the router", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		svc := newService(cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		srv := httptest.NewServer(newRouter(svc, cfg, logger.Nop()))
		defer srv.Close()

		get := func(path string) int {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
			convey.So(err, convey.ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			return resp.StatusCode
		}

		convey.Convey("Then every surface is mounted", func() {
			for _, path := range []string{"/healthz", "/stats", "/competition", "/metrics", "/openapi.yaml", "/api-docs"} {
				convey.So(get(path), convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the feed accepts websocket subscribers", func() {
			conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/feed", nil)
			convey.So(err, convey.ShouldBeNil)
			defer conn.CloseNow()

			_, data, err := conn.Read(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldContainSubstring, `"type":"snapshot"`)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When the context expires", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then they return without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
				svc := newService(config.New(), logger.Nop())
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating directly", func() {
			convey.Convey("Then nothing panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				svc := newService(config.New(), logger.Nop())
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}
