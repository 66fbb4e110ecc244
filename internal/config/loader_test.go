package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/dancefloor/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv(config.EnvDotFile, filepath.Join(t.TempDir(), "absent.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TieBreak, convey.ShouldEqual, "number")
				convey.So(cfg.FeedQueueSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DANCE_ADDR", ":8080")
			_ = os.Setenv("DANCE_TIE_BREAK", "random")
			_ = os.Setenv("DANCE_TIE_BREAK_SEED", "42")
			_ = os.Setenv("DANCE_SUBMIT_RATE_PER_SECOND", "2.5")
			_ = os.Setenv("DANCE_SHUTDOWN_TIMEOUT", "3s")
			_ = os.Setenv("DANCE_PRESENTATION_STYLES", "Waltz,Tango")
			_ = os.Setenv("DANCE_PRESENTATION_DURATION", "2m")
			_ = os.Setenv("DANCE_FEED_ORIGIN_PATTERNS", "scores.example.com")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TieBreak, convey.ShouldEqual, "random")
				convey.So(cfg.TieBreakSeed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.SubmitRatePerSecond, convey.ShouldEqual, 2.5)
				convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.PresentationStyles, convey.ShouldResemble, []string{"Waltz", "Tango"})
				convey.So(cfg.PresentationDuration, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.FeedOriginPatterns, convey.ShouldResemble, []string{"scores.example.com"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
# competition night
addr: ":9090"
database_dsn: "postgres://dance@localhost/dance"
roster_file: roster.yaml
feed_queue_size: 16
presentation_styles: [Blues, Swing]
`)
			_ = os.Setenv(config.EnvConfig, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, "postgres://dance@localhost/dance")
				convey.So(cfg.RosterFile, convey.ShouldEqual, "roster.yaml")
				convey.So(cfg.FeedQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.PresentationStyles, convey.ShouldResemble, []string{"Blues", "Swing"})
				convey.So(cfg.SubmitBurst, convey.ShouldEqual, 40) // From defaults
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("DANCE_ADDR", ":7070")

				cfg, err := config.Load(ctx)

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.FeedQueueSize, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When a dotenv file is present", func() {
			path := filepath.Join(t.TempDir(), "dance.env")
			convey.So(os.WriteFile(path, []byte("DANCE_LOG_LEVEL=debug\nDANCE_ADDR=:6060\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvDotFile, path)
			_ = os.Setenv("DANCE_ADDR", ":5050")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv(config.EnvConfig, createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfig, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		invalid := map[string][2]string{
			"empty addr":            {"DANCE_ADDR", ""},
			"unknown tie-break":     {"DANCE_TIE_BREAK", "coin"},
			"unknown log level":     {"DANCE_LOG_LEVEL", "loud"},
			"zero feed queue":       {"DANCE_FEED_QUEUE_SIZE", "0"},
			"negative submit rate":  {"DANCE_SUBMIT_RATE_PER_SECOND", "-1"},
			"non-numeric burst":     {"DANCE_SUBMIT_BURST", "many"},
			"tiny request body cap": {"DANCE_MAX_REQUEST_BYTES", "10"},
			"zero presentation":     {"DANCE_PRESENTATION_DURATION", "0s"},
		}
		for name, kv := range invalid {
			convey.Convey("When loading config with "+name, func() {
				_ = os.Setenv(kv[0], kv[1])

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return an invalid config error", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(cfg, convey.ShouldBeNil)
				})
			})
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		config.EnvConfig,
		config.EnvDotFile,
		"DANCE_ADDR",
		"DANCE_LOG_LEVEL",
		"DANCE_DATABASE_DSN",
		"DANCE_ROSTER_FILE",
		"DANCE_TIE_BREAK",
		"DANCE_TIE_BREAK_SEED",
		"DANCE_SUBMIT_RATE_PER_SECOND",
		"DANCE_SUBMIT_BURST",
		"DANCE_FEED_QUEUE_SIZE",
		"DANCE_MAX_REQUEST_BYTES",
		"DANCE_SHUTDOWN_TIMEOUT",
		"DANCE_FEED_ORIGIN_PATTERNS",
		"DANCE_PRESENTATION_STYLES",
		"DANCE_PRESENTATION_DURATION",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "dance-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}
	return path
}
