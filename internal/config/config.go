// Package config defines service configuration and how it is loaded.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// DatabaseDSN selects the PostgreSQL store. Empty keeps everything in memory.
	DatabaseDSN string `koanf:"database_dsn"`

	// RosterFile is a YAML roster imported at startup when set.
	RosterFile string `koanf:"roster_file"`

	// TieBreak names the rule ordering fully tied participants: number or random.
	TieBreak string `koanf:"tie_break" validate:"oneof=number random"`

	// TieBreakSeed seeds the random tie-breaker. Zero picks a fresh seed.
	TieBreakSeed uint64 `koanf:"tie_break_seed"`

	// SubmitRatePerSecond limits score submissions per judge. Zero disables the limit.
	SubmitRatePerSecond float64 `koanf:"submit_rate_per_second" validate:"gte=0"`
	SubmitBurst         int     `koanf:"submit_burst" validate:"gte=1"`

	// FeedQueueSize bounds the snapshot events waiting for broadcast.
	FeedQueueSize int `koanf:"feed_queue_size" validate:"gte=1"`

	// FeedOriginPatterns lists cross-origin hosts allowed to subscribe to the feed.
	FeedOriginPatterns []string `koanf:"feed_origin_patterns" validate:"dive,required"`

	// PresentationStyles is the song rotation danced in every heat. Empty keeps
	// Slow, Medium and Fast.
	PresentationStyles []string `koanf:"presentation_styles" validate:"max=10,dive,required"`

	// PresentationDuration is how long each presentation is danced.
	PresentationDuration time.Duration `koanf:"presentation_duration" validate:"gt=0"`

	// MaxRequestBytes caps request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes" validate:"gte=1024"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		TieBreak:             "number",
		SubmitRatePerSecond:  20,
		SubmitBurst:          40,
		FeedQueueSize:        1024,
		PresentationDuration: 90 * time.Second,
		MaxRequestBytes:      1 << 20,
		ShutdownTimeout:      10 * time.Second,
	}
}
