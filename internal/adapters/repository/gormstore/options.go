package gormstore

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock sets the time source used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogLevel sets the gorm query log level. Silent by default.
func WithLogLevel(level gormlogger.LogLevel) Option {
	return func(s *Store) {
		s.logLevel = level
	}
}
