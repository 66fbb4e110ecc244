package service

import (
	"time"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDatabaseDSN selects the PostgreSQL store. An empty DSN keeps the
// in-memory store.
func WithDatabaseDSN(dsn string) Option {
	return func(s *Service) {
		s.databaseDSN = dsn
	}
}

// WithStore uses an already opened store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRosterFile imports a YAML roster during Start.
func WithRosterFile(path string) Option {
	return func(s *Service) {
		s.rosterFile = path
	}
}

// WithTieBreak selects the tie-break rule and the seed of the random rule.
func WithTieBreak(name string, seed uint64) Option {
	return func(s *Service) {
		if name != "" {
			s.tieBreak = name
		}
		s.tieBreakSeed = seed
	}
}

// WithQueueSize bounds the snapshot events waiting for broadcast.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPresentations sets the song rotation and duration of every generated
// heat. Empty styles or a non-positive duration keep the allocator defaults.
func WithPresentations(styles []string, duration time.Duration) Option {
	return func(s *Service) {
		s.presentationStyles = styles
		s.presentationDuration = duration
	}
}

// WithOriginPatterns lists the cross-origin hosts allowed on the feed.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Service) {
		s.originPatterns = patterns
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
