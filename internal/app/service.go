// Package service assembles the competition, its store and the snapshot feed
// into one process-level service.
package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/okian/dancefloor/internal/adapters/http/feed"
	eventqueue "github.com/okian/dancefloor/internal/adapters/mq/queue"
	feedworker "github.com/okian/dancefloor/internal/adapters/mq/worker"
	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/adapters/repository/gormstore"
	"github.com/okian/dancefloor/internal/adapters/roster"
	"github.com/okian/dancefloor/internal/domain/competition"
	"github.com/okian/dancefloor/internal/domain/heats"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
	"github.com/okian/dancefloor/pkg/logger"
	"github.com/okian/dancefloor/pkg/metrics"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
)

// ErrNotStarted is returned by accessors used before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the lifecycle of every long-lived component.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	closer  func() error
	backend string
	queue   *eventqueue.InMemoryQueue
	hub     *feed.Hub
	worker  *feedworker.InMemoryWorker
	comp    *competition.Competition

	databaseDSN    string
	rosterFile     string
	tieBreak       string
	tieBreakSeed   uint64
	queueSize      int
	originPatterns []string

	presentationStyles   []string
	presentationDuration time.Duration

	started bool
	logger  logger.Logger
}

// New constructs a Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		tieBreak:  ranking.TieBreakNumber,
		queueSize: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, imports the roster file, starts the feed worker and
// makes sure a current snapshot exists.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	tb, err := ranking.NewTieBreaker(s.tieBreak, s.tieBreakSeed)
	if err != nil {
		return err
	}

	if err := s.openStore(ctx); err != nil {
		return err
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.hub = feed.NewHub(
		feed.WithOriginPatterns(s.originPatterns...),
		feed.WithLogger(s.logger.Named("feed")),
	)
	s.worker = feedworker.NewInMemoryWorker(s.queue, s.hub, feedworker.WithLogger(s.logger))
	s.comp = competition.New(s.store,
		competition.WithAllocator(heats.NewAllocator(heats.WithPresentations(s.presentationStyles, s.presentationDuration))),
		competition.WithRanker(ranking.NewEngine(ranking.WithTieBreaker(tb))),
		competition.WithFeed(s.queue),
		competition.WithLogger(s.logger.Named("competition")),
	)

	go s.worker.Run(context.WithoutCancel(ctx))

	if err := s.comp.Init(ctx); err != nil {
		s.teardown(ctx)
		return err
	}
	if s.rosterFile != "" {
		if err := s.importRosterFile(ctx); err != nil {
			s.teardown(ctx)
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "competition service started",
		logger.String("store", s.backend),
		logger.String("tieBreak", tb.Name()),
		logger.Int("feedQueueSize", s.queueSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) error {
	if s.store != nil {
		if s.backend == "" {
			s.backend = backendMemory
		}
		return nil
	}
	if s.databaseDSN == "" {
		s.store = repository.NewMemoryStore()
		s.backend = backendMemory
		return nil
	}
	gs, err := gormstore.Open(ctx, s.databaseDSN)
	if err != nil {
		return err
	}
	s.store, s.closer, s.backend = gs, gs.Close, backendPostgres
	return nil
}

func (s *Service) importRosterFile(ctx context.Context) error {
	r, err := roster.Load(s.rosterFile)
	if err != nil {
		return err
	}
	res, err := s.comp.ImportRoster(ctx, r.Participants, r.Judges)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "roster imported",
		logger.String("file", s.rosterFile),
		logger.Int("participants", res.Participants),
		logger.Int("judges", res.Judges),
	)
	return nil
}

// Stop drains the feed worker, disconnects subscribers and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping competition service...")
	s.teardown(ctx)
	s.started = false
	s.logger.Info(ctx, "competition service stopped")
}

func (s *Service) teardown(ctx context.Context) {
	if s.worker != nil {
		if err := s.worker.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "feed worker did not stop in time", logger.Error(err))
		}
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.closer != nil {
		if err := s.closer(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
		s.store, s.closer = nil, nil
	}
}

// Competition returns the running competition, or nil before Start.
func (s *Service) Competition() *competition.Competition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comp
}

// Feed returns the websocket handler for snapshot subscribers.
func (s *Service) Feed() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hub == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, ErrNotStarted.Error(), http.StatusServiceUnavailable)
		})
	}
	return s.hub
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return ErrNotStarted
	}
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"store":         s.backend,
		"tieBreak":      s.tieBreak,
		"feedQueueSize": s.queueSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["feedQueueLength"] = queueLen
	stats["feedSubscribers"] = s.hub.Subscribers()
	metrics.UpdateQueueSize(queueLen)

	if snap, err := s.store.LatestSnapshot(ctx); err == nil {
		stats["phase"] = string(snap.Phase)
		stats["snapshotVersion"] = snap.Version
	} else if !errors.Is(err, model.ErrNotFound) {
		stats["storeError"] = err.Error()
	}
	if ps, err := s.store.ListParticipants(ctx); err == nil {
		stats["participants"] = len(ps)
	}
	if hs, err := s.store.ListHeats(ctx); err == nil {
		stats["heats"] = len(hs)
	}
	return stats
}
