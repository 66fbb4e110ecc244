// Package competition owns the phase state machine of one competition.
//
// Every transition runs under an exclusive lock and commits its writes and
// the resulting snapshot through a single store transaction. Score
// submissions share the lock, so they never interleave with a transition.
package competition

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/heats"
	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
	"github.com/okian/dancefloor/pkg/logger"
	"github.com/okian/dancefloor/pkg/metrics"
)

// Transition action names, used in logs, metrics and feed events.
const (
	ActionBootstrap     = "bootstrap"
	ActionGenerateHeats = "generate_heats"
	ActionSetActiveHeat = "set_active_heat"
	ActionSemifinal     = "advance_to_semifinal"
	ActionFinal         = "advance_to_final"
	ActionWinners       = "determine_winners"
	ActionReset         = "reset"
)

var phases = []string{string(model.PhaseHeats), string(model.PhaseSemifinal), string(model.PhaseFinal)}

// Feed receives every committed snapshot. Enqueue must not block.
type Feed interface {
	Enqueue(ctx context.Context, e model.SnapshotEvent) bool
}

// Competition is the explicit context object for one competition.
type Competition struct {
	mu sync.RWMutex

	store     repository.Store
	ledger    *ledger.Ledger
	allocator *heats.Allocator
	ranker    *ranking.Engine
	feed      Feed
	logger    logger.Logger
	tracer    trace.Tracer
	views     singleflight.Group
}

// New creates a competition on top of store.
func New(store repository.Store, opts ...Option) *Competition {
	c := &Competition{
		store:     store,
		allocator: heats.NewAllocator(),
		ranker:    ranking.NewEngine(),
		logger:    logger.Nop(),
		tracer:    otel.Tracer("competition"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ledger == nil {
		c.ledger = ledger.New(store, ledger.WithLogger(c.logger))
	}
	return c
}

// Init writes an empty HEATS snapshot when the store holds none.
func (c *Competition) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap, err := c.store.LatestSnapshot(ctx); err == nil {
		c.observeSnapshot(snap)
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	var snap model.Snapshot
	err := c.store.Atomically(ctx, func(tx repository.Store) error {
		var err error
		snap, err = current(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}
	c.observeSnapshot(snap)
	c.publish(ctx, ActionBootstrap, snap)
	return nil
}

// current returns the latest snapshot, bootstrapping an empty HEATS snapshot
// through tx when none exists.
func current(ctx context.Context, tx repository.Store) (model.Snapshot, error) {
	snap, err := tx.LatestSnapshot(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Snapshot{}, err
	}
	return tx.AppendSnapshot(ctx, model.Snapshot{Phase: model.PhaseHeats})
}

// peek returns the latest snapshot without writing. An empty store reads as
// an empty HEATS snapshot.
func (c *Competition) peek(ctx context.Context) (model.Snapshot, error) {
	snap, err := c.store.LatestSnapshot(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return model.Snapshot{Phase: model.PhaseHeats}, nil
	}
	return snap, err
}

// step computes the next snapshot from cur, writing through tx as needed.
type step func(ctx context.Context, tx repository.Store, cur model.Snapshot) (model.Snapshot, error)

// transition runs fn under the exclusive lock inside one store transaction
// and appends the snapshot it returns.
func (c *Competition) transition(ctx context.Context, action string, fn step, attrs ...attribute.KeyValue) (model.Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "competition."+action, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	var committed model.Snapshot
	err := c.store.Atomically(ctx, func(tx repository.Store) error {
		cur, err := current(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(ctx, tx, cur)
		if err != nil {
			return err
		}
		committed, err = tx.AppendSnapshot(ctx, next)
		return err
	})
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		kind := kindLabel(err)
		metrics.RecordTransition(action, kind, latency)
		metrics.RecordErrorByComponent("competition", kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrInvalidPhase) || errors.Is(err, model.ErrNotFound) {
			c.logger.Warn(ctx, "transition rejected", logger.String("action", action), logger.Error(err))
		} else {
			c.logger.Error(ctx, "transition failed", logger.String("action", action), logger.Error(err))
		}
		return model.Snapshot{}, err
	}

	metrics.RecordTransition(action, "ok", latency)
	span.SetAttributes(
		attribute.String("snapshot.phase", string(committed.Phase)),
		attribute.Int64("snapshot.version", committed.Version),
	)
	c.observeSnapshot(committed)
	c.logger.Info(ctx, "transition committed",
		logger.String("action", action),
		logger.String("phase", string(committed.Phase)),
		logger.Int64("version", committed.Version),
	)
	c.publish(ctx, action, committed)
	return committed, nil
}

func (c *Competition) observeSnapshot(s model.Snapshot) {
	metrics.UpdateCurrentPhase(string(s.Phase), phases)
	metrics.UpdateSnapshotVersion(s.Version)
}

func (c *Competition) publish(ctx context.Context, action string, s model.Snapshot) {
	if c.feed == nil {
		return
	}
	if !c.feed.Enqueue(ctx, model.SnapshotEvent{Action: action, Snapshot: s}) {
		c.logger.Warn(ctx, "feed queue full, snapshot event dropped",
			logger.String("action", action), logger.Int64("version", s.Version))
	}
}

// reportTies logs standings decided by the tie-breaker.
func (c *Competition) reportTies(ctx context.Context, action string, rs ranking.RoleStandings) {
	tied := rs.TieBroken()
	if len(tied) == 0 {
		return
	}
	ids := make([]string, len(tied))
	for i, s := range tied {
		ids[i] = s.Participant.ID
	}
	metrics.RecordTieBreaks(len(tied))
	c.logger.Warn(ctx, "ranking tie resolved by tie-breaker",
		logger.String("action", action),
		logger.String("rule", c.ranker.TieBreakerName()),
		logger.Strings("participants", ids),
	)
}

// kindLabel names an error kind for metrics.
func kindLabel(err error) string {
	switch model.KindOf(err) {
	case model.ErrValidation:
		return "validation"
	case model.ErrNotFound:
		return "not_found"
	case model.ErrInvalidPhase:
		return "invalid_phase"
	case model.ErrStorageUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}
