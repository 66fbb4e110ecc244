// Package ledger validates and records judge scores.
package ledger

import (
	"context"
	"time"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/logger"
)

// Submission is one judge's batch of scores. ParticipantIDs and Values are
// parallel slices.
type Submission struct {
	JudgeID        string      `json:"judgeId"`
	ParticipantIDs []string    `json:"participantIds"`
	Values         []int       `json:"values"`
	Phase          model.Phase `json:"phase"`
	HeatID         string      `json:"heatId,omitempty"`
}

// Ledger records scores in a store.
type Ledger struct {
	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// New creates a ledger writing to store.
func New(store repository.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now, logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit validates the whole batch and upserts it. Nothing is written when
// any entry is rejected. It returns the number of accepted entries.
func (l *Ledger) Submit(ctx context.Context, sub Submission) (int, error) {
	const op = "ledger.submit"
	scores, err := l.Validate(ctx, sub)
	if err != nil {
		l.logger.Debug(ctx, "submission rejected",
			logger.String("judge", sub.JudgeID),
			logger.String("phase", string(sub.Phase)),
			logger.Error(err),
		)
		return 0, err
	}
	if err := l.store.UpsertScores(ctx, scores); err != nil {
		l.logger.Error(ctx, "score upsert failed", logger.String("judge", sub.JudgeID), logger.Error(err))
		if model.KindOf(err) == nil {
			err = model.WrapKind(op, model.ErrStorageUnavailable, err)
		}
		return 0, err
	}
	return len(scores), nil
}

// Validate checks sub against the roster and heats and returns the scores it
// would write.
func (l *Ledger) Validate(ctx context.Context, sub Submission) ([]model.Score, error) {
	const op = "ledger.validate"

	if err := checkShape(op, sub); err != nil {
		return nil, err
	}

	judge, err := l.store.GetJudge(ctx, sub.JudgeID)
	if err != nil {
		return nil, err
	}

	var heat model.Heat
	if sub.Phase == model.PhaseHeats {
		if heat, err = l.store.GetHeat(ctx, sub.HeatID); err != nil {
			return nil, err
		}
	}

	now := l.now()
	scores := make([]model.Score, len(sub.ParticipantIDs))
	for i, pid := range sub.ParticipantIDs {
		p, err := l.store.GetParticipant(ctx, pid)
		if err != nil {
			return nil, err
		}
		if !judge.CanScore(p) {
			return nil, model.NewKindf(op, model.ErrValidation,
				"judge %s scores %s, participant %s is %s", judge.ID, judge.Role, p.ID, p.Role)
		}
		if sub.Phase == model.PhaseHeats && !heat.HasMember(p.ID) {
			return nil, model.NewKindf(op, model.ErrValidation, "participant %s is not in heat %s", p.ID, heat.ID)
		}
		scores[i] = model.Score{
			JudgeID:       judge.ID,
			ParticipantID: p.ID,
			Value:         sub.Values[i],
			Phase:         sub.Phase,
			HeatID:        sub.HeatID,
			CreatedAt:     now,
		}
	}
	return scores, nil
}

// checkShape validates what can be checked without the store.
func checkShape(op string, sub Submission) error {
	switch {
	case sub.JudgeID == "":
		return model.NewKind(op, model.ErrValidation, "judgeId is required")
	case len(sub.ParticipantIDs) == 0:
		return model.NewKind(op, model.ErrValidation, "participantIds is empty")
	case len(sub.ParticipantIDs) != len(sub.Values):
		return model.NewKindf(op, model.ErrValidation,
			"%d participants but %d values", len(sub.ParticipantIDs), len(sub.Values))
	}

	switch sub.Phase {
	case model.PhaseHeats:
		if sub.HeatID == "" {
			return model.NewKind(op, model.ErrValidation, "heatId is required in HEATS")
		}
	case model.PhaseSemifinal, model.PhaseFinal:
		if sub.HeatID != "" {
			return model.NewKindf(op, model.ErrValidation, "heatId is not allowed in %s", sub.Phase)
		}
	default:
		return model.NewKindf(op, model.ErrValidation, "unknown phase %q", sub.Phase)
	}

	seen := make(map[string]struct{}, len(sub.ParticipantIDs))
	for i, pid := range sub.ParticipantIDs {
		if pid == "" {
			return model.NewKindf(op, model.ErrValidation, "participantIds[%d] is empty", i)
		}
		if _, dup := seen[pid]; dup {
			return model.NewKindf(op, model.ErrValidation, "participant %s appears twice", pid)
		}
		seen[pid] = struct{}{}
		if !model.ValidValue(sub.Values[i]) {
			return model.NewKindf(op, model.ErrValidation, "value %d for %s is outside [%d,%d]",
				sub.Values[i], pid, model.MinScoreValue, model.MaxScoreValue)
		}
	}
	return nil
}

// Query returns the scores matching q.
func (l *Ledger) Query(ctx context.Context, q model.ScoreQuery) ([]model.Score, error) {
	return l.store.QueryScores(ctx, q)
}
