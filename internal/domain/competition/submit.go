package competition

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/metrics"
)

// SubmitResult reports how many scores were stored.
type SubmitResult struct {
	AcceptedCount int `json:"acceptedCount"`
}

// SubmitScores records a judge's batch for the current phase. Submissions
// run concurrently with each other but never during a transition.
func (c *Competition) SubmitScores(ctx context.Context, sub ledger.Submission) (SubmitResult, error) {
	ctx, span := c.tracer.Start(ctx, "competition.submit_scores", trace.WithAttributes(
		attribute.String("judge.id", sub.JudgeID),
		attribute.String("phase", string(sub.Phase)),
		attribute.Int("entries", len(sub.ParticipantIDs)),
	))
	defer span.End()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.submit(ctx, sub)
	if err != nil {
		kind := kindLabel(err)
		metrics.RecordScoresRejected(kind)
		metrics.RecordErrorByComponent("ledger", kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SubmitResult{}, err
	}
	metrics.RecordScoresAccepted(string(sub.Phase), n)
	return SubmitResult{AcceptedCount: n}, nil
}

func (c *Competition) submit(ctx context.Context, sub ledger.Submission) (int, error) {
	const op = "competition.submit_scores"

	phase, err := model.ParsePhase(string(sub.Phase))
	if err != nil {
		return 0, err
	}
	sub.Phase = phase

	cur, err := c.peek(ctx)
	if err != nil {
		return 0, err
	}
	if phase != cur.Phase {
		return 0, model.NewKindf(op, model.ErrInvalidPhase, "scores for %s cannot be submitted during %s", phase, cur.Phase)
	}

	var cohort *model.Cohort
	switch phase {
	case model.PhaseSemifinal:
		cohort = cur.Semifinalists
	case model.PhaseFinal:
		cohort = cur.Finalists
	}
	if phase != model.PhaseHeats {
		for _, pid := range sub.ParticipantIDs {
			if !cohort.Contains(pid) {
				return 0, model.NewKindf(op, model.ErrValidation, "participant %s is not part of the %s cohort", pid, phase)
			}
		}
	}

	return c.ledger.Submit(ctx, sub)
}
