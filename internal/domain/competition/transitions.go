package competition

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
	"github.com/okian/dancefloor/pkg/metrics"
)

// HeatsResult reports a heat allocation.
type HeatsResult struct {
	HeatCount   int `json:"heatCount"`
	CoupleCount int `json:"coupleCount"`
}

// ActiveHeatResult reports the heat being judged.
type ActiveHeatResult struct {
	ActiveHeatID string `json:"activeHeatId"`
}

// SemifinalResult reports the frozen semifinal cohort size.
type SemifinalResult struct {
	SemifinalistCount int `json:"semifinalistCount"`
}

// FinalResult reports the frozen final cohort size.
type FinalResult struct {
	FinalistCount int `json:"finalistCount"`
}

// WinnersResult carries the podiums.
type WinnersResult struct {
	Winners model.Winners `json:"winners"`
}

// RosterResult reports an imported roster.
type RosterResult struct {
	Participants int `json:"participants"`
	Judges       int `json:"judges"`
}

// GenerateHeats allocates every registered participant into heats and
// re-enters HEATS. Previous heats and downstream cohorts are dropped; scores
// are kept. Valid from any phase.
func (c *Competition) GenerateHeats(ctx context.Context, category string) (HeatsResult, error) {
	var res HeatsResult
	_, err := c.transition(ctx, ActionGenerateHeats, func(ctx context.Context, tx repository.Store, _ model.Snapshot) (model.Snapshot, error) {
		ps, err := tx.ListParticipants(ctx)
		if err != nil {
			return model.Snapshot{}, err
		}
		leaders, followers := model.SplitByRole(ps)
		alloc, err := c.allocator.Allocate(leaders, followers)
		if err != nil {
			return model.Snapshot{}, err
		}
		if err := tx.ReplaceHeats(ctx, alloc.Heats); err != nil {
			return model.Snapshot{}, err
		}
		res = HeatsResult{HeatCount: len(alloc.Heats), CoupleCount: alloc.CoupleCount}
		return model.Snapshot{Phase: model.PhaseHeats, Category: category}, nil
	}, attribute.String("category", category))
	if err != nil {
		return HeatsResult{}, err
	}
	metrics.UpdateHeatCount(res.HeatCount)
	return res, nil
}

// SetActiveHeat records which heat is being judged. Valid only in HEATS.
func (c *Competition) SetActiveHeat(ctx context.Context, heatID string) (ActiveHeatResult, error) {
	const op = "competition.set_active_heat"
	_, err := c.transition(ctx, ActionSetActiveHeat, func(ctx context.Context, tx repository.Store, cur model.Snapshot) (model.Snapshot, error) {
		if cur.Phase != model.PhaseHeats {
			return model.Snapshot{}, model.NewKindf(op, model.ErrInvalidPhase, "active heat can only change in HEATS, current phase is %s", cur.Phase)
		}
		h, err := tx.GetHeat(ctx, heatID)
		if err != nil {
			return model.Snapshot{}, err
		}
		next := cur.Next()
		next.ActiveHeatID = &h.ID
		return next, nil
	}, attribute.String("heat.id", heatID))
	if err != nil {
		return ActiveHeatResult{}, err
	}
	return ActiveHeatResult{ActiveHeatID: heatID}, nil
}

// AdvanceToSemifinal ranks every heat member on HEATS scores across all
// heats and freezes the top of each role. Valid from any phase.
func (c *Competition) AdvanceToSemifinal(ctx context.Context, category string) (SemifinalResult, error) {
	var res SemifinalResult
	_, err := c.transition(ctx, ActionSemifinal, func(ctx context.Context, tx repository.Store, _ model.Snapshot) (model.Snapshot, error) {
		cohort, err := heatCohort(ctx, tx, "")
		if err != nil {
			return model.Snapshot{}, err
		}
		scores, err := tx.QueryScores(ctx, model.ScoreQuery{Phase: model.PhaseHeats})
		if err != nil {
			return model.Snapshot{}, err
		}
		rs := c.ranker.RankCohort(cohort, scores)
		c.reportTies(ctx, ActionSemifinal, rs)
		semifinalists := ranking.Cut(rs, ranking.SemifinalCut)

		res.SemifinalistCount = semifinalists.Size()
		return model.Snapshot{Phase: model.PhaseSemifinal, Category: category, Semifinalists: semifinalists}, nil
	}, attribute.String("category", category))
	if err != nil {
		return SemifinalResult{}, err
	}
	return res, nil
}

// AdvanceToFinal ranks the semifinalists on SEMIFINAL scores, freezes the
// top of each role and purges the SEMIFINAL scores in the same commit.
func (c *Competition) AdvanceToFinal(ctx context.Context) (FinalResult, error) {
	const op = "competition.advance_to_final"
	var res FinalResult
	_, err := c.transition(ctx, ActionFinal, func(ctx context.Context, tx repository.Store, cur model.Snapshot) (model.Snapshot, error) {
		if cur.Phase != model.PhaseSemifinal {
			return model.Snapshot{}, model.NewKindf(op, model.ErrInvalidPhase, "final requires SEMIFINAL, current phase is %s", cur.Phase)
		}
		cohort := model.Cohort{}
		if cur.Semifinalists != nil {
			cohort = *cur.Semifinalists.Clone()
		}
		scores, err := tx.QueryScores(ctx, model.ScoreQuery{Phase: model.PhaseSemifinal, ParticipantIDs: cohort.IDs()})
		if err != nil {
			return model.Snapshot{}, err
		}
		rs := c.ranker.RankCohort(cohort, scores)
		c.reportTies(ctx, ActionFinal, rs)
		finalists := ranking.Cut(rs, ranking.FinalCut)

		if _, err := tx.DeleteScoresByPhase(ctx, model.PhaseSemifinal); err != nil {
			return model.Snapshot{}, err
		}

		next := cur.Next()
		next.Phase = model.PhaseFinal
		next.ActiveHeatID = nil
		next.Finalists = finalists
		next.Winners = nil
		res.FinalistCount = finalists.Size()
		return next, nil
	})
	if err != nil {
		return FinalResult{}, err
	}
	return res, nil
}

// DetermineWinners ranks the finalists on FINAL scores and re-emits the FINAL
// snapshot with podiums. Valid only in FINAL; may be repeated.
func (c *Competition) DetermineWinners(ctx context.Context) (WinnersResult, error) {
	const op = "competition.determine_winners"
	var res WinnersResult
	_, err := c.transition(ctx, ActionWinners, func(ctx context.Context, tx repository.Store, cur model.Snapshot) (model.Snapshot, error) {
		if cur.Phase != model.PhaseFinal {
			return model.Snapshot{}, model.NewKindf(op, model.ErrInvalidPhase, "winners require FINAL, current phase is %s", cur.Phase)
		}
		cohort := model.Cohort{}
		if cur.Finalists != nil {
			cohort = *cur.Finalists.Clone()
		}
		scores, err := tx.QueryScores(ctx, model.ScoreQuery{Phase: model.PhaseFinal, ParticipantIDs: cohort.IDs()})
		if err != nil {
			return model.Snapshot{}, err
		}
		rs := c.ranker.RankCohort(cohort, scores)
		c.reportTies(ctx, ActionWinners, rs)
		res.Winners = ranking.SelectWinners(rs)

		next := cur.Next()
		w := res.Winners
		next.Winners = &w
		return next, nil
	})
	if err != nil {
		return WinnersResult{}, err
	}
	return res, nil
}

// Reset deletes scores, heats, snapshots and judges and starts over with an
// empty HEATS snapshot. Participants stay registered.
func (c *Competition) Reset(ctx context.Context) error {
	_, err := c.transition(ctx, ActionReset, func(ctx context.Context, tx repository.Store, _ model.Snapshot) (model.Snapshot, error) {
		for _, del := range []func(context.Context) error{
			tx.DeleteScores, tx.DeleteHeats, tx.DeleteSnapshots, tx.DeleteJudges,
		} {
			if err := del(ctx); err != nil {
				return model.Snapshot{}, err
			}
		}
		return model.Snapshot{Phase: model.PhaseHeats}, nil
	})
	if err != nil {
		return err
	}
	metrics.UpdateHeatCount(0)
	return nil
}

// ImportRoster adds or replaces participants and judges.
func (c *Competition) ImportRoster(ctx context.Context, ps []model.Participant, js []model.Judge) (RosterResult, error) {
	const op = "competition.import_roster"
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Atomically(ctx, func(tx repository.Store) error {
		if err := tx.ImportParticipants(ctx, ps); err != nil {
			return err
		}
		return tx.ImportJudges(ctx, js)
	})
	if err != nil {
		if model.KindOf(err) == nil {
			err = model.WrapKind(op, model.ErrStorageUnavailable, err)
		}
		return RosterResult{}, err
	}
	return RosterResult{Participants: len(ps), Judges: len(js)}, nil
}

// heatCohort collects heat members by role. An empty heatID selects every
// heat. Members missing from the roster are skipped.
func heatCohort(ctx context.Context, s repository.Store, heatID string) (model.Cohort, error) {
	var hs []model.Heat
	if heatID != "" {
		h, err := s.GetHeat(ctx, heatID)
		if err != nil {
			return model.Cohort{}, err
		}
		hs = []model.Heat{h}
	} else {
		var err error
		if hs, err = s.ListHeats(ctx); err != nil {
			return model.Cohort{}, err
		}
	}

	members := map[string]struct{}{}
	for _, h := range hs {
		for _, id := range h.Members() {
			members[id] = struct{}{}
		}
	}
	if len(members) == 0 {
		return model.Cohort{}, nil
	}

	ps, err := s.ListParticipants(ctx)
	if err != nil {
		return model.Cohort{}, err
	}
	var in []model.Participant
	for _, p := range ps {
		if _, ok := members[p.ID]; ok {
			in = append(in, p)
		}
	}
	leaders, followers := model.SplitByRole(in)
	return model.Cohort{Leaders: leaders, Followers: followers}, nil
}
