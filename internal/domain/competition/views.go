package competition

import (
	"context"
	"fmt"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
)

// View is the current snapshot with the derived heat and phase rankings.
type View struct {
	Snapshot     model.Snapshot                   `json:"snapshot"`
	Heats        []model.Heat                     `json:"heats"`
	HeatRankings map[string]ranking.RoleStandings `json:"heatRankings"` // keyed by heat id
	Rankings     ranking.RoleStandings            `json:"rankings"`     // current phase cohort
}

// Clone returns a deep copy of v.
func (v View) Clone() View {
	out := View{
		Snapshot: v.Snapshot.Clone(),
		Rankings: v.Rankings.Clone(),
	}
	if v.Heats != nil {
		out.Heats = make([]model.Heat, len(v.Heats))
		for i, h := range v.Heats {
			out.Heats[i] = h.Clone()
		}
	}
	if v.HeatRankings != nil {
		out.HeatRankings = make(map[string]ranking.RoleStandings, len(v.HeatRankings))
		for id, rs := range v.HeatRankings {
			out.HeatRankings[id] = rs.Clone()
		}
	}
	return out
}

// Snapshot returns the current view. Concurrent callers asking for the same
// snapshot share one computation; each receives its own copy.
func (c *Competition) Snapshot(ctx context.Context) (View, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cur, err := c.peek(ctx)
	if err != nil {
		return View{}, err
	}

	v, err, _ := c.views.Do(fmt.Sprintf("view:%s:%d", cur.ID, cur.Version), func() (any, error) {
		return c.buildView(ctx, cur)
	})
	if err != nil {
		return View{}, err
	}
	return v.(View).Clone(), nil
}

func (c *Competition) buildView(ctx context.Context, cur model.Snapshot) (View, error) {
	hs, err := c.store.ListHeats(ctx)
	if err != nil {
		return View{}, err
	}
	view := View{
		Snapshot:     cur,
		Heats:        hs,
		HeatRankings: make(map[string]ranking.RoleStandings, len(hs)),
	}
	for _, h := range hs {
		rs, err := c.rank(ctx, c.store, cur, model.PhaseHeats, h.ID)
		if err != nil {
			return View{}, err
		}
		view.HeatRankings[h.ID] = rs
	}
	if view.Rankings, err = c.rank(ctx, c.store, cur, cur.Phase, ""); err != nil {
		return View{}, err
	}
	return view, nil
}

// History returns every stored snapshot, oldest first.
func (c *Competition) History(ctx context.Context) ([]model.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.SnapshotHistory(ctx)
}

// Rankings ranks the cohort of phase on its scores. heatID narrows a HEATS
// ranking to one heat and is rejected for other phases.
func (c *Competition) Rankings(ctx context.Context, phase model.Phase, heatID string) (ranking.RoleStandings, error) {
	const op = "competition.rankings"
	p, err := model.ParsePhase(string(phase))
	if err != nil {
		return ranking.RoleStandings{}, err
	}
	if heatID != "" && p != model.PhaseHeats {
		return ranking.RoleStandings{}, model.NewKindf(op, model.ErrValidation, "heatId is only valid for HEATS, got %s", p)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	cur, err := c.peek(ctx)
	if err != nil {
		return ranking.RoleStandings{}, err
	}
	return c.rank(ctx, c.store, cur, p, heatID)
}

// rank builds the cohort for phase from cur and ranks it. SEMIFINAL and
// FINAL cohorts are empty until the corresponding transition ran.
func (c *Competition) rank(ctx context.Context, s repository.Store, cur model.Snapshot, phase model.Phase, heatID string) (ranking.RoleStandings, error) {
	var cohort model.Cohort
	switch phase {
	case model.PhaseHeats:
		var err error
		if cohort, err = heatCohort(ctx, s, heatID); err != nil {
			return ranking.RoleStandings{}, err
		}
	case model.PhaseSemifinal:
		if cur.Semifinalists != nil {
			cohort = *cur.Semifinalists
		}
	case model.PhaseFinal:
		if cur.Finalists != nil {
			cohort = *cur.Finalists
		}
	}
	if cohort.Size() == 0 {
		return ranking.RoleStandings{}, nil
	}

	scores, err := s.QueryScores(ctx, model.ScoreQuery{Phase: phase, HeatID: heatID, ParticipantIDs: cohort.IDs()})
	if err != nil {
		return ranking.RoleStandings{}, err
	}
	return c.ranker.RankCohort(cohort, scores), nil
}
