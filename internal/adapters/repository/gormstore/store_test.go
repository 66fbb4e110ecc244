package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DANCE_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("DANCE_TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.DeleteScores(ctx))
	require.NoError(t, s.DeleteHeats(ctx))
	require.NoError(t, s.DeleteSnapshots(ctx))
	require.NoError(t, s.DeleteJudges(ctx))
	require.NoError(t, s.DeleteParticipants(ctx))
	return s
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr("op", nil))
	assert.ErrorIs(t, mapErr("op", gorm.ErrRecordNotFound), model.ErrNotFound)
	assert.ErrorIs(t, mapErr("op", context.DeadlineExceeded), model.ErrStorageUnavailable)
	assert.ErrorIs(t, mapErr("op", &pgconn.PgError{Code: "08006"}), model.ErrStorageUnavailable)

	plain := mapErr("op", &pgconn.PgError{Code: "23505"})
	assert.Nil(t, model.KindOf(plain))

	kinded := model.NewKind("inner", model.ErrValidation, "bad")
	assert.Same(t, kinded, mapErr("outer", kinded))
}

func TestStore_RosterAndScores(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ImportParticipants(ctx, []model.Participant{
		{ID: "l1", Name: "L1", Role: model.RoleLeader, Number: 1},
		{ID: "f1", Name: "F1", Role: model.RoleFollower, Number: 2},
	}))
	require.NoError(t, s.ImportJudges(ctx, []model.Judge{{ID: "j1", Name: "J", Role: model.RoleLeader}}))

	p, err := s.GetParticipant(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleLeader, p.Role)

	_, err = s.GetJudge(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	sc := model.Score{JudgeID: "j1", ParticipantID: "l1", Value: 4, Phase: model.PhaseHeats, HeatID: "h1"}
	require.NoError(t, s.UpsertScores(ctx, []model.Score{sc}))
	sc.Value = 9
	require.NoError(t, s.UpsertScores(ctx, []model.Score{sc}))

	got, err := s.QueryScores(ctx, model.ScoreQuery{Phase: model.PhaseHeats, ParticipantIDs: []string{"l1"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Value)

	n, err := s.DeleteScoresByPhase(ctx, model.PhaseHeats)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_HeatsAndSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	heats := []model.Heat{
		{ID: "h2", Number: 2, Leaders: []string{"l3"}, Followers: []string{"f3"}},
		{ID: "h1", Number: 1, Leaders: []string{"l1", "l2"}, Followers: []string{"f1"},
			Presentations: []model.Presentation{{Sequence: 1, Style: "Slow"}}},
	}
	require.NoError(t, s.ReplaceHeats(ctx, heats))

	list, err := s.ListHeats(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "h1", list[0].ID)
	assert.Equal(t, []string{"l1", "l2"}, list[0].Leaders)
	assert.Equal(t, "Slow", list[0].Presentations[0].Style)

	first, err := s.AppendSnapshot(ctx, model.Snapshot{Phase: model.PhaseHeats})
	require.NoError(t, err)
	second, err := s.AppendSnapshot(ctx, model.Snapshot{
		Phase:         model.PhaseSemifinal,
		Semifinalists: &model.Cohort{Leaders: []model.Participant{{ID: "l1", Role: model.RoleLeader}}},
	})
	require.NoError(t, err)
	assert.Greater(t, second.Version, first.Version)

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSemifinal, latest.Phase)
	require.NotNil(t, latest.Semifinalists)
	assert.Equal(t, "l1", latest.Semifinalists.Leaders[0].ID)
}

func TestStore_AtomicallyRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AppendSnapshot(ctx, model.Snapshot{Phase: model.PhaseSemifinal})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Atomically(ctx, func(tx repository.Store) error {
		if _, err := tx.AppendSnapshot(ctx, model.Snapshot{Phase: model.PhaseFinal}); err != nil {
			return err
		}
		return fmt.Errorf("after append: %w", boom)
	})
	require.ErrorIs(t, err, boom)

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSemifinal, latest.Phase)
}
