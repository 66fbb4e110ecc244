package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/dancefloor/internal/domain/model"
)

func BenchmarkMemoryStore_UpsertScores(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	batch := make([]model.Score, 10)
	for i := range batch {
		batch[i] = model.Score{JudgeID: "j1", ParticipantID: fmt.Sprintf("p%d", i), Value: 7, Phase: model.PhaseHeats, HeatID: "h1"}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.UpsertScores(ctx, batch); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStore_Atomically(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 500; i++ {
		_ = s.UpsertScores(ctx, []model.Score{{JudgeID: fmt.Sprintf("j%d", i%9), ParticipantID: fmt.Sprintf("p%d", i), Value: 5, Phase: model.PhaseHeats, HeatID: "h1"}})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := s.Atomically(ctx, func(tx Store) error {
			_, err := tx.AppendSnapshot(ctx, model.Snapshot{Phase: model.PhaseHeats})
			return err
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStore_QueryScoresParallel(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 1000; i++ {
		_ = s.UpsertScores(ctx, []model.Score{{JudgeID: fmt.Sprintf("j%d", i%9), ParticipantID: fmt.Sprintf("p%d", i%100), Value: 5, Phase: model.PhaseHeats, HeatID: fmt.Sprintf("h%d", i%3)}})
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.QueryScores(ctx, model.ScoreQuery{Phase: model.PhaseHeats, HeatID: "h1"}); err != nil {
				b.Fatal(err)
			}
		}
	})
}
