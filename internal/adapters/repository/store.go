// Package repository defines the competition store port and its in-memory
// implementation.
package repository

import (
	"context"

	"github.com/okian/dancefloor/internal/domain/model"
)

// Store provides read/write access to roster, scores, heats and snapshots.
// Implementations are safe for concurrent use.
type Store interface {
	// ListParticipants returns every participant ordered by number, then id.
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	// GetParticipant returns ErrNotFound for an unknown id.
	GetParticipant(ctx context.Context, id string) (model.Participant, error)
	// ImportParticipants inserts or replaces participants by id.
	ImportParticipants(ctx context.Context, ps []model.Participant) error
	DeleteParticipants(ctx context.Context) error

	GetJudge(ctx context.Context, id string) (model.Judge, error)
	ListJudges(ctx context.Context) ([]model.Judge, error)
	ImportJudges(ctx context.Context, js []model.Judge) error
	DeleteJudges(ctx context.Context) error

	// UpsertScores writes scores keyed by (judge, participant, phase, heat).
	// An existing entry for the same key is replaced.
	UpsertScores(ctx context.Context, scores []model.Score) error
	QueryScores(ctx context.Context, q model.ScoreQuery) ([]model.Score, error)
	// DeleteScoresByPhase removes every score of a phase and reports how many.
	DeleteScoresByPhase(ctx context.Context, phase model.Phase) (int, error)
	DeleteScores(ctx context.Context) error

	// ReplaceHeats drops all heats and memberships and stores hs.
	ReplaceHeats(ctx context.Context, hs []model.Heat) error
	ListHeats(ctx context.Context) ([]model.Heat, error)
	GetHeat(ctx context.Context, id string) (model.Heat, error)
	DeleteHeats(ctx context.Context) error

	// AppendSnapshot stores s with the next version number and returns it.
	// Versions never repeat, even after DeleteSnapshots.
	AppendSnapshot(ctx context.Context, s model.Snapshot) (model.Snapshot, error)
	// LatestSnapshot returns ErrNotFound when no snapshot exists.
	LatestSnapshot(ctx context.Context) (model.Snapshot, error)
	// SnapshotHistory returns every snapshot, oldest first.
	SnapshotHistory(ctx context.Context) ([]model.Snapshot, error)
	DeleteSnapshots(ctx context.Context) error

	// Atomically runs fn against a transactional view of the store. Either
	// every write made through tx is committed or none is.
	Atomically(ctx context.Context, fn func(tx Store) error) error
}
