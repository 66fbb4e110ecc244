// Package gormstore implements the competition store on PostgreSQL via gorm.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/dancefloor/internal/adapters/repository"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/metrics"
)

var _ repository.Store = (*Store)(nil)

// Store is a repository.Store backed by a gorm connection.
type Store struct {
	db       *gorm.DB
	now      func() time.Time
	logLevel gormlogger.LogLevel
}

// Open connects to PostgreSQL and migrates the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	const op = "gormstore.open"
	s := &Store{now: time.Now, logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(s)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(s.logLevel),
		NowFunc: func() time.Time { return s.now().UTC() },
	})
	if err != nil {
		return nil, model.WrapKind(op, model.ErrStorageUnavailable, err)
	}
	s.db = db
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema is not migrated.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&participantRecord{}, &judgeRecord{}, &scoreRecord{},
		&heatRecord{}, &heatMemberRecord{}, &snapshotRecord{},
	)
	return mapErr("gormstore.migrate", err)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("gormstore.close: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return mapErr("gormstore.ping", err)
	}
	return mapErr("gormstore.ping", sqlDB.PingContext(ctx))
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// ListParticipants implements repository.Store.
func (s *Store) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	defer observe("list_participants", time.Now())
	var recs []participantRecord
	if err := s.conn(ctx).Order("number, id").Find(&recs).Error; err != nil {
		return nil, mapErr("gormstore.list_participants", err)
	}
	out := make([]model.Participant, len(recs))
	for i, r := range recs {
		out[i] = toParticipant(r)
	}
	return out, nil
}

// GetParticipant implements repository.Store.
func (s *Store) GetParticipant(ctx context.Context, id string) (model.Participant, error) {
	defer observe("get_participant", time.Now())
	var rec participantRecord
	if err := s.conn(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return model.Participant{}, mapErr("gormstore.get_participant", err)
	}
	return toParticipant(rec), nil
}

// ImportParticipants implements repository.Store.
func (s *Store) ImportParticipants(ctx context.Context, ps []model.Participant) error {
	const op = "gormstore.import_participants"
	defer observe("import_participants", time.Now())
	if len(ps) == 0 {
		return nil
	}
	recs := make([]participantRecord, len(ps))
	for i, p := range ps {
		if p.ID == "" || !p.Role.Valid() {
			return model.NewKindf(op, model.ErrValidation, "participant %q needs an id and a role", p.ID)
		}
		recs[i] = fromParticipant(p)
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&recs).Error
	return mapErr(op, err)
}

// DeleteParticipants implements repository.Store.
func (s *Store) DeleteParticipants(ctx context.Context) error {
	defer observe("delete_participants", time.Now())
	err := s.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&participantRecord{}).Error
	return mapErr("gormstore.delete_participants", err)
}

// GetJudge implements repository.Store.
func (s *Store) GetJudge(ctx context.Context, id string) (model.Judge, error) {
	defer observe("get_judge", time.Now())
	var rec judgeRecord
	if err := s.conn(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return model.Judge{}, mapErr("gormstore.get_judge", err)
	}
	return model.Judge{ID: rec.ID, Name: rec.Name, Role: model.Role(rec.Role)}, nil
}

// ListJudges implements repository.Store.
func (s *Store) ListJudges(ctx context.Context) ([]model.Judge, error) {
	defer observe("list_judges", time.Now())
	var recs []judgeRecord
	if err := s.conn(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, mapErr("gormstore.list_judges", err)
	}
	out := make([]model.Judge, len(recs))
	for i, r := range recs {
		out[i] = model.Judge{ID: r.ID, Name: r.Name, Role: model.Role(r.Role)}
	}
	return out, nil
}

// ImportJudges implements repository.Store.
func (s *Store) ImportJudges(ctx context.Context, js []model.Judge) error {
	const op = "gormstore.import_judges"
	defer observe("import_judges", time.Now())
	if len(js) == 0 {
		return nil
	}
	recs := make([]judgeRecord, len(js))
	for i, j := range js {
		if j.ID == "" || !j.Role.Valid() {
			return model.NewKindf(op, model.ErrValidation, "judge %q needs an id and a role", j.ID)
		}
		recs[i] = judgeRecord{ID: j.ID, Name: j.Name, Role: string(j.Role)}
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&recs).Error
	return mapErr(op, err)
}

// DeleteJudges implements repository.Store.
func (s *Store) DeleteJudges(ctx context.Context) error {
	defer observe("delete_judges", time.Now())
	err := s.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&judgeRecord{}).Error
	return mapErr("gormstore.delete_judges", err)
}

// UpsertScores implements repository.Store.
func (s *Store) UpsertScores(ctx context.Context, scores []model.Score) error {
	defer observe("upsert_scores", time.Now())
	if len(scores) == 0 {
		return nil
	}
	now := s.now().UTC()
	recs := make([]scoreRecord, len(scores))
	for i, sc := range scores {
		id := sc.ID
		if id == "" {
			id = uuid.NewString()
		}
		created := sc.CreatedAt
		if created.IsZero() {
			created = now
		}
		recs[i] = scoreRecord{
			ID: id, JudgeID: sc.JudgeID, ParticipantID: sc.ParticipantID,
			Phase: string(sc.Phase), HeatID: sc.HeatID, Value: sc.Value, CreatedAt: created,
		}
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "judge_id"}, {Name: "participant_id"}, {Name: "phase"}, {Name: "heat_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"value", "created_at"}),
	}).Create(&recs).Error
	return mapErr("gormstore.upsert_scores", err)
}

// QueryScores implements repository.Store.
func (s *Store) QueryScores(ctx context.Context, q model.ScoreQuery) ([]model.Score, error) {
	defer observe("query_scores", time.Now())
	tx := s.conn(ctx).Where("phase = ?", string(q.Phase))
	if q.HeatID != "" {
		tx = tx.Where("heat_id = ?", q.HeatID)
	}
	if len(q.ParticipantIDs) > 0 {
		tx = tx.Where("participant_id IN ?", q.ParticipantIDs)
	}
	var recs []scoreRecord
	if err := tx.Order("participant_id, heat_id, judge_id").Find(&recs).Error; err != nil {
		return nil, mapErr("gormstore.query_scores", err)
	}
	out := make([]model.Score, len(recs))
	for i, r := range recs {
		out[i] = toScore(r)
	}
	return out, nil
}

// DeleteScoresByPhase implements repository.Store.
func (s *Store) DeleteScoresByPhase(ctx context.Context, phase model.Phase) (int, error) {
	defer observe("delete_scores_by_phase", time.Now())
	res := s.conn(ctx).Where("phase = ?", string(phase)).Delete(&scoreRecord{})
	if res.Error != nil {
		return 0, mapErr("gormstore.delete_scores_by_phase", res.Error)
	}
	return int(res.RowsAffected), nil
}

// DeleteScores implements repository.Store.
func (s *Store) DeleteScores(ctx context.Context) error {
	defer observe("delete_scores", time.Now())
	err := s.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&scoreRecord{}).Error
	return mapErr("gormstore.delete_scores", err)
}

// ReplaceHeats implements repository.Store.
func (s *Store) ReplaceHeats(ctx context.Context, hs []model.Heat) error {
	defer observe("replace_heats", time.Now())
	return s.Atomically(ctx, func(tx repository.Store) error {
		t := tx.(*Store)
		if err := t.DeleteHeats(ctx); err != nil {
			return err
		}
		if len(hs) == 0 {
			return nil
		}
		recs := make([]heatRecord, len(hs))
		for i, h := range hs {
			recs[i] = fromHeat(h)
		}
		return mapErr("gormstore.replace_heats", t.conn(ctx).Create(&recs).Error)
	})
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Order("role, position")
}

// ListHeats implements repository.Store.
func (s *Store) ListHeats(ctx context.Context) ([]model.Heat, error) {
	defer observe("list_heats", time.Now())
	var recs []heatRecord
	if err := s.conn(ctx).Preload("Members", preloadMembers).Order("number").Find(&recs).Error; err != nil {
		return nil, mapErr("gormstore.list_heats", err)
	}
	out := make([]model.Heat, len(recs))
	for i, r := range recs {
		out[i] = toHeat(r)
	}
	return out, nil
}

// GetHeat implements repository.Store.
func (s *Store) GetHeat(ctx context.Context, id string) (model.Heat, error) {
	defer observe("get_heat", time.Now())
	var rec heatRecord
	if err := s.conn(ctx).Preload("Members", preloadMembers).Where("id = ?", id).First(&rec).Error; err != nil {
		return model.Heat{}, mapErr("gormstore.get_heat", err)
	}
	return toHeat(rec), nil
}

// DeleteHeats implements repository.Store.
func (s *Store) DeleteHeats(ctx context.Context) error {
	defer observe("delete_heats", time.Now())
	all := s.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := all.Delete(&heatMemberRecord{}).Error; err != nil {
		return mapErr("gormstore.delete_heats", err)
	}
	return mapErr("gormstore.delete_heats", all.Delete(&heatRecord{}).Error)
}

// AppendSnapshot implements repository.Store.
func (s *Store) AppendSnapshot(ctx context.Context, snap model.Snapshot) (model.Snapshot, error) {
	defer observe("append_snapshot", time.Now())
	rec := fromSnapshot(snap)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return model.Snapshot{}, mapErr("gormstore.append_snapshot", err)
	}
	return toSnapshot(rec), nil
}

// LatestSnapshot implements repository.Store.
func (s *Store) LatestSnapshot(ctx context.Context) (model.Snapshot, error) {
	defer observe("latest_snapshot", time.Now())
	var rec snapshotRecord
	if err := s.conn(ctx).Order("version DESC").First(&rec).Error; err != nil {
		return model.Snapshot{}, mapErr("gormstore.latest_snapshot", err)
	}
	return toSnapshot(rec), nil
}

// SnapshotHistory implements repository.Store.
func (s *Store) SnapshotHistory(ctx context.Context) ([]model.Snapshot, error) {
	defer observe("snapshot_history", time.Now())
	var recs []snapshotRecord
	if err := s.conn(ctx).Order("version").Find(&recs).Error; err != nil {
		return nil, mapErr("gormstore.snapshot_history", err)
	}
	out := make([]model.Snapshot, len(recs))
	for i, r := range recs {
		out[i] = toSnapshot(r)
	}
	return out, nil
}

// DeleteSnapshots implements repository.Store.
func (s *Store) DeleteSnapshots(ctx context.Context) error {
	defer observe("delete_snapshots", time.Now())
	err := s.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&snapshotRecord{}).Error
	return mapErr("gormstore.delete_snapshots", err)
}

// Atomically runs fn inside a database transaction. Nested calls become
// savepoints.
func (s *Store) Atomically(ctx context.Context, fn func(tx repository.Store) error) error {
	defer observe("atomically", time.Now())
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now, logLevel: s.logLevel})
	})
	return mapErr("gormstore.atomically", err)
}
