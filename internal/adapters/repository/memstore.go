package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/pkg/metrics"
)

// state is the full content of a MemoryStore. Transactions work on a clone
// and swap it in on success.
type state struct {
	participants map[string]model.Participant
	judges       map[string]model.Judge
	scores       map[model.ScoreKey]model.Score
	heats        []model.Heat
	snapshots    []model.Snapshot
	seq          int64 // last snapshot version handed out
}

func newState() *state {
	return &state{
		participants: map[string]model.Participant{},
		judges:       map[string]model.Judge{},
		scores:       map[model.ScoreKey]model.Score{},
	}
}

// clone copies the maps and slice headers. Stored values are never mutated
// in place, so entries can be shared between the two states.
func (st *state) clone() *state {
	c := &state{
		participants: make(map[string]model.Participant, len(st.participants)),
		judges:       make(map[string]model.Judge, len(st.judges)),
		scores:       make(map[model.ScoreKey]model.Score, len(st.scores)),
		heats:        append([]model.Heat(nil), st.heats...),
		snapshots:    append([]model.Snapshot(nil), st.snapshots...),
		seq:          st.seq,
	}
	for k, v := range st.participants {
		c.participants[k] = v
	}
	for k, v := range st.judges {
		c.judges[k] = v
	}
	for k, v := range st.scores {
		c.scores[k] = v
	}
	return c
}

// MemoryStore is an in-memory Store guarded by a RWMutex.
type MemoryStore struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (s *MemoryStore) read(op string) (*txStore, func()) {
	start := time.Now()
	s.mu.RLock()
	return &txStore{st: s.st, now: s.now}, func() {
		s.mu.RUnlock()
		observe(op, start)
	}
}

func (s *MemoryStore) write(op string) (*txStore, func()) {
	start := time.Now()
	s.mu.Lock()
	return &txStore{st: s.st, now: s.now}, func() {
		s.publishCounts()
		s.mu.Unlock()
		observe(op, start)
	}
}

// publishCounts updates record gauges; the caller holds the write lock.
func (s *MemoryStore) publishCounts() {
	metrics.UpdateRepositoryRecords("participants", len(s.st.participants))
	metrics.UpdateRepositoryRecords("judges", len(s.st.judges))
	metrics.UpdateRepositoryRecords("scores", len(s.st.scores))
	metrics.UpdateRepositoryRecords("heats", len(s.st.heats))
	metrics.UpdateRepositoryRecords("snapshots", len(s.st.snapshots))
}

// ListParticipants implements Store.
func (s *MemoryStore) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	tx, done := s.read("list_participants")
	defer done()
	return tx.ListParticipants(ctx)
}

// GetParticipant implements Store.
func (s *MemoryStore) GetParticipant(ctx context.Context, id string) (model.Participant, error) {
	tx, done := s.read("get_participant")
	defer done()
	return tx.GetParticipant(ctx, id)
}

// ImportParticipants implements Store.
func (s *MemoryStore) ImportParticipants(ctx context.Context, ps []model.Participant) error {
	tx, done := s.write("import_participants")
	defer done()
	return tx.ImportParticipants(ctx, ps)
}

// DeleteParticipants implements Store.
func (s *MemoryStore) DeleteParticipants(ctx context.Context) error {
	tx, done := s.write("delete_participants")
	defer done()
	return tx.DeleteParticipants(ctx)
}

// GetJudge implements Store.
func (s *MemoryStore) GetJudge(ctx context.Context, id string) (model.Judge, error) {
	tx, done := s.read("get_judge")
	defer done()
	return tx.GetJudge(ctx, id)
}

// ListJudges implements Store.
func (s *MemoryStore) ListJudges(ctx context.Context) ([]model.Judge, error) {
	tx, done := s.read("list_judges")
	defer done()
	return tx.ListJudges(ctx)
}

// ImportJudges implements Store.
func (s *MemoryStore) ImportJudges(ctx context.Context, js []model.Judge) error {
	tx, done := s.write("import_judges")
	defer done()
	return tx.ImportJudges(ctx, js)
}

// DeleteJudges implements Store.
func (s *MemoryStore) DeleteJudges(ctx context.Context) error {
	tx, done := s.write("delete_judges")
	defer done()
	return tx.DeleteJudges(ctx)
}

// UpsertScores implements Store.
func (s *MemoryStore) UpsertScores(ctx context.Context, scores []model.Score) error {
	tx, done := s.write("upsert_scores")
	defer done()
	return tx.UpsertScores(ctx, scores)
}

// QueryScores implements Store.
func (s *MemoryStore) QueryScores(ctx context.Context, q model.ScoreQuery) ([]model.Score, error) {
	tx, done := s.read("query_scores")
	defer done()
	return tx.QueryScores(ctx, q)
}

// DeleteScoresByPhase implements Store.
func (s *MemoryStore) DeleteScoresByPhase(ctx context.Context, phase model.Phase) (int, error) {
	tx, done := s.write("delete_scores_by_phase")
	defer done()
	return tx.DeleteScoresByPhase(ctx, phase)
}

// DeleteScores implements Store.
func (s *MemoryStore) DeleteScores(ctx context.Context) error {
	tx, done := s.write("delete_scores")
	defer done()
	return tx.DeleteScores(ctx)
}

// ReplaceHeats implements Store.
func (s *MemoryStore) ReplaceHeats(ctx context.Context, hs []model.Heat) error {
	tx, done := s.write("replace_heats")
	defer done()
	return tx.ReplaceHeats(ctx, hs)
}

// ListHeats implements Store.
func (s *MemoryStore) ListHeats(ctx context.Context) ([]model.Heat, error) {
	tx, done := s.read("list_heats")
	defer done()
	return tx.ListHeats(ctx)
}

// GetHeat implements Store.
func (s *MemoryStore) GetHeat(ctx context.Context, id string) (model.Heat, error) {
	tx, done := s.read("get_heat")
	defer done()
	return tx.GetHeat(ctx, id)
}

// DeleteHeats implements Store.
func (s *MemoryStore) DeleteHeats(ctx context.Context) error {
	tx, done := s.write("delete_heats")
	defer done()
	return tx.DeleteHeats(ctx)
}

// AppendSnapshot implements Store.
func (s *MemoryStore) AppendSnapshot(ctx context.Context, snap model.Snapshot) (model.Snapshot, error) {
	tx, done := s.write("append_snapshot")
	defer done()
	return tx.AppendSnapshot(ctx, snap)
}

// LatestSnapshot implements Store.
func (s *MemoryStore) LatestSnapshot(ctx context.Context) (model.Snapshot, error) {
	tx, done := s.read("latest_snapshot")
	defer done()
	return tx.LatestSnapshot(ctx)
}

// SnapshotHistory implements Store.
func (s *MemoryStore) SnapshotHistory(ctx context.Context) ([]model.Snapshot, error) {
	tx, done := s.read("snapshot_history")
	defer done()
	return tx.SnapshotHistory(ctx)
}

// DeleteSnapshots implements Store.
func (s *MemoryStore) DeleteSnapshots(ctx context.Context) error {
	tx, done := s.write("delete_snapshots")
	defer done()
	return tx.DeleteSnapshots(ctx)
}

// Atomically runs fn on a private copy of the state and swaps it in only
// when fn returns nil. Concurrent readers keep seeing the old state until
// the swap.
func (s *MemoryStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	start := time.Now()
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		observe("atomically", start)
	}()

	draft := s.st.clone()
	if err := fn(&txStore{st: draft, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return unavailable("repository.atomically", err)
	}
	s.st = draft
	s.publishCounts()
	return nil
}

// txStore applies Store operations to a state without locking. The owner
// is responsible for synchronization.
type txStore struct {
	st  *state
	now func() time.Time
}

func (t *txStore) ListParticipants(_ context.Context) ([]model.Participant, error) {
	out := make([]model.Participant, 0, len(t.st.participants))
	for _, p := range t.st.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *txStore) GetParticipant(_ context.Context, id string) (model.Participant, error) {
	p, ok := t.st.participants[id]
	if !ok {
		return model.Participant{}, notFound("repository.get_participant", "participant", id)
	}
	return p, nil
}

func (t *txStore) ImportParticipants(_ context.Context, ps []model.Participant) error {
	const op = "repository.import_participants"
	for _, p := range ps {
		if p.ID == "" || !p.Role.Valid() {
			return model.NewKindf(op, model.ErrValidation, "participant %q needs an id and a role", p.ID)
		}
	}
	for _, p := range ps {
		t.st.participants[p.ID] = p
	}
	return nil
}

func (t *txStore) DeleteParticipants(_ context.Context) error {
	t.st.participants = map[string]model.Participant{}
	return nil
}

func (t *txStore) GetJudge(_ context.Context, id string) (model.Judge, error) {
	j, ok := t.st.judges[id]
	if !ok {
		return model.Judge{}, notFound("repository.get_judge", "judge", id)
	}
	return j, nil
}

func (t *txStore) ListJudges(_ context.Context) ([]model.Judge, error) {
	out := make([]model.Judge, 0, len(t.st.judges))
	for _, j := range t.st.judges {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *txStore) ImportJudges(_ context.Context, js []model.Judge) error {
	const op = "repository.import_judges"
	for _, j := range js {
		if j.ID == "" || !j.Role.Valid() {
			return model.NewKindf(op, model.ErrValidation, "judge %q needs an id and a role", j.ID)
		}
	}
	for _, j := range js {
		t.st.judges[j.ID] = j
	}
	return nil
}

func (t *txStore) DeleteJudges(_ context.Context) error {
	t.st.judges = map[string]model.Judge{}
	return nil
}

func (t *txStore) UpsertScores(_ context.Context, scores []model.Score) error {
	now := t.now()
	for _, sc := range scores {
		key := sc.Key()
		if prev, ok := t.st.scores[key]; ok {
			sc.ID = prev.ID
		}
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		if sc.CreatedAt.IsZero() {
			sc.CreatedAt = now
		}
		t.st.scores[key] = sc
	}
	return nil
}

func (t *txStore) QueryScores(_ context.Context, q model.ScoreQuery) ([]model.Score, error) {
	var out []model.Score
	for _, sc := range t.st.scores {
		if q.Matches(sc) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ParticipantID != b.ParticipantID {
			return a.ParticipantID < b.ParticipantID
		}
		if a.HeatID != b.HeatID {
			return a.HeatID < b.HeatID
		}
		return a.JudgeID < b.JudgeID
	})
	return out, nil
}

func (t *txStore) DeleteScoresByPhase(_ context.Context, phase model.Phase) (int, error) {
	n := 0
	for k := range t.st.scores {
		if k.Phase == phase {
			delete(t.st.scores, k)
			n++
		}
	}
	return n, nil
}

func (t *txStore) DeleteScores(_ context.Context) error {
	t.st.scores = map[model.ScoreKey]model.Score{}
	return nil
}

func (t *txStore) ReplaceHeats(_ context.Context, hs []model.Heat) error {
	out := make([]model.Heat, len(hs))
	for i, h := range hs {
		out[i] = h.Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	t.st.heats = out
	return nil
}

func (t *txStore) ListHeats(_ context.Context) ([]model.Heat, error) {
	out := make([]model.Heat, len(t.st.heats))
	for i, h := range t.st.heats {
		out[i] = h.Clone()
	}
	return out, nil
}

func (t *txStore) GetHeat(_ context.Context, id string) (model.Heat, error) {
	for _, h := range t.st.heats {
		if h.ID == id {
			return h.Clone(), nil
		}
	}
	return model.Heat{}, notFound("repository.get_heat", "heat", id)
}

func (t *txStore) DeleteHeats(_ context.Context) error {
	t.st.heats = nil
	return nil
}

func (t *txStore) AppendSnapshot(_ context.Context, snap model.Snapshot) (model.Snapshot, error) {
	t.st.seq++
	snap = snap.Clone()
	snap.Version = t.st.seq
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = t.now()
	}
	t.st.snapshots = append(t.st.snapshots, snap)
	return snap.Clone(), nil
}

func (t *txStore) LatestSnapshot(_ context.Context) (model.Snapshot, error) {
	if len(t.st.snapshots) == 0 {
		return model.Snapshot{}, model.NewKind("repository.latest_snapshot", model.ErrNotFound, "no snapshot")
	}
	return t.st.snapshots[len(t.st.snapshots)-1].Clone(), nil
}

func (t *txStore) SnapshotHistory(_ context.Context) ([]model.Snapshot, error) {
	out := make([]model.Snapshot, len(t.st.snapshots))
	for i, s := range t.st.snapshots {
		out[i] = s.Clone()
	}
	return out, nil
}

func (t *txStore) DeleteSnapshots(_ context.Context) error {
	t.st.snapshots = nil
	return nil
}

// Atomically joins the enclosing transaction.
func (t *txStore) Atomically(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}
