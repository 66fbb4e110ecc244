package ranking

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/okian/dancefloor/internal/domain/model"
)

// Tie-breaker names accepted by configuration.
const (
	TieBreakNumber = "number"
	TieBreakRandom = "random"
)

// TieBreaker orders participants whose four ranking metrics are identical.
type TieBreaker interface {
	Name() string
	// Order assigns each participant id a position; lower wins.
	Order(cohort []model.Participant) map[string]int
}

// ByNumber resolves ties by the lowest bib number, then the lowest id.
type ByNumber struct{}

// Name implements TieBreaker.
func (ByNumber) Name() string { return TieBreakNumber }

// Order implements TieBreaker.
func (ByNumber) Order(cohort []model.Participant) map[string]int {
	sorted := append([]model.Participant(nil), cohort...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Number != sorted[j].Number {
			return sorted[i].Number < sorted[j].Number
		}
		return sorted[i].ID < sorted[j].ID
	})
	out := make(map[string]int, len(sorted))
	for i, p := range sorted {
		out[p.ID] = i
	}
	return out
}

// Random resolves ties with a random draw. A zero seed draws a fresh seed,
// which makes repeated rankings non-reproducible.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random tie-breaker.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // fairness draw, not security
}

// Name implements TieBreaker.
func (*Random) Name() string { return TieBreakRandom }

// Order implements TieBreaker.
func (r *Random) Order(cohort []model.Participant) map[string]int {
	r.mu.Lock()
	perm := r.rng.Perm(len(cohort))
	r.mu.Unlock()

	out := make(map[string]int, len(cohort))
	for i, p := range cohort {
		out[p.ID] = perm[i]
	}
	return out
}

// NewTieBreaker builds a tie-breaker from its configured name.
func NewTieBreaker(name string, seed uint64) (TieBreaker, error) {
	switch name {
	case "", TieBreakNumber:
		return ByNumber{}, nil
	case TieBreakRandom:
		return NewRandom(seed), nil
	default:
		return nil, model.NewKind("ranking.new_tie_breaker", model.ErrValidation, "unknown tie breaker "+name)
	}
}
