// Package heats partitions the participant roster into preliminary heats.
package heats

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dancefloor/internal/domain/model"
)

// Couple-count thresholds deciding how many heats are danced.
const (
	singleHeatMaxCouples = 14
	doubleHeatMaxCouples = 18
)

// Default presentation rotation danced in every heat.
const (
	defaultPresentationDuration = 90 * time.Second
)

var defaultStyles = []string{"Slow", "Medium", "Fast"}

// Result is the outcome of one allocation.
type Result struct {
	Heats       []model.Heat
	CoupleCount int
}

// Allocator builds heats from a roster.
type Allocator struct {
	newRand  func() *rand.Rand
	newID    func() string
	styles   []string
	duration time.Duration
}

// NewAllocator creates an allocator. Without WithRand every call shuffles
// with a freshly seeded source.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // heat order is not security sensitive
		},
		newID:    uuid.NewString,
		styles:   defaultStyles,
		duration: defaultPresentationDuration,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HeatCount returns the number of heats for a couple count.
func HeatCount(couples int) int {
	switch {
	case couples <= singleHeatMaxCouples:
		return 1
	case couples <= doubleHeatMaxCouples:
		return 2
	default:
		return 3
	}
}

// Allocate shuffles each role independently and deals contiguous blocks of
// ceil(count/heatCount) participants into heats 1..N. Leaders and followers
// are not paired. Inputs are not modified.
func (a *Allocator) Allocate(leaders, followers []model.Participant) (Result, error) {
	const op = "heats.allocate"
	if len(leaders) == 0 {
		return Result{}, model.NewKind(op, model.ErrValidation, "no leaders registered")
	}
	if len(followers) == 0 {
		return Result{}, model.NewKind(op, model.ErrValidation, "no followers registered")
	}

	couples := min(len(leaders), len(followers))
	count := HeatCount(couples)
	rng := a.newRand()

	leaderBlocks := deal(shuffledIDs(rng, leaders), count)
	followerBlocks := deal(shuffledIDs(rng, followers), count)

	out := make([]model.Heat, count)
	for i := range out {
		out[i] = model.Heat{
			ID:            a.newID(),
			Number:        i + 1,
			Leaders:       leaderBlocks[i],
			Followers:     followerBlocks[i],
			Presentations: a.presentations(),
		}
	}
	return Result{Heats: out, CoupleCount: couples}, nil
}

func (a *Allocator) presentations() []model.Presentation {
	out := make([]model.Presentation, len(a.styles))
	for i, style := range a.styles {
		out[i] = model.Presentation{Sequence: i + 1, Style: style, Duration: a.duration}
	}
	return out
}

func shuffledIDs(rng *rand.Rand, ps []model.Participant) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// deal slices ids into count contiguous blocks of ceil(len/count). Trailing
// blocks may be shorter or empty.
func deal(ids []string, count int) [][]string {
	size := (len(ids) + count - 1) / count
	blocks := make([][]string, count)
	for i := range blocks {
		lo := min(i*size, len(ids))
		hi := min(lo+size, len(ids))
		blocks[i] = append([]string{}, ids[lo:hi]...)
	}
	return blocks
}
