package heats

import (
	"math/rand/v2"
	"time"
)

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithRand fixes the shuffle source. Intended for reproducible tests.
func WithRand(rng *rand.Rand) Option {
	return func(a *Allocator) {
		if rng != nil {
			a.newRand = func() *rand.Rand { return rng }
		}
	}
}

// WithPresentations sets the song styles and the duration danced per heat.
// An empty styles list or a non-positive duration keeps that default.
func WithPresentations(styles []string, duration time.Duration) Option {
	return func(a *Allocator) {
		if len(styles) > 0 {
			a.styles = append([]string(nil), styles...)
		}
		if duration > 0 {
			a.duration = duration
		}
	}
}
