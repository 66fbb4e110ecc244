package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// judgeLimiter keeps one token bucket per judge. A bucket untouched for idle
// has refilled to burst and is dropped.
type judgeLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	buckets   map[string]*judgeBucket
}

type judgeBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newJudgeLimiter(perSecond float64, burst int) *judgeLimiter {
	refill := time.Duration(float64(burst) / perSecond * float64(time.Second))
	return &judgeLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    max(refill, time.Second),
		now:     time.Now,
		buckets: map[string]*judgeBucket{},
	}
}

// Allow reports whether judgeID may submit now. A nil limiter allows all.
func (l *judgeLimiter) Allow(judgeID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[judgeID]
	if !ok {
		b = &judgeBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[judgeID] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (l *judgeLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.seen) >= l.idle {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}
