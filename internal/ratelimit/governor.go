package ratelimit

import (
	"math"
	"sync"
	"time"
)

// defaultSweepThreshold is the bucket count past which a check also sweeps
// idle buckets. Sweeping is opportunistic; there is no background timer.
const defaultSweepThreshold = 1024

// Decision reports the outcome of a rate check, with everything the HTTP
// layer needs for the rate-limit headers.
type Decision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

type bucket struct {
	window time.Duration
	stamps []time.Time
}

func (b *bucket) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	keep := 0
	for _, ts := range b.stamps {
		if ts.After(cutoff) {
			b.stamps[keep] = ts
			keep++
		}
	}
	b.stamps = b.stamps[:keep]
}

// Governor is a process-local sliding-window limiter keyed by
// routeKey and subject. Constructed once per process and injected; counts
// are lost on restart, which is acceptable for an abuse guard.
type Governor struct {
	mu             sync.Mutex
	buckets        map[string]*bucket
	sweepThreshold int
	now            func() time.Time
}

func NewGovernor() *Governor {
	return &Governor{
		buckets:        make(map[string]*bucket),
		sweepThreshold: defaultSweepThreshold,
		now:            time.Now,
	}
}

// Check prunes the subject's bucket to the trailing window and admits the
// request if fewer than capacity timestamps remain.
func (g *Governor) Check(routeKey, subject string, window time.Duration, capacity int) Decision {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	key := routeKey + "|" + subject
	b, ok := g.buckets[key]
	if !ok {
		b = &bucket{window: window}
		g.buckets[key] = b
	}
	b.window = window
	b.prune(now)

	if len(b.stamps) >= capacity {
		resetAt := b.stamps[0].Add(window)
		return Decision{
			Allowed:           false,
			Limit:             capacity,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: retryAfterSeconds(resetAt, now),
		}
	}

	b.stamps = append(b.stamps, now)
	if len(g.buckets) > g.sweepThreshold {
		g.sweep(now)
	}

	return Decision{
		Allowed:   true,
		Limit:     capacity,
		Remaining: capacity - len(b.stamps),
		ResetAt:   b.stamps[0].Add(window),
	}
}

// sweep drops buckets with no activity inside their own window. Called with
// the lock held.
func (g *Governor) sweep(now time.Time) {
	for key, b := range g.buckets {
		b.prune(now)
		if len(b.stamps) == 0 {
			delete(g.buckets, key)
		}
	}
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
