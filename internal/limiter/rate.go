package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketTTL is how long an unused bucket is kept.
const bucketTTL = 15 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Rate is a token bucket per key, typically the client address.
type Rate struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRate allows perSecond events on average per key with bursts up to burst.
func NewRate(perSecond float64, burst int) *Rate {
	if burst <= 0 {
		burst = 1
	}
	return &Rate{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token for key and reports whether one was available.
func (r *Rate) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if len(r.buckets) >= sweepAt {
		for k, b := range r.buckets {
			if now.Sub(b.lastSeen) > bucketTTL {
				delete(r.buckets, k)
			}
		}
	}

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}
