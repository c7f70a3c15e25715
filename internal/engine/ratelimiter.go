package engine

import "time"

// rateLimitPeriod is the fixed token-bucket period. The limiter never
// yields to a busy spin: when a chunk would exceed the period's budget it
// sleeps the remainder of the period outright.
const rateLimitPeriod = 100 * time.Millisecond

// RateLimiter enforces a byte-rate ceiling using a fixed 100ms-period token
// bucket, grounded in the same budget-then-sleep shape as a classic
// bandwidth-limiting reader, adapted here to a chunked writer instead of an
// io.Reader wrapper so the CopyPipeline can call it before reading each
// chunk.
type RateLimiter struct {
	limitBps   int64
	windowSent int64
	windowDone time.Time
	now        func() time.Time
	sleep      func(time.Duration)
}

// NewRateLimiter creates a limiter for limitBps bytes/sec. A limitBps of 0
// means unlimited: BeforeChunk never sleeps.
func NewRateLimiter(limitBps int64) *RateLimiter {
	return &RateLimiter{
		limitBps: limitBps,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// BeforeChunk should be called with the size of the chunk about to be
// written. If sending that many bytes within the current 100ms window would
// exceed the configured rate, it sleeps the remainder of the window and
// starts a fresh one.
func (r *RateLimiter) BeforeChunk(chunkSize int64) {
	if r.limitBps <= 0 {
		return
	}

	now := r.now()
	if r.windowDone.IsZero() {
		r.windowDone = now.Add(rateLimitPeriod)
	}

	budget := (r.limitBps * int64(rateLimitPeriod/time.Millisecond)) / 1000

	if r.windowSent+chunkSize > budget {
		remaining := r.windowDone.Sub(now)
		if remaining > 0 {
			r.sleep(remaining)
		}
		r.windowSent = 0
		r.windowDone = r.now().Add(rateLimitPeriod)
	}

	r.windowSent += chunkSize
}
