package core

import "time"

// tokenBucket is a continuous-refill rate limiter: elapsed wall time times
// the refill rate is credited on every check, capped at burst. It is not
// safe for concurrent use; the owning client's mutex guards it.
type tokenBucket struct {
	tokens float64
	burst  float64
	rate   float64
	last   time.Time
}

func newTokenBucket(rate, burst float64) tokenBucket {
	return tokenBucket{
		tokens: burst,
		burst:  burst,
		rate:   rate,
		last:   time.Now(),
	}
}

// allow consumes one token if available.
func (b *tokenBucket) allow() bool {
	return b.allowAt(time.Now())
}

func (b *tokenBucket) allowAt(now time.Time) bool {
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	if elapsed > 0 {
		b.tokens += elapsed * b.rate
		if b.tokens > b.burst {
			b.tokens = b.burst
		}
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
