package resilience

import (
	"math"
	"math/rand"
	"time"
)

// backoffDelay calculates the scheduled delay before the next attempt of
// the same strategy: base * 2^(attempt-1), capped at ceiling. Attempts
// are 1-indexed.
func backoffDelay(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(ceiling) {
		return ceiling
	}
	return time.Duration(delay)
}

// withJitter spreads a delay by up to +25% so parallel bots do not hammer
// the portal in lockstep. The ceiling bounds the jittered result too.
func withJitter(d, ceiling time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	jittered := d + time.Duration(rand.Int63n(int64(d)/4+1))
	if jittered > ceiling {
		return ceiling
	}
	return jittered
}
