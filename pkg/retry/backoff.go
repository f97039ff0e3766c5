package retry

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// Policy describes how a failed request is retried. MaxAttempts counts
// every request including the first; zero or less means a single attempt.
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxJitter  time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the publisher-friendly schedule used by the fetcher:
// three attempts, waiting ten seconds before the second.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:  10 * time.Second,
		MaxDelay:   2 * time.Minute,
		MaxJitter:  time.Second,
		MaxAttempts: 3,
	}
}

// Attempts is the number of requests the policy allows, at least one.
func (p Policy) Attempts() int {
	return max(p.MaxAttempts, 1)
}

// Delay returns the wait before retry number attempt (0-based) of key.
// Jitter is derived from the key and attempt so that a replayed run waits
// the same amount of time.
func (p Policy) Delay(key string, attempt int) time.Duration {
	factor := int64(1)
	if attempt > 0 {
		if attempt > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << attempt
		}
	}

	delay := time.Duration(int64(p.BaseDelay) * factor)
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}

	return delay + Jitter(key, attempt, p.MaxJitter)
}

// Jitter is a deterministic pseudo-random duration in [0, max).
func Jitter(key string, attempt int, max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", key, attempt)))
	basis := binary.BigEndian.Uint64(hash[:8])
	return time.Duration(basis % uint64(max)) //nolint:gosec // max is positive
}
