package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_Exponential(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.Delay("k", 0))
	assert.Equal(t, 200*time.Millisecond, p.Delay("k", 1))
	assert.Equal(t, 400*time.Millisecond, p.Delay("k", 2))
	assert.Equal(t, time.Second, p.Delay("k", 5))
	assert.Equal(t, time.Second, p.Delay("k", 64))
}

func TestJitter_DeterministicAndBounded(t *testing.T) {
	a := Jitter("https://example.org/a", 1, time.Second)
	b := Jitter("https://example.org/a", 1, time.Second)
	assert.Equal(t, a, b)
	assert.Less(t, a, time.Second)
	assert.GreaterOrEqual(t, a, time.Duration(0))
	assert.Zero(t, Jitter("x", 0, 0))
}

func TestAttempts(t *testing.T) {
	assert.Equal(t, 3, DefaultPolicy().Attempts())
	assert.Equal(t, 1, Policy{}.Attempts())
	assert.Equal(t, 1, Policy{MaxAttempts: -2}.Attempts())
}
