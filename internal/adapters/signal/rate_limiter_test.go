package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesWindow(t *testing.T) {
	rl := NewRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("s1"), "attempt %d within limit", i)
	}
	assert.False(t, rl.Allow("s1"))

	// The window slides: after the interval, sends are allowed again.
	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("s1"))
}

func TestRateLimiterIsolatesSessions(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s2"))
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))

	rl.Forget("s1")
	assert.True(t, rl.Allow("s1"))
}
