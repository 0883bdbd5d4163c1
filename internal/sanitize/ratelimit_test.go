package sanitize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterSlidingWindow(t *testing.T) {
	l := NewLimiter()
	now := time.Now()

	for i := 0; i < 3; i++ {
		assert.True(t, l.allowAt("agent-a", 3, time.Minute, now))
	}
	assert.False(t, l.allowAt("agent-a", 3, time.Minute, now))

	later := now.Add(2 * time.Minute)
	assert.True(t, l.allowAt("agent-a", 3, time.Minute, later))
}

func TestLimiterIdentifiersAreIndependent(t *testing.T) {
	l := NewLimiter()
	now := time.Now()
	assert.True(t, l.allowAt("a", 1, time.Minute, now))
	assert.False(t, l.allowAt("a", 1, time.Minute, now))
	assert.True(t, l.allowAt("b", 1, time.Minute, now))
}
