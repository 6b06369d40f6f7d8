package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BudgetPerKey(t *testing.T) {
	l := NewLimiter(time.Hour, 3, map[string]int{"/auth/signup": 2})

	assert.True(t, l.Allow("/auth/signup"))
	assert.True(t, l.Allow("/auth/signup"))
	assert.False(t, l.Allow("/auth/signup"))

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("/custom"))
	}
	assert.False(t, l.Allow("/custom"))

	assert.Equal(t, map[string]int64{"/auth/signup": 2, "/custom": 3}, l.Counters())
}

func TestLimiter_PenalizeAndReset(t *testing.T) {
	l := NewLimiter(time.Hour, 0, nil)

	assert.Equal(t, int64(10), l.Remaining("/auth/signin"))
	assert.True(t, l.Allow("/auth/signin"))
	l.Penalize("/auth/signin")
	assert.Equal(t, int64(0), l.Remaining("/auth/signin"))
	assert.False(t, l.Allow("/auth/signin"))
	assert.True(t, l.Allow("/api/notes"), "other keys keep their budget")

	l.Reset()
	assert.Equal(t, int64(10), l.Remaining("/auth/signin"))
	assert.Empty(t, l.Counters())
	assert.Equal(t, int64(DefaultLimit), l.Remaining("/unknown"))
}
