package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerSecond(t *testing.T) {
	l := PerSecond(10, 5)
	assert.Equal(t, Limit{Rate: 10, Period: time.Second, Burst: 10}, l)
	assert.False(t, l.IsZero())
	assert.True(t, Limit{}.IsZero())
}

func TestZeroLimitAlwaysAllows(t *testing.T) {
	r := &RedisRateLimiter{}
	res, err := r.Allow(context.Background(), "k", Limit{})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
