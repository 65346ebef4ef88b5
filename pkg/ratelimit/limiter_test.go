package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucket(3, time.Second)
	tb.now = clock.now
	tb.lastRefill = clock.t

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())

	clock.advance(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock.advance(10 * time.Second)
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow())
	}
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}

func TestTokenBucketWaitRefills(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Millisecond)
	require.True(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestSlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	sw := NewSlidingWindow(2, time.Minute)
	sw.now = clock.now

	assert.True(t, sw.Allow())
	clock.advance(10 * time.Second)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	clock.advance(50 * time.Second)
	assert.True(t, sw.Allow(), "first request left the window")
	assert.False(t, sw.Allow())

	sw.Reset()
	assert.True(t, sw.Allow())
}

func TestNew(t *testing.T) {
	l, err := New("token_bucket", 0, 1)
	require.NoError(t, err)
	assert.IsType(t, Unlimited{}, l)
	assert.True(t, l.Allow())

	l, err = New("", 60, 5)
	require.NoError(t, err)
	tb, ok := l.(*TokenBucket)
	require.True(t, ok)
	assert.Equal(t, time.Second, tb.interval)
	assert.Equal(t, 5, tb.capacity)

	l, err = New("sliding_window", 30, 1)
	require.NoError(t, err)
	assert.IsType(t, &SlidingWindow{}, l)

	_, err = New("leaky", 30, 1)
	assert.Error(t, err)
}
