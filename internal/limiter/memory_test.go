package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(maxFails int) (*Memory, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemory(15*time.Minute, maxFails, 10*time.Minute)
	l.now = c.now
	return l, c
}

func TestMemory_BlocksAfterMaxFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, c := newTestLimiter(3)
	ip := HashIP("192.0.2.1")

	for i := 0; i < 2; i++ {
		blocked, _, err := l.Failure(ctx, "a@b.c", ip)
		require.NoError(t, err)
		assert.False(t, blocked)
	}
	blocked, d, err := l.Failure(ctx, "a@b.c", ip)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 10*time.Minute, d)

	ok, retry, err := l.Allow(ctx, "a@b.c", ip)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10*time.Minute, retry)

	// other pairs are not affected
	ok, _, _ = l.Allow(ctx, "a@b.c", HashIP("192.0.2.2"))
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "other@b.c", ip)
	assert.True(t, ok)

	c.advance(4 * time.Minute)
	_, retry, _ = l.Allow(ctx, "a@b.c", ip)
	assert.Equal(t, 6*time.Minute, retry)

	c.advance(6 * time.Minute)
	ok, _, _ = l.Allow(ctx, "a@b.c", ip)
	assert.True(t, ok)
}

func TestMemory_WindowResetsCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, c := newTestLimiter(2)
	ip := HashIP("192.0.2.1")

	blocked, _, _ := l.Failure(ctx, "u", ip)
	assert.False(t, blocked)
	c.advance(16 * time.Minute)
	blocked, _, _ = l.Failure(ctx, "u", ip)
	assert.False(t, blocked, "first failure fell out of the window")
	blocked, _, _ = l.Failure(ctx, "u", ip)
	assert.True(t, blocked)
}

func TestMemory_SuccessResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, _ := newTestLimiter(2)
	ip := HashIP("192.0.2.1")

	_, _, _ = l.Failure(ctx, "u", ip)
	require.NoError(t, l.Success(ctx, "u", ip))
	blocked, _, _ := l.Failure(ctx, "u", ip)
	assert.False(t, blocked)
}

func TestMemory_Sweep(t *testing.T) {
	t.Parallel()
	l, c := newTestLimiter(5)
	ctx := context.Background()

	_, _, _ = l.Failure(ctx, "idle", HashIP("x"))
	c.advance(time.Hour)
	l.sweep(c.now())
	assert.Empty(t, l.entries)
}

func TestHashIP_Stable(t *testing.T) {
	t.Parallel()
	assert.Equal(t, HashIP("10.0.0.1"), HashIP("10.0.0.1"))
	assert.NotEqual(t, HashIP("10.0.0.1"), HashIP("10.0.0.2"))
	assert.Len(t, HashIP(""), 32)
}

func TestRate_PerKeyBucket(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRate(1, 2)
	r.now = c.now

	assert.True(t, r.Allow("10.0.0.1"))
	assert.True(t, r.Allow("10.0.0.1"))
	assert.False(t, r.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, r.Allow("10.0.0.2"), "keys are independent")

	c.advance(time.Second)
	assert.True(t, r.Allow("10.0.0.1"))
	assert.False(t, r.Allow("10.0.0.1"))
}
