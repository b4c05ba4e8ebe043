package guard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/istoking/illicitrp-site/internal/kv"
)

func testGuard() (*Guard, *time.Time) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g := New(kv.NewMemoryStore())
	g.now = func() time.Time { return current }
	return g, &current
}

func TestAllow_WithinLimit(t *testing.T) {
	g, _ := testGuard()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := g.Allow(ctx, "rl:1.2.3.4:apply:user", 3, 60)
		assert.True(t, res.OK, "hit %d should be allowed", i+1)
		assert.Zero(t, res.RetryAfterSeconds)
	}
}

func TestAllow_OverLimitReportsRetryAfter(t *testing.T) {
	g, _ := testGuard()
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, "rl:k", 1, 60).OK)

	res := g.Allow(ctx, "rl:k", 1, 60)
	assert.False(t, res.OK)
	assert.Greater(t, res.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, res.RetryAfterSeconds, 60)
}

func TestAllow_WindowResetsAfterExpiry(t *testing.T) {
	g, current := testGuard()
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, "rl:k", 1, 60).OK)
	assert.False(t, g.Allow(ctx, "rl:k", 1, 60).OK)

	*current = current.Add(61 * time.Second)
	assert.True(t, g.Allow(ctx, "rl:k", 1, 60).OK)
}

func TestAllow_SeparateKeysAreIndependent(t *testing.T) {
	g, _ := testGuard()
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, "rl:a", 1, 60).OK)
	assert.True(t, g.Allow(ctx, "rl:b", 1, 60).OK)
	assert.False(t, g.Allow(ctx, "rl:a", 1, 60).OK)
}

func TestAllow_FallsBackWhenStoreFails(t *testing.T) {
	g := New(brokenStore{})
	ctx := context.Background()

	assert.True(t, g.Allow(ctx, "rl:k", 1, 60).OK)
	// the fallback still enforces the limit
	assert.False(t, g.Allow(ctx, "rl:k", 1, 60).OK)
}

func TestFirstTime(t *testing.T) {
	g, _ := testGuard()
	ctx := context.Background()

	assert.True(t, g.FirstTime(ctx, "idem:apply:user:abc", 180))
	assert.False(t, g.FirstTime(ctx, "idem:apply:user:abc", 180))
	assert.True(t, g.FirstTime(ctx, "idem:apply:user:other", 180))
}

func TestPayloadHash_StableAcrossKeyOrder(t *testing.T) {
	a := PayloadHash(map[string]any{"name": "Jo", "discord": "jo#1", "message": "hi"})
	b := PayloadHash(map[string]any{"message": "hi", "discord": "jo#1", "name": "Jo"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestPayloadHash_DiffersOnContent(t *testing.T) {
	a := PayloadHash(map[string]any{"name": "Jo"})
	b := PayloadHash(map[string]any{"name": "Joe"})
	assert.NotEqual(t, a, b)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("store unavailable")
}

func (brokenStore) Put(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("store unavailable")
}
