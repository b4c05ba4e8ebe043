// Package guard implements the abuse controls on the application relay:
// a fixed-window rate limiter and an idempotency check, both backed by
// the shared key-value store with an in-process fallback. These are
// deterrents, not correctness guarantees; a store failure degrades to
// the fallback rather than blocking or duplicating a request.
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/istoking/illicitrp-site/internal/kv"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

// Guard holds the primary store (may be nil) and the per-instance
// fallback used when the primary is missing or failing.
type Guard struct {
	store    kv.Store
	fallback *kv.MemoryStore
	now      func() time.Time
}

// RateResult is the outcome of one rate-limit check.
type RateResult struct {
	OK                bool
	RetryAfterSeconds int
}

type rateState struct {
	Count int   `json:"count"`
	Reset int64 `json:"reset"` // unix seconds when the window ends
}

func New(store kv.Store) *Guard {
	return &Guard{
		store:    store,
		fallback: kv.NewMemoryStore(),
		now:      time.Now,
	}
}

// Allow counts one operation against the caller's window and reports
// whether it is within the limit. The window is fixed: the first hit
// after expiry starts a fresh one.
func (g *Guard) Allow(ctx context.Context, key string, limit, windowSeconds int) RateResult {
	if g.store != nil {
		res, err := g.rateCheck(ctx, g.store, key, limit, windowSeconds)
		if err == nil {
			return res
		}
		logger.Warn().Err(err).Str("key", key).Msg("rate limit store failed, using memory fallback")
	}
	res, _ := g.rateCheck(ctx, g.fallback, key, limit, windowSeconds)
	return res
}

func (g *Guard) rateCheck(ctx context.Context, store kv.Store, key string, limit, windowSeconds int) (RateResult, error) {
	now := g.now().Unix()

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return RateResult{}, err
	}

	state := rateState{Reset: now + int64(windowSeconds)}
	if ok {
		if err := json.Unmarshal(raw, &state); err != nil || state.Reset <= now {
			state = rateState{Reset: now + int64(windowSeconds)}
		}
	}

	state.Count++

	encoded, _ := json.Marshal(state)
	// Keep the key alive slightly longer than the window.
	if err := store.Put(ctx, key, encoded, time.Duration(windowSeconds+10)*time.Second); err != nil {
		return RateResult{}, err
	}

	if state.Count > limit {
		retry := int(state.Reset - now)
		if retry < 1 {
			retry = 1
		}
		return RateResult{OK: false, RetryAfterSeconds: retry}, nil
	}
	return RateResult{OK: true}, nil
}

// FirstTime reports whether this idempotency key has not been seen
// within the window, marking it seen as a side effect. Repeats within
// the window return false so the caller can skip the side effect.
func (g *Guard) FirstTime(ctx context.Context, key string, windowSeconds int) bool {
	if g.store != nil {
		first, err := g.idemCheck(ctx, g.store, key, windowSeconds)
		if err == nil {
			return first
		}
		logger.Warn().Err(err).Str("key", key).Msg("idempotency store failed, using memory fallback")
	}
	first, _ := g.idemCheck(ctx, g.fallback, key, windowSeconds)
	return first
}

func (g *Guard) idemCheck(ctx context.Context, store kv.Store, key string, windowSeconds int) (bool, error) {
	_, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if err := store.Put(ctx, key, []byte("1"), time.Duration(windowSeconds+10)*time.Second); err != nil {
		return false, err
	}
	return true, nil
}

// PayloadHash computes a stable hash over a submission payload. Go's
// JSON encoder writes map keys in sorted order at every level, so
// marshaling the decoded payload is already canonical.
func PayloadHash(payload map[string]any) string {
	canonical, err := json.Marshal(payload)
	if err != nil {
		canonical = []byte{}
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
