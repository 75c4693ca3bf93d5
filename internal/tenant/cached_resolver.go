package tenant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CachedResolver wraps a Resolver with TTL-based caching.
// Failures are never cached.
type CachedResolver struct {
	inner Resolver
	cache map[uint]cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	tenantID  uint
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
// ttl is how long a mapping is kept before re-fetching.
func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[uint]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *CachedResolver) EffectiveTenant(ctx context.Context, principalID uint) (uint, error) {
	r.mu.RLock()
	entry, ok := r.cache[principalID]
	r.mu.RUnlock()

	if ok && r.now().Before(entry.expiresAt) {
		return entry.tenantID, nil
	}

	tenantID, err := r.inner.EffectiveTenant(ctx, principalID)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.cache[principalID] = cacheEntry{tenantID: tenantID, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return tenantID, nil
}

// Invalidate drops one principal, e.g. after a staff member changes owner.
func (r *CachedResolver) Invalidate(principalID uint) {
	r.mu.Lock()
	delete(r.cache, principalID)
	r.mu.Unlock()
}

// Verify re-resolves a principal against the inner resolver and refreshes
// its cached mapping. Unknown principals are dropped and reported false.
// Other lookup errors leave the cache alone and report true so the request
// fails on its own path.
func (r *CachedResolver) Verify(ctx context.Context, principalID uint) bool {
	tenantID, err := r.inner.EffectiveTenant(ctx, principalID)
	if errors.Is(err, ErrUnknownPrincipal) {
		r.Invalidate(principalID)
		return false
	}
	if err != nil {
		return true
	}
	r.mu.Lock()
	r.cache[principalID] = cacheEntry{tenantID: tenantID, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return true
}
