package ttlmap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EvictFunc is called by a sweep for every expired key it removes.
// Returning an error does not stop the sweep; the failure is logged
// and the remaining expired keys are still processed.
type EvictFunc[K comparable] func(key K) error

// TTLMap is a table of keys with per-entry refresh timestamps and a
// single table-wide TTL. An entry is live until its TTL has elapsed
// since the last Upsert of its key.
//
// All methods are safe for concurrent use.
type TTLMap[K comparable] struct {
	mu      sync.RWMutex
	entries map[K]time.Time
	ttl     time.Duration
	onEvict EvictFunc[K]
	log     zerolog.Logger
}

func New[K comparable](ttl time.Duration, logger zerolog.Logger) *TTLMap[K] {
	return &TTLMap[K]{
		entries: make(map[K]time.Time),
		ttl:     ttl,
		log:     logger,
	}
}

// OnEvict registers the eviction callback used by Sweep.
// It must be set before the table is shared between goroutines.
func (t *TTLMap[K]) OnEvict(fn EvictFunc[K]) {
	t.onEvict = fn
}

// TTL returns the table-wide time to live.
func (t *TTLMap[K]) TTL() time.Duration {
	return t.ttl
}

// Upsert records now as the refresh timestamp for key,
// sliding its expiry forward by the full TTL.
func (t *TTLMap[K]) Upsert(key K) {
	t.mu.Lock()
	t.entries[key] = time.Now()
	t.mu.Unlock()
}

// Contains reports whether key has a live entry at the moment of the call.
// Expired entries are not removed here; removal (and eviction callbacks)
// happen in Sweep, which avoids upgrading to a write lock on the read path.
func (t *TTLMap[K]) Contains(key K) bool {
	t.mu.RLock()
	at, ok := t.entries[key]
	t.mu.RUnlock()
	return ok && time.Since(at) <= t.ttl
}

// Sweep removes every entry whose age exceeds the TTL as of now and
// invokes the eviction callback for each removed key. It returns the
// number of entries removed.
func (t *TTLMap[K]) Sweep(now time.Time) int {
	t.mu.Lock()
	var expired []K
	for key, at := range t.entries {
		if now.Sub(at) > t.ttl {
			expired = append(expired, key)
			delete(t.entries, key)
		}
	}
	t.mu.Unlock()

	for _, key := range expired {
		if t.onEvict == nil {
			continue
		}
		if err := t.onEvict(key); err != nil {
			t.log.Error().Err(err).Interface("key", key).Msg("Could not evict expired entry")
		}
	}
	return len(expired)
}

// RunSweeper runs an infinite sweep loop, one sweep per interval,
// until the context is cancelled.
func (t *TTLMap[K]) RunSweeper(ctx context.Context, interval time.Duration) {
	t.log.Info().Msgf("Starting sweep loop with interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := t.Sweep(now); removed > 0 {
				t.log.Debug().Int("removed", removed).Msg("Swept expired entries")
			}
		}
	}
}

// Len returns the number of entries, live or not yet swept.
func (t *TTLMap[K]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Keys returns the keys of all live entries.
func (t *TTLMap[K]) Keys() []K {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]K, 0, len(t.entries))
	for key, at := range t.entries {
		if time.Since(at) <= t.ttl {
			keys = append(keys, key)
		}
	}
	return keys
}

// Clear drops every entry without running eviction callbacks.
func (t *TTLMap[K]) Clear() {
	t.mu.Lock()
	t.entries = make(map[K]time.Time)
	t.mu.Unlock()
}
