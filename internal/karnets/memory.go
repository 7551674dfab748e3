package karnets

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signet-works/signet/internal/logx"
)

// MemoryCache is the in-process fallback backend, used when no Redis URI is
// configured. Expiry is enforced lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

type memoryEntry struct {
	secret    []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory karnet cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryCache) Set(ctx context.Context, karnet string, secretEncrypted []byte) error {
	secret := make([]byte, len(secretEncrypted))
	copy(secret, secretEncrypted)

	m.mu.Lock()
	m.entries[karnet] = memoryEntry{
		secret:    secret,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
	logx.Debugf("karnets: stored secret for karnet %s", karnet)
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, karnet string) ([]byte, error) {
	m.mu.Lock()
	entry, ok := m.entries[karnet]
	if ok && m.now().After(entry.expiresAt) {
		delete(m.entries, karnet)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		m.misses.Add(1)
		cacheMisses.Inc()
		return nil, ErrMiss
	}
	m.hits.Add(1)
	cacheHits.Inc()
	return entry.secret, nil
}

func (m *MemoryCache) Delete(ctx context.Context, karnet string) error {
	m.mu.Lock()
	delete(m.entries, karnet)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Metrics() Metrics {
	return Metrics{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
