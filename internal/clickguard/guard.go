package clickguard

import (
	"context"
	"sync"
	"time"
)

// Guard reports whether a key is seen for the first time within a window.
type Guard interface {
	FirstVisit(ctx context.Context, key string, window time.Duration) (bool, error)
}

// MemoryGuard keeps visit timestamps in process memory. It is used when no
// redis is configured and in tests.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) FirstVisit(_ context.Context, key string, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.seen[key]; ok && now.Sub(last) < window {
		return false, nil
	}
	g.seen[key] = now
	if len(g.seen) > maxMemoryKeys {
		g.evict(now, window)
	}
	return true, nil
}

const maxMemoryKeys = 100_000

func (g *MemoryGuard) evict(now time.Time, window time.Duration) {
	for key, at := range g.seen {
		if now.Sub(at) >= window {
			delete(g.seen, key)
		}
	}
}
