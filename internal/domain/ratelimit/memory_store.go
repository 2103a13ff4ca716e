package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync/v2"
)

type counter struct {
	mutex    sync.Mutex
	count    int64
	expireAt time.Time
}

// MemoryStore is a process-local CounterStore for single-instance deployments
// and tests. The TTL is absolute from the first increment in the window.
type MemoryStore struct {
	counters *xsync.MapOf[string, *counter]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: xsync.NewMapOf[*counter]()}
}

func (s *MemoryStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := xcontext.Clock(ctx).Now()

	c, _ := s.counters.LoadOrCompute(key, func() *counter {
		return &counter{}
	})

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.count == 0 || !now.Before(c.expireAt) {
		c.count = 1
		c.expireAt = now.Add(window)
		return 1, window, nil
	}

	c.count++
	return c.count, c.expireAt.Sub(now), nil
}
