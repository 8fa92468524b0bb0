package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in process memory. It is only correct for a
// single instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns a limiter using now as its clock; nil means time.Now.
func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{windows: make(map[string]*window), now: now}
}

func (m *MemoryLimiter) Check(_ context.Context, id string, cfg Config) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[id]
	if !ok {
		w = &window{}
		m.windows[id] = w
	}
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(cfg.Interval)
	}
	w.count++
	return result(w.count, cfg, now, w.resetAt), nil
}

// Sweep drops expired windows and returns how many were removed.
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	purged := 0
	for id, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, id)
			purged++
		}
	}
	return purged
}

// Len is the number of tracked windows.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps expired windows every interval until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = purgeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("purged", n).Int("remaining", m.Len()).Msg("rate limiter windows purged")
			}
		}
	}
}
