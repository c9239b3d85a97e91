package caching

import (
	"context"
	"sync"
	"time"

	"homelyquad/internal/models"
)

// sweepInterval bounds how often IsRateLimited scans for expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	ownership *models.UnitOwnership
	count     int
	expiresAt time.Time
}

// memoryCacheService is the in-process CacheService used when Redis is disabled.
type memoryCacheService struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCacheService() CacheService {
	return &memoryCacheService{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (m *memoryCacheService) live(key string) (*memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e, true
}

// sweep drops expired entries whose keys are never read again, such as per-IP counters.
func (m *memoryCacheService) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

func (m *memoryCacheService) GetUnitOwnership(_ context.Context, unitID int64) (*models.UnitOwnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(unitOwnershipKey(unitID))
	if !ok || e.ownership == nil {
		return nil, nil
	}
	cp := *e.ownership
	return &cp, nil
}

func (m *memoryCacheService) SetUnitOwnership(_ context.Context, ownership *models.UnitOwnership, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ownership
	entry := &memoryEntry{ownership: &cp}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[unitOwnershipKey(ownership.UnitID)] = entry
	return nil
}

func (m *memoryCacheService) IsRateLimited(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	cacheKey := rateLimitKey(key)
	e, ok := m.live(cacheKey)
	if !ok {
		e = &memoryEntry{expiresAt: m.now().Add(window)}
		m.entries[cacheKey] = e
	}
	e.count++
	return e.count > limit, nil
}

func (m *memoryCacheService) Ping(context.Context) error {
	return nil
}
