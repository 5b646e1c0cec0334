package cache

import (
	"context"
	"sync"
	"time"

	"github.com/brightpath/attempt-service/internal/models"
)

type memoryEntry struct {
	snapshot  models.StartAttemptPayload
	expiresAt time.Time
}

// MemoryCache is an in-process AttemptCache for tests and single-node
// deployments without redis.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	claims  map[string]string
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		claims:  make(map[string]string),
	}
}

func (m *MemoryCache) Get(_ context.Context, attemptID string) (*models.StartAttemptPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[attemptID]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, attemptID)
		return nil, ErrNotFound
	}
	snapshot := entry.snapshot
	return &snapshot, nil
}

func (m *MemoryCache) Put(_ context.Context, attemptID string, snapshot *models.StartAttemptPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[attemptID] = memoryEntry{
		snapshot:  *snapshot,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, attemptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, attemptID)
	delete(m.claims, attemptID)
	return nil
}

func (m *MemoryCache) Claim(_ context.Context, attemptID, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	holder, ok := m.claims[attemptID]
	if !ok {
		m.claims[attemptID] = owner
		return true, nil
	}
	return holder == owner, nil
}
