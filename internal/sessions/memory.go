package sessions

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps a bounded number of sessions in process, each expiring after ttl.
type MemoryStore struct {
	cache *expirable.LRU[string, Session]
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 1024
	}
	return &MemoryStore{cache: expirable.NewLRU[string, Session](size, nil, ttl)}
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s, ok := m.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	s.History = cloneHistory(s.History)
	return s, nil
}

// Save stores a copy of s, refreshing its timestamp.
func (m *MemoryStore) Save(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.History = cloneHistory(s.History)
	s.UpdatedAt = time.Now().UTC()
	m.cache.Add(s.ID, s)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

var _ Store = (*MemoryStore)(nil)
