package session

import (
	"context"
	"sync"
	"time"

	apierrors "github.com/diogo/pagechat/internal/errors"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Data
	ttl      time.Duration
	now      func() time.Time
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Pruner = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Data),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, apierrors.ErrNoSession
	}
	if expired(&data, s.ttl, s.now()) {
		_ = s.Delete(ctx, id)
		return nil, apierrors.ErrNoSession
	}
	return &data, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data.UpdatedAt = s.now()
	s.sessions[id] = *data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, data := range s.sessions {
		if expired(&data, s.ttl, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
