package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apierrors "github.com/diogo/pagechat/internal/errors"
	"github.com/diogo/pagechat/internal/logger"
)

// FileStore keeps one JSON file per session in a directory
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

var (
	_ Store  = (*FileStore)(nil)
	_ Pruner = (*FileStore)(nil)
)

// NewFileStore creates the directory if needed
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &FileStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Get retrieves a session. Expired sessions are deleted and reported as absent.
func (s *FileStore) Get(ctx context.Context, id string) (*Data, error) {
	if !ValidID(id) {
		return nil, apierrors.ErrNoSession
	}

	s.mu.RLock()
	data, err := s.load(id)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if expired(data, s.ttl, s.now()) {
		if err := s.removeExpired(id); err != nil {
			logger.WarnCF("session", "Failed to remove expired session", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, apierrors.ErrNoSession
	}
	return data, nil
}

// removeExpired deletes the session file only if it is still expired under
// the write lock, so a concurrent Save that refreshed it wins.
func (s *FileStore) removeExpired(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(id)
	if err != nil || !expired(data, s.ttl, s.now()) {
		return nil
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Save writes the session and refreshes its expiry
func (s *FileStore) Save(ctx context.Context, id string, data *Data) error {
	if !ValidID(id) {
		return fmt.Errorf("invalid session id: %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data.UpdatedAt = s.now()
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(id), raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Prune deletes every expired or unreadable session file and returns how many were removed
func (s *FileStore) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read session directory: %w", err)
	}

	now := s.now()
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		data, err := s.load(id)
		if err == nil && !expired(data, s.ttl, now) {
			continue
		}
		if err := os.Remove(s.path(id)); err == nil {
			removed++
		}
	}

	if removed > 0 {
		logger.DebugCF("session", "Pruned expired sessions", map[string]interface{}{"removed": removed})
	}
	return removed, nil
}

// Internal methods

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) load(id string) (*Data, error) {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &data, nil
}
