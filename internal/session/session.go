// Package session stores per-browser server state: the page scraped last and its URL.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/diogo/pagechat/internal/config"
	apierrors "github.com/diogo/pagechat/internal/errors"
	"github.com/diogo/pagechat/internal/logger"
)

// Data is what a session remembers between requests
type Data struct {
	ScrapedData string    `json:"scraped_data"`
	CurrentURL  string    `json:"current_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPage reports whether a page has been scraped in this session
func (d *Data) HasPage() bool {
	return d != nil && d.ScrapedData != ""
}

// Store persists session data by ID.
// Get returns errors.ErrNoSession for unknown and expired sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data) error
	Delete(ctx context.Context, id string) error
}

// Pruner is implemented by stores that must drop expired sessions themselves
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// NewID returns a fresh random session ID
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID produced by NewID.
// IDs arrive in cookies and end up in file names and keys, so anything else is rejected.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func expired(d *Data, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(d.UpdatedAt) > ttl
}

// NewStore builds the store selected by cfg.SessionStore
func NewStore(ctx context.Context, cfg config.ServerConfig) (Store, error) {
	switch cfg.SessionStore {
	case "memory":
		return NewMemoryStore(cfg.SessionTTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.InfoCF("session", "Using redis session store", map[string]interface{}{"addr": cfg.RedisAddr})
		return NewRedisStore(client, cfg.SessionTTL), nil
	case "file", "":
		store, err := NewFileStore(cfg.SessionDir, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		logger.InfoCF("session", "Using file session store", map[string]interface{}{"dir": cfg.SessionDir})
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unsupported session store %q", apierrors.ErrMissingConfig, cfg.SessionStore)
	}
}
