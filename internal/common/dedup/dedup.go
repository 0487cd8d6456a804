// internal/common/dedup/dedup.go
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/logger"
)

// Suppressor is a best-effort guard against provider webhook redeliveries.
// Every operation degrades to "proceed with the relay" when redis is down
// or the suppressor is nil: duplicate posts are tolerated by the board, a
// dropped check-in is not.
type Suppressor struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(cfg config.DedupConfig, log logger.Logger) *Suppressor {
	if !cfg.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	return &Suppressor{
		client: rdb,
		ttl:    time.Duration(cfg.TTL) * time.Second,
		logger: log,
	}
}

// NewFromClient wraps an existing redis client (used by tests).
func NewFromClient(client *redis.Client, ttl time.Duration, log logger.Logger) *Suppressor {
	return &Suppressor{client: client, ttl: ttl, logger: log}
}

// Ping tests the Redis connection
func (s *Suppressor) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Suppressor) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Claim marks the event id as seen. It returns first=true when this is the
// first delivery within the TTL window. For a redelivery it also returns
// the canonical link stored by the first delivery, when one was recorded.
func (s *Suppressor) Claim(ctx context.Context, eventKey string) (first bool, storedLink string) {
	if s == nil {
		return true, ""
	}

	set, err := s.client.SetNX(ctx, s.key(eventKey), "", s.ttl).Result()
	if err != nil {
		s.logger.Warn("dedup cache unavailable, proceeding", map[string]interface{}{
			"event": eventKey,
			"error": err.Error(),
		})
		return true, ""
	}
	if set {
		return true, ""
	}

	link, err := s.client.Get(ctx, s.key(eventKey)).Result()
	if err != nil {
		return false, ""
	}
	return false, link
}

// StoreLink records the canonical link for the event so a later redelivery
// can answer without republishing.
func (s *Suppressor) StoreLink(ctx context.Context, eventKey, link string) {
	if s == nil {
		return
	}
	if err := s.client.Set(ctx, s.key(eventKey), link, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to store canonical link in dedup cache", map[string]interface{}{
			"event": eventKey,
			"error": err.Error(),
		})
	}
}

func (s *Suppressor) key(eventKey string) string {
	return "relay:event:" + eventKey
}
