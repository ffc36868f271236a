// Package stats tracks video view counts. Increments go through a counter
// capability so hot counters can live in Redis while single-node deployments
// fall back to process memory; totals are folded into the video record by the
// caller.
package stats

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ViewCounter increments the view total for a video and returns the new
// count.
type ViewCounter interface {
	Increment(ctx context.Context, videoID string) (int64, error)
}

// MemoryViewCounter keeps counts in process memory. Safe for concurrent use.
type MemoryViewCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryViewCounter constructs the in-memory counter.
func NewMemoryViewCounter() *MemoryViewCounter {
	return &MemoryViewCounter{counts: make(map[string]int64)}
}

// Increment adds one view and returns the running total.
func (c *MemoryViewCounter) Increment(_ context.Context, videoID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[videoID]++
	return c.counts[videoID], nil
}

// RedisConfig configures the Redis-backed counter.
type RedisConfig struct {
	Addr         string
	Addrs        []string
	Username     string
	Password     string
	MasterName   string
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	TLS          *tls.Config
}

// RedisViewCounter counts views in Redis so totals survive restarts and are
// shared across replicas.
type RedisViewCounter struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisViewCounter connects the counter to Redis. The caller is
// responsible for ensuring the instance is reachable.
func NewRedisViewCounter(cfg RedisConfig) (*RedisViewCounter, error) {
	addrs := make([]string, 0, len(cfg.Addrs)+1)
	for _, addr := range cfg.Addrs {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	if addr := strings.TrimSpace(cfg.Addr); addr != "" {
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addr is required")
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "videotube:views"
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		MasterName:   strings.TrimSpace(cfg.MasterName),
		Username:     strings.TrimSpace(cfg.Username),
		Password:     cfg.Password,
		TLSConfig:    cfg.TLS,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   2,
	})
	return &RedisViewCounter{client: client, keyPrefix: prefix}, nil
}

// Increment adds one view and returns the running total.
func (c *RedisViewCounter) Increment(ctx context.Context, videoID string) (int64, error) {
	count, err := c.client.Incr(ctx, c.key(videoID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	return count, nil
}

// Close releases the Redis client resources.
func (c *RedisViewCounter) Close() error {
	return c.client.Close()
}

func (c *RedisViewCounter) key(videoID string) string {
	return c.keyPrefix + ":" + videoID
}

var (
	_ ViewCounter = (*MemoryViewCounter)(nil)
	_ ViewCounter = (*RedisViewCounter)(nil)
)
