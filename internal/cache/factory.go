package cache

import (
	"log/slog"
	"time"
)

// Options selects and configures the cache backend.
type Options struct {
	// RedisURL enables the Redis backend when non-empty.
	RedisURL string

	// Prefix namespaces keys in shared backends.
	Prefix string

	// DefaultTTL is the default expiration for cache entries.
	DefaultTTL time.Duration

	// MaxSize caps the memory backend entry count (0 = unlimited).
	MaxSize int
}

// New creates a cache from the given options. When a Redis URL is
// configured but unreachable, it logs a warning and falls back to the
// in-memory backend so the server still starts.
func New(opts Options) Cache {
	if opts.RedisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{
			URL:        opts.RedisURL,
			Prefix:     opts.Prefix,
			DefaultTTL: opts.DefaultTTL,
		})
		if err == nil {
			slog.Info("using redis cache", "prefix", opts.Prefix)
			return c
		}
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      opts.DefaultTTL,
		MaxSize:         opts.MaxSize,
		CleanupInterval: time.Minute,
	})
}
