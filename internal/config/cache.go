package config

import (
	"time"
)

// CacheConfig defines settings for the response cache middleware used on
// the public report and marketplace listings. When Enabled is false or no
// Redis client is configured, caching is disabled. TTL defines the lifetime
// of cache entries; MaxBodyBytes caps the size of responses worth caching.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set. Only GET responses are
// cached; the listings change on every new report so the TTL stays short.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
