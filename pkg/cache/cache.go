// Package cache provides a Redis-backed cache for scraped series
// metadata. Metadata changes rarely, so re-runs of the fetcher can skip
// the slow search-page scrape for codes already seen.
package cache

import (
	"fmt"
	"time"
)

// Key identifies one cached metadata record.
type Key struct {
	// Code is the series code.
	Code int

	// Locale is the metadata language ("en" or "pt").
	Locale string
}

// String generates a deterministic cache key string.
// Format: sgs:meta:{code}:{locale}
func (k Key) String() string {
	return fmt.Sprintf("sgs:meta:%d:%s", k.Code, k.Locale)
}

// Entry represents a cached metadata record.
type Entry struct {
	// Data is the JSON-encoded metadata record.
	Data []byte `json:"data"`

	// Expires is when the cache entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this record.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
