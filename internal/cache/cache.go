package cache

// EvictCallback is called when an entry is evicted from the cache.
// Not all backends support eviction callbacks (Redis expires keys server-side).
type EvictCallback func(key string, value []byte)

// Logger receives error reports from cache operations that cannot return an
// error to the caller (the Cache interface is deliberately infallible).
type Logger interface {
	Error(msg string, err error)
}

// Cache is a byte-oriented key-value cache with TTL semantics, used to hold
// downloaded subtitle payloads keyed by composite id. Implementations may be
// in-memory or backed by Redis/Valkey.
type Cache interface {
	// Get retrieves a value by key. Returns the value and true on a hit.
	Get(key string) ([]byte, bool)

	// Set stores a value under key, overwriting any existing entry.
	Set(key string, value []byte)

	// Contains reports whether a key exists without touching recency.
	Contains(key string) bool

	// Len returns the number of entries currently cached. For external
	// backends this may reflect the total key count in the configured database.
	Len() int

	// Close releases held resources. In-memory caches treat this as a no-op.
	Close() error
}
