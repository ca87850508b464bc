package imaging

import (
	"crypto/md5"
	"fmt"
	"io"
	"sync"
)

// CacheKey is a 128-bit digest over (source identity, full parameter
// set). This is a memoization key, not a security boundary; MD5 is
// plenty collision-resistant for that purpose and fixed-size.
type CacheKey [md5.Size]byte

func (k CacheKey) String() string { return fmt.Sprintf("%x", k[:]) }

// buildCacheKey serializes every parameter field in a fixed, declared
// order before hashing, so two logically identical parameter sets hash
// identically no matter how the caller assembled them. Each field is
// delimited and tagged to keep distinct sets from colliding on
// concatenation.
func buildCacheKey(identity string, p TransformParams) CacheKey {
	h := md5.New()
	io.WriteString(h, identity)
	fmt.Fprintf(h, "|w=%s|h=%s|fmt=%s|q=%d", optInt(p.Width), optInt(p.Height), p.Format, p.Quality)
	fmt.Fprintf(h, "|cx=%s|cy=%s|cw=%s|ch=%s", optInt(p.CropX), optInt(p.CropY), optInt(p.CropWidth), optInt(p.CropHeight))
	fmt.Fprintf(h, "|rot=%s|wm=%s|gray=%t|enh=%t|comp=%t", optInt(p.Rotate), p.Watermark, p.Grayscale, p.Enhance, p.Compress)

	var key CacheKey
	copy(key[:], h.Sum(nil))
	return key
}

// optInt renders an optional int distinctly from any set value.
func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// cacheEntry is an immutable stored result. Bytes are copied on the way
// in and on the way out; the cached slice is never handed to a caller.
type cacheEntry struct {
	bytes  []byte
	format string
}

// ResultCache is a bounded, thread-safe store of transformation
// results keyed by CacheKey.
//
// Eviction is insertion-order: when full, the oldest-inserted entry is
// removed, regardless of how recently or often it was read. That can
// evict a hot entry while cold ones survive. This is not an LRU and
// must not become one.
//
// The cache does not single-flight: two goroutines missing on the same
// key may both compute and both insert. Last write wins.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[CacheKey]cacheEntry
	order    []CacheKey // insertion order, oldest first
}

// DefaultCacheCapacity bounds the cache when the caller does not.
const DefaultCacheCapacity = 100

// NewResultCache creates an empty cache holding at most capacity
// entries. Non-positive capacities fall back to DefaultCacheCapacity.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[CacheKey]cacheEntry, capacity),
		order:    make([]CacheKey, 0, capacity),
	}
}

// Lookup returns an independent copy of the entry for key, if present.
// A miss has no side effects. Mutating the returned bytes cannot
// corrupt the cached original or any other returned copy.
func (c *ResultCache) Lookup(key CacheKey) ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, "", false
	}
	out := make([]byte, len(e.bytes))
	copy(out, e.bytes)
	return out, e.format, true
}

// Insert stores a result under key, copying the bytes. At capacity it
// first evicts exactly one entry, the oldest-inserted. Re-inserting an
// existing key overwrites the value and keeps the key's original
// position in the eviction order.
func (c *ResultCache) Insert(key CacheKey, data []byte, format string) {
	stored := make([]byte, len(data))
	copy(stored, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = cacheEntry{bytes: stored, format: format}
		return
	}
	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = cacheEntry{bytes: stored, format: format}
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
