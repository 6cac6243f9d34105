package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"panotiler/internal/conversion"
)

// DefaultEntries is the default number of cached conversions
const DefaultEntries = 8

// ArchiveCache keeps recently produced archives in memory so that repeated
// conversions of the same source are served without re-rasterizing. Keys are
// the SHA-256 digest of the encoded source bytes; archives are immutable and
// fully re-derivable, so eviction is always safe.
type ArchiveCache struct {
	entries *lru.Cache[string, *conversion.Result]
}

// NewArchiveCache creates a cache holding up to maxEntries conversions
func NewArchiveCache(maxEntries int) (*ArchiveCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultEntries
	}
	entries, err := lru.New[string, *conversion.Result](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive cache: %w", err)
	}
	return &ArchiveCache{entries: entries}, nil
}

// Key derives the cache key for an encoded source image
func Key(sourceData []byte) string {
	digest := sha256.Sum256(sourceData)
	return hex.EncodeToString(digest[:])
}

// Get returns the cached conversion for a key, if present
func (c *ArchiveCache) Get(key string) (*conversion.Result, bool) {
	result, ok := c.entries.Get(key)
	if ok {
		log.Printf("[Cache HIT] conversion %s", key[:12])
	}
	return result, ok
}

// Set stores a finished conversion under a key
func (c *ArchiveCache) Set(key string, result *conversion.Result) {
	c.entries.Add(key, result)
}

// Len returns the number of cached conversions
func (c *ArchiveCache) Len() int {
	return c.entries.Len()
}
