// Package cache implements the content-addressed scan cache: virtual_path
// keys a CacheEntry holding the findings previously computed for that
// content's hash, invalidated by rule corpus changes, TTL expiry, or content
// drift.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vetra-sec/vetra/core/findings"
)

// DefaultTTL is the age beyond which a cache entry is evicted regardless of
// content or rule version match, per spec §4.6.
const DefaultTTL = 7 * 24 * time.Hour

// CacheEntry is the persisted payload for one virtual_path.
type CacheEntry struct {
	ContentHash string             `json:"content_hash"`
	RuleVersion string             `json:"rule_version"`
	CreatedAt   time.Time          `json:"created_at"`
	Findings    []findings.Finding `json:"findings"`
}

// HashContent returns the hex-encoded SHA-256 digest of content, used as
// the comparison key for cache hits.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Cache is a content-addressed, on-disk scan cache keyed by virtual_path.
// It is safe for concurrent use by scheduler workers.
type Cache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
	ttl     time.Duration
	dirty   bool
}

// New returns an empty Cache with the given TTL. Use Load to populate it
// from disk.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{entries: make(map[string]CacheEntry), ttl: ttl}
}

// Load reads a previously persisted cache file. A missing file is not an
// error: it yields an empty cache, matching the "first run" case.
func Load(path string, ttl time.Duration) (*Cache, error) {
	c := New(ttl)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("cache: parse %s: %w", path, err)
	}
	return c, nil
}

// Save persists the cache to path via atomic write (temp file + rename), if
// and only if the cache has been mutated since load. Callers that always
// want a write regardless of dirtiness should call SaveForce.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	dirty := c.dirty
	c.mu.Unlock()
	if !dirty {
		return nil
	}
	return c.SaveForce(path)
}

// SaveForce persists the cache to path unconditionally.
func (c *Cache) SaveForce(path string) error {
	c.mu.Lock()
	data, err := json.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("cache: rename temp file: %w", err)
	}
	return nil
}

// Lookup implements the lookup semantics of spec §4.6: a hit is only
// returned when the entry's rule_version matches currentRuleVersion, the
// entry has not exceeded the cache's TTL, and the content hash matches.
// Any other case evicts the stale entry and reports a miss.
func (c *Cache) Lookup(virtualPath, content, currentRuleVersion string) ([]findings.Finding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[virtualPath]
	if !ok {
		return nil, false
	}
	if entry.RuleVersion != currentRuleVersion {
		delete(c.entries, virtualPath)
		c.dirty = true
		return nil, false
	}
	if time.Since(entry.CreatedAt) > c.ttl {
		delete(c.entries, virtualPath)
		c.dirty = true
		return nil, false
	}
	if entry.ContentHash != HashContent(content) {
		delete(c.entries, virtualPath)
		c.dirty = true
		return nil, false
	}
	return entry.Findings, true
}

// Store records findings computed for virtualPath/content under
// currentRuleVersion, timestamped now.
func (c *Cache) Store(virtualPath, content, currentRuleVersion string, result []findings.Finding, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[virtualPath] = CacheEntry{
		ContentHash: HashContent(content),
		RuleVersion: currentRuleVersion,
		CreatedAt:   now,
		Findings:    result,
	}
	c.dirty = true
}

// Len returns the number of entries currently held, for diagnostics/tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// DefaultPath returns the platform-standard cache file location: the OS
// user cache directory joined with vetra/scan-cache.json, per SPEC_FULL's
// open-question decision.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "vetra", "scan-cache.json"), nil
}
