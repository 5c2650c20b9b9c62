package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Cache is an on-disk response cache keyed by URL hash. Writes are
// serialized by the sequential extractor schedule; the cache itself does no
// locking.
type Cache struct {
	dir string
	ttl time.Duration // <= 0 means entries never expire
}

// cacheMeta is the sidecar record for one cached body.
type cacheMeta struct {
	URL       string   `json:"url"`
	FetchedAt utc.Time `json:"fetchedAt"`
}

// NewCache creates a cache rooted at dir with the given entry lifetime.
// A non-positive ttl means infinite lifetime.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// key hashes a URL into a stable file name.
func (c *Cache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached body for url, or ok=false on miss or expiry.
func (c *Cache) Get(url string) ([]byte, bool) {
	key := c.key(url)

	metaRaw, err := os.ReadFile(filepath.Join(c.dir, key+".meta.json"))
	if err != nil {
		return nil, false
	}
	var meta cacheMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, false
	}
	if c.ttl > 0 && utc.Now().Sub(meta.FetchedAt) > c.ttl {
		return nil, false
	}

	body, err := os.ReadFile(filepath.Join(c.dir, key+".body"))
	if err != nil {
		return nil, false
	}
	return body, true
}

// Put stores a body for url. The body lands before the meta sidecar so a
// partial write is a miss, never a truncated hit.
func (c *Cache) Put(url string, body []byte) error {
	key := c.key(url)

	if err := os.WriteFile(filepath.Join(c.dir, key+".body"), body, 0o644); err != nil {
		return errors.WrapIO("write", key+".body", err)
	}

	meta, err := json.Marshal(cacheMeta{URL: url, FetchedAt: utc.Now()})
	if err != nil {
		return errors.WrapParse("json", key+".meta.json", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, key+".meta.json"), meta, 0o644); err != nil {
		return errors.WrapIO("write", key+".meta.json", err)
	}
	return nil
}
