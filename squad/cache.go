package squad

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/deepnoodle-ai/synapse/slogger"
)

// CacheFileName is the squad manifest cache file under .synapse/cache/.
const CacheFileName = "squad-manifests.json"

// DefaultTTL is how long a cached scan stays fresh. The cache is shared
// across hook processes without locking; correctness is "eventually
// consistent within the TTL", so a redundant rescan after a racing write
// is the accepted worst case.
const DefaultTTL = 60 * time.Second

// Cache persists squad discovery results between hook invocations.
type Cache struct {
	path   string
	ttl    time.Duration
	logger slogger.Logger

	// now is swappable for TTL tests.
	now func() time.Time
}

// cacheFile is the on-disk format.
type cacheFile struct {
	ScannedAt time.Time `json:"scannedAt"`
	Squads    []*Squad  `json:"squads"`
}

// NewCache creates a cache at path with the default TTL.
func NewCache(path string, logger slogger.Logger) *Cache {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	return &Cache{
		path:   path,
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// SetTTL overrides the staleness budget.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Read returns the cached squads and true on a fresh hit. A missing,
// corrupt, or stale cache is a miss, never an error.
func (c *Cache) Read() ([]*Squad, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Debug("squad cache corrupt, treating as miss", "path", c.path, "error", err)
		return nil, false
	}
	if f.ScannedAt.IsZero() || c.now().Sub(f.ScannedAt) > c.ttl {
		return nil, false
	}
	return f.Squads, true
}

// Peek returns whatever squads the cache file holds regardless of TTL.
// Used by the CLI cache commands; the hook path goes through Read.
func (c *Cache) Peek() ([]*Squad, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	return f.Squads, true
}

// Age returns how old the cache file's scan is, and whether a readable
// cache exists at all.
func (c *Cache) Age() (time.Duration, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil || f.ScannedAt.IsZero() {
		return 0, false
	}
	return c.now().Sub(f.ScannedAt), true
}

// Write stores a scan result. Failures are swallowed after a diagnostic;
// the cache is an optimization, not a requirement.
func (c *Cache) Write(squads []*Squad) {
	data, err := json.MarshalIndent(cacheFile{
		ScannedAt: c.now(),
		Squads:    squads,
	}, "", "  ")
	if err != nil {
		c.logger.Warn("squad cache encode failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		c.logger.Debug("squad cache dir create failed", "path", c.path, "error", err)
		return
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		c.logger.Debug("squad cache write failed", "path", c.path, "error", err)
	}
}

// Clear removes the cache file. A missing file is not an error.
func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
