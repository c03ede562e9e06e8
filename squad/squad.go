// Package squad discovers self-contained rule bundles that extend the base
// pipeline. A squad is a sibling directory of the project's .synapse root,
// under squads/<name>/, carrying its own .synapse/manifest and rule files.
//
// Discovery results are cached on disk with a short TTL because the hook
// runs as a fresh process for every prompt and rescanning the filesystem
// each time is wasteful. The cache is shared across processes without
// locking; a torn or stale read simply triggers a rescan.
package squad

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/slogger"
)

// DirName is the squads directory, resolved as a sibling of .synapse.
const DirName = "squads"

// Squad is one discovered bundle: its name, its own .synapse root, and its
// parsed manifest (including merge mode).
type Squad struct {
	Name     string             `json:"name"`
	Root     string             `json:"root"`
	Manifest *manifest.Manifest `json:"manifest"`
}

// Mode returns the squad's merge mode, defaulting to extend.
func (s *Squad) Mode() manifest.MergeMode {
	if s.Manifest == nil || s.Manifest.Mode == "" {
		return manifest.MergeExtend
	}
	return s.Manifest.Mode
}

// NamespaceKey prefixes a domain key with the squad's upper-snake name:
// squad "alpha", key "GLOBAL" yields "ALPHA_GLOBAL".
func (s *Squad) NamespaceKey(key string) string {
	return manifest.UpperSnake(s.Name) + "_" + strings.ToUpper(key)
}

// Discovery scans for squads relative to a project .synapse root.
type Discovery struct {
	root   string // the project's .synapse directory
	logger slogger.Logger
	cache  *Cache
}

// NewDiscovery creates a Discovery for the given .synapse root. A nil
// logger falls back to the package default.
func NewDiscovery(root string, logger slogger.Logger) *Discovery {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	return &Discovery{
		root:   root,
		logger: logger,
		cache:  NewCache(filepath.Join(root, "cache", CacheFileName), logger),
	}
}

// SquadsDir returns the squads directory, a sibling of the .synapse root.
func (d *Discovery) SquadsDir() string {
	return filepath.Join(filepath.Dir(d.root), DirName)
}

// Cache exposes the discovery cache, mainly for the CLI cache commands.
func (d *Discovery) Cache() *Cache {
	return d.cache
}

// Discover returns all squads, reusing the cache when it is fresh. On a
// cache miss it rescans and rewrites the cache best-effort. Returns nil
// when the squads directory does not exist.
func (d *Discovery) Discover() []*Squad {
	if squads, ok := d.cache.Read(); ok {
		return squads
	}
	squads := d.Scan()
	if squads != nil {
		d.cache.Write(squads)
	}
	return squads
}

// Scan walks squads/*/.synapse/manifest and parses each squad manifest,
// bypassing the cache. Squads are returned in lexical directory order.
func (d *Discovery) Scan() []*Squad {
	pattern := filepath.Join(d.SquadsDir(), "*", ".synapse", "manifest")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		d.logger.Warn("squad scan failed", "pattern", pattern, "error", err)
		return nil
	}
	var squads []*Squad
	for _, manifestPath := range matches {
		squadRoot := filepath.Dir(manifestPath)
		name := filepath.Base(filepath.Dir(squadRoot))
		squads = append(squads, &Squad{
			Name:     name,
			Root:     squadRoot,
			Manifest: manifest.Parse(manifestPath, d.logger),
		})
	}
	d.logger.Debug("squad scan complete", "squads", len(squads))
	return squads
}

// Prioritize moves the squad matching active (case-insensitive) to the
// front, preserving discovery order for the rest. The input slice is not
// modified.
func Prioritize(squads []*Squad, active string) []*Squad {
	if active == "" || len(squads) == 0 {
		return squads
	}
	ordered := make([]*Squad, 0, len(squads))
	var rest []*Squad
	for _, s := range squads {
		if strings.EqualFold(s.Name, active) && len(ordered) == 0 {
			ordered = append(ordered, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(ordered, rest...)
}
