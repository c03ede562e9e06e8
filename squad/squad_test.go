package squad

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/synapse/manifest"
	"github.com/deepnoodle-ai/synapse/slogger"
)

// writeSquad lays out squads/<name>/.synapse with a manifest and rule files.
func writeSquad(t *testing.T, base, name, manifestBody string, files map[string]string) {
	t.Helper()
	root := filepath.Join(base, DirName, name, ".synapse")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "manifest"), []byte(manifestBody), 0644))
	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, file), []byte(content), 0644))
	}
}

// newTestDiscovery builds a project tree with a .synapse root under base.
func newTestDiscovery(t *testing.T, base string) *Discovery {
	t.Helper()
	root := filepath.Join(base, ".synapse")
	require.NoError(t, os.MkdirAll(root, 0755))
	return NewDiscovery(root, slogger.NewDevNullLogger())
}

func TestScan(t *testing.T) {
	base := t.TempDir()
	d := newTestDiscovery(t, base)

	writeSquad(t, base, "bravo", "domains:\n  GLOBAL: global\n", map[string]string{"global": "bravo rule\n"})
	writeSquad(t, base, "alpha", "domains:\n  ALPHA_EXTENDS: override\n  GLOBAL: global\n", nil)

	squads := d.Scan()
	require.Len(t, squads, 2)

	// Lexical directory order
	require.Equal(t, "alpha", squads[0].Name)
	require.Equal(t, "bravo", squads[1].Name)

	require.Equal(t, manifest.MergeOverride, squads[0].Mode())
	require.Equal(t, manifest.MergeExtend, squads[1].Mode())
	require.Equal(t, "ALPHA_GLOBAL", squads[0].NamespaceKey("GLOBAL"))

	// Each squad loads relative to its own root
	g := squads[1].Manifest.Lookup("GLOBAL")
	require.NotNil(t, g)
	require.Equal(t, []string{"bravo rule"}, g.Load(squads[1].Root))
}

func TestScanNoSquadsDir(t *testing.T) {
	d := newTestDiscovery(t, t.TempDir())
	require.Nil(t, d.Scan())
	require.Nil(t, d.Discover())
}

func TestDiscoverUsesCache(t *testing.T) {
	base := t.TempDir()
	d := newTestDiscovery(t, base)
	writeSquad(t, base, "alpha", "domains:\n  GLOBAL: global\n", nil)

	first := d.Discover()
	require.Len(t, first, 1)

	// A squad added after the scan is invisible while the cache is fresh
	writeSquad(t, base, "bravo", "domains:\n  GLOBAL: global\n", nil)
	second := d.Discover()
	require.Len(t, second, 1)

	// Expiring the cache picks it up
	d.cache.now = func() time.Time { return time.Now().Add(2 * DefaultTTL) }
	third := d.Discover()
	require.Len(t, third, 2)
}

func TestCacheCorruptIsMiss(t *testing.T) {
	base := t.TempDir()
	d := newTestDiscovery(t, base)
	writeSquad(t, base, "alpha", "domains:\n  GLOBAL: global\n", nil)

	require.Len(t, d.Discover(), 1)
	require.NoError(t, os.WriteFile(d.cache.Path(), []byte("{truncated"), 0644))

	_, ok := d.cache.Read()
	require.False(t, ok)

	// Discover falls back to a fresh scan and repairs the cache
	require.Len(t, d.Discover(), 1)
	_, ok = d.cache.Read()
	require.True(t, ok)
}

func TestCacheRoundTrip(t *testing.T) {
	base := t.TempDir()
	d := newTestDiscovery(t, base)
	writeSquad(t, base, "alpha", `
domains:
  ALPHA_EXTENDS:
    file: none
  KNOWLEDGE:
    file: knowledge
    recall: [caching]
`, nil)

	require.Len(t, d.Discover(), 1)

	cached, ok := d.cache.Read()
	require.True(t, ok)
	require.Len(t, cached, 1)
	require.Equal(t, "alpha", cached[0].Name)
	require.Equal(t, manifest.MergeNone, cached[0].Mode())

	k := cached[0].Manifest.Lookup("KNOWLEDGE")
	require.NotNil(t, k)
	require.Equal(t, []string{"caching"}, k.Recall)
}

func TestCacheAgeAndClear(t *testing.T) {
	base := t.TempDir()
	d := newTestDiscovery(t, base)
	writeSquad(t, base, "alpha", "domains:\n  GLOBAL: global\n", nil)

	_, ok := d.cache.Age()
	require.False(t, ok)

	d.Discover()
	age, ok := d.cache.Age()
	require.True(t, ok)
	require.Less(t, age, DefaultTTL)

	require.NoError(t, d.cache.Clear())
	require.NoError(t, d.cache.Clear()) // already gone
	_, ok = d.cache.Read()
	require.False(t, ok)
}

func TestPrioritize(t *testing.T) {
	a := &Squad{Name: "alpha"}
	b := &Squad{Name: "bravo"}
	c := &Squad{Name: "charlie"}

	require.Equal(t, []*Squad{b, a, c}, Prioritize([]*Squad{a, b, c}, "Bravo"))
	require.Equal(t, []*Squad{a, b, c}, Prioritize([]*Squad{a, b, c}, ""))
	require.Equal(t, []*Squad{a, b, c}, Prioritize([]*Squad{a, b, c}, "missing"))
	require.Nil(t, Prioritize(nil, "alpha"))
}
