package cachesim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadTiming_OverridesSubsetOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mem_fetch_cc: 250\n"), 0o644))

	timing, err := LoadTiming(path)
	require.NoError(t, err)

	require.Equal(t, uint64(250), timing.MemFetchCC)
	require.Equal(t, DefaultTiming().L1CacheHitCC, timing.L1CacheHitCC)
	require.Equal(t, DefaultTiming().EvictDirtyCacheBlockCC, timing.EvictDirtyCacheBlockCC)
}

func TestLoadTiming_MissingFile(t *testing.T) {
	_, err := LoadTiming(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadTiming_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := LoadTiming(path)
	require.Error(t, err)
}

func TestNewGeometry_DerivesBitWidths(t *testing.T) {
	g, err := NewGeometry(4096, 2, 32)
	require.NoError(t, err)
	require.Equal(t, uint64(64), g.SetCount)
	require.Equal(t, uint(5), g.OffsetBits)
	require.Equal(t, uint(6), g.SetIndexBits)
}
