package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
snapshot:
  snapshotHeightInterval: 10
  distanceFromMajority: 5
processing:
  maxAcceptedCBHashesInMemory: 500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(10), cfg.Snapshot.SnapshotHeightInterval)
	require.Equal(t, int64(5), cfg.Snapshot.DistanceFromMajority)
	require.Equal(t, 500, cfg.Processing.MaxAcceptedCBHashesInMemory)
	// Untouched knobs keep their defaults.
	require.Equal(t, int64(4), cfg.Snapshot.SnapshotHeightDelayInterval)
}
