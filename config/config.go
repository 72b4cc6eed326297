// Package config loads the node's runtime configuration via viper,
// in the same grouped-struct-with-defaults shape the wider codebase's
// config packages use.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the root configuration tree.
type Config struct {
	Snapshot   SnapshotConfig
	Processing ProcessingConfig
	Storage    StorageConfig
	Node       NodeConfig
}

// SnapshotConfig groups every knob the snapshot state machine reads.
type SnapshotConfig struct {
	SnapshotHeightInterval      int64 // blocks between snapshots
	SnapshotHeightDelayInterval int64 // how far tips must lead the next height
	DistanceFromMajority        int64
	SnapshotSizeDiskLimit       int64 // bytes; 0 disables
}

// ProcessingConfig groups checkpoint-acceptance-pipeline knobs.
type ProcessingConfig struct {
	MaxAcceptedCBHashesInMemory int // 0 disables the precheck
}

// StorageConfig groups on-disk paths.
type StorageConfig struct {
	DataDir string
}

// NodeConfig groups pool-sizing and metrics-endpoint knobs.
type NodeConfig struct {
	BoundedPoolSize int // CPU-bound execution pool size
	MetricsAddr     string
}

// Default returns the configuration this node ships with absent any
// overrides.
func Default() Config {
	return Config{
		Snapshot: SnapshotConfig{
			SnapshotHeightInterval:      2,
			SnapshotHeightDelayInterval: 4,
			DistanceFromMajority:        30,
			SnapshotSizeDiskLimit:       0,
		},
		Processing: ProcessingConfig{
			MaxAcceptedCBHashesInMemory: 0,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Node: NodeConfig{
			BoundedPoolSize: 4,
			MetricsAddr:     ":9090",
		},
	}
}

// Load reads configuration from path (if it exists) layered over
// Default, with SNAPSHOTLEDGER_-prefixed environment variable
// overrides for every key.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SNAPSHOTLEDGER")
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	out := Config{
		Snapshot: SnapshotConfig{
			SnapshotHeightInterval:      v.GetInt64("snapshot.snapshotHeightInterval"),
			SnapshotHeightDelayInterval: v.GetInt64("snapshot.snapshotHeightDelayInterval"),
			DistanceFromMajority:        v.GetInt64("snapshot.distanceFromMajority"),
			SnapshotSizeDiskLimit:       v.GetInt64("snapshot.snapshotSizeDiskLimit"),
		},
		Processing: ProcessingConfig{
			MaxAcceptedCBHashesInMemory: v.GetInt("processing.maxAcceptedCBHashesInMemory"),
		},
		Storage: StorageConfig{
			DataDir: v.GetString("storage.dataDir"),
		},
		Node: NodeConfig{
			BoundedPoolSize: v.GetInt("node.boundedPoolSize"),
			MetricsAddr:     v.GetString("node.metricsAddr"),
		},
	}
	return out, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("snapshot.snapshotHeightInterval", cfg.Snapshot.SnapshotHeightInterval)
	v.SetDefault("snapshot.snapshotHeightDelayInterval", cfg.Snapshot.SnapshotHeightDelayInterval)
	v.SetDefault("snapshot.distanceFromMajority", cfg.Snapshot.DistanceFromMajority)
	v.SetDefault("snapshot.snapshotSizeDiskLimit", cfg.Snapshot.SnapshotSizeDiskLimit)
	v.SetDefault("processing.maxAcceptedCBHashesInMemory", cfg.Processing.MaxAcceptedCBHashesInMemory)
	v.SetDefault("storage.dataDir", cfg.Storage.DataDir)
	v.SetDefault("node.boundedPoolSize", cfg.Node.BoundedPoolSize)
	v.SetDefault("node.metricsAddr", cfg.Node.MetricsAddr)
}
