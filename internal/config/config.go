// Package config loads table and index tuning parameters, following the
// env-prefixed viper pattern of internal/config/config.go: defaults
// registered up front, then overridden by VECSTORE_-prefixed environment
// variables or an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable for a table's indexes. Table construction
// consults this so callers can retune IVF/LSH/BM25/rebuild behavior
// without code changes.
type Config struct {
	IVF      IVFConfig      `mapstructure:"ivf"`
	LSH      LSHConfig      `mapstructure:"lsh"`
	Fulltext FulltextConfig `mapstructure:"fulltext"`
	Rebuild  RebuildConfig  `mapstructure:"rebuild"`
}

// IVFConfig tunes the IVFFlat index (§4.2.3).
type IVFConfig struct {
	NLists int   `mapstructure:"n_lists"`
	NProbe int   `mapstructure:"n_probe"`
	Seed   int64 `mapstructure:"seed"`
}

// LSHConfig tunes the LSH index (§4.2.4).
type LSHConfig struct {
	NTables       int   `mapstructure:"n_tables"`
	NBitsPerTable int   `mapstructure:"n_bits_per_table"`
	Seed          int64 `mapstructure:"seed"`
}

// FulltextConfig tunes the BM25 ranker (§4.4).
type FulltextConfig struct {
	K1 float64 `mapstructure:"k1"`
	B  float64 `mapstructure:"b"`
}

// RebuildConfig tunes the tombstone thresholds that trigger a rebuild
// (§4.2.2, §4.2.3).
type RebuildConfig struct {
	KDTreeTombstoneRatio  float64 `mapstructure:"kdtree_tombstone_ratio"`
	IVFRetrainDeleteRatio float64 `mapstructure:"ivf_retrain_delete_ratio"`
}

var defaults = map[string]any{
	"ivf.n_lists": 8,
	"ivf.n_probe": 2,
	"ivf.seed":    42,

	"lsh.n_tables":         8,
	"lsh.n_bits_per_table": 16,
	"lsh.seed":             42,

	"fulltext.k1": 1.5,
	"fulltext.b":  0.75,

	"rebuild.kdtree_tombstone_ratio":   0.25,
	"rebuild.ivf_retrain_delete_ratio": 0.20,
}

// Default returns the spec's fixed tuning constants with no environment
// or file overrides applied.
func Default() Config {
	var cfg Config
	v := newViperWithDefaults()
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads defaults, VECSTORE_-prefixed environment variables, and an
// optional "vecstore.yaml" config file. Following viper's precedence, an
// environment variable beats the file, and the file beats the default.
func Load() (Config, error) {
	v := newViperWithDefaults()

	v.SetEnvPrefix("VECSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("vecstore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

func newViperWithDefaults() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}
