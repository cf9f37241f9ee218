package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesSpecConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8, cfg.IVF.NLists)
	assert.Equal(t, 2, cfg.IVF.NProbe)
	assert.Equal(t, int64(42), cfg.IVF.Seed)
	assert.Equal(t, 8, cfg.LSH.NTables)
	assert.Equal(t, 16, cfg.LSH.NBitsPerTable)
	assert.InDelta(t, 1.5, cfg.Fulltext.K1, 1e-9)
	assert.InDelta(t, 0.75, cfg.Fulltext.B, 1e-9)
	assert.InDelta(t, 0.25, cfg.Rebuild.KDTreeTombstoneRatio, 1e-9)
	assert.InDelta(t, 0.20, cfg.Rebuild.IVFRetrainDeleteRatio, 1e-9)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("VECSTORE_IVF_N_PROBE", "4")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.IVF.NProbe)
	assert.Equal(t, 8, cfg.IVF.NLists)
}

func TestLoad_NoConfigFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	_, err = Load()
	require.NoError(t, err)
}
