package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("freight-api")
	require.NoError(t, err)

	assert.Equal(t, "freight-api", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.InDelta(t, 6500, cfg.Tariff.RatePerBillableKg, 1e-9)
	assert.Len(t, cfg.Tariff.DistanceBands, 3)
}

func TestLoadTariffOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariff.yaml")

	content := []byte("ratePerBillableKg: 7000\nfragileMultiplier: 1.5\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("TARIFF_PATH", path)

	cfg, err := Load("freight-api")
	require.NoError(t, err)

	assert.InDelta(t, 7000, cfg.Tariff.RatePerBillableKg, 1e-9)
	assert.InDelta(t, 1.5, cfg.Tariff.FragileMultiplier, 1e-9)
	// Untouched fields keep defaults
	assert.Len(t, cfg.Tariff.DistanceBands, 3)
}

func TestLoadTariffInvalidFile(t *testing.T) {
	t.Setenv("TARIFF_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load("freight-api")
	assert.Error(t, err)
}
