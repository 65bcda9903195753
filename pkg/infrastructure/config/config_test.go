package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000.0, cfg.Planning.TotalLaborHours)
	assert.Equal(t, 3, cfg.Planning.MaxShiftsPerDay)
	assert.Equal(t, "skip", cfg.Planning.UnknownProductPolicy)
	assert.Equal(t, "exact", cfg.Planning.AttainmentRounding)
	assert.Equal(t, "last_wins", cfg.Catalog.DuplicateDescriptions)

	timeout, err := cfg.SolveTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestFromYAML_OverridesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte(`
planning:
  total_labor_hours: 1200
  unknown_product_policy: abort
store:
  dsn: history.db
`))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, cfg.Planning.TotalLaborHours)
	assert.Equal(t, "abort", cfg.Planning.UnknownProductPolicy)
	assert.Equal(t, 3, cfg.Planning.MaxShiftsPerDay, "unset keys keep their defaults")
	assert.Equal(t, "history.db", cfg.Store.DSN)
}

func TestFromYAML_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		expectError string
	}{
		{"bad yaml", "planning: [", "invalid config yaml"},
		{"zero budget", "planning:\n  total_labor_hours: 0\n", "total_labor_hours must be positive"},
		{"zero shifts", "planning:\n  max_shifts_per_day: 0\n", "max_shifts_per_day must be a positive integer"},
		{"unknown policy", "planning:\n  unknown_product_policy: ignore\n", "unknown_product_policy must be"},
		{"unknown rounding", "planning:\n  attainment_rounding: bankers\n", "attainment_rounding must be"},
		{"bad timeout", "planning:\n  solve_timeout: soon\n", "solve_timeout is not a duration"},
		{"duplicate policy", "catalog:\n  duplicate_descriptions: first_wins\n", "duplicate_descriptions must be"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOptional(filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("planning:\n  max_shifts_per_day: 2\n"), 0o644))
	cfg, err = LoadOptional(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Planning.MaxShiftsPerDay)

	cfg, err = FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Planning.MaxShiftsPerDay)
}
