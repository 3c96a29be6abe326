package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "*_full.jsonl", cfg.Pattern)
	assert.Equal(t, 2000, cfg.SampleSize)
	assert.Equal(t, 0.95, cfg.Threshold)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100000, cfg.BatchSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty pattern", func(c *Config) { c.Pattern = "" }},
		{"negative sample", func(c *Config) { c.SampleSize = -1 }},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"threshold above one", func(c *Config) { c.Threshold = 1.01 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"zero preview", func(c *Config) { c.PreviewLen = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DEDUP_SAMPLE_SIZE", "500")
	t.Setenv("DEDUP_THRESHOLD", "0.9")
	t.Setenv("DEDUP_SEED", "7")
	t.Setenv("DEDUP_PATTERN", "*.jsonl")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.SampleSize)
	assert.Equal(t, 0.9, cfg.Threshold)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "*.jsonl", cfg.Pattern)
	// Untouched fields keep defaults.
	assert.Equal(t, 100000, cfg.BatchSize)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("DEDUP_SAMPLE_SIZE", "many")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvRejectsOutOfRangeValues(t *testing.T) {
	t.Setenv("DEDUP_THRESHOLD", "1.5")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_size: 300\nthreshold: 0.85\n"), 0644))

	cfg, err := Default().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.SampleSize)
	assert.Equal(t, 0.85, cfg.Threshold)
	assert.Equal(t, "*_full.jsonl", cfg.Pattern, "fields absent from the file keep defaults")
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 2.0\n"), 0644))

	_, err := Default().LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Default().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
