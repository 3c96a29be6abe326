// Package config holds the tunable knobs for detection and deletion runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config controls one detection/deletion run. All process-wide state (the
// random seed, the index location) is carried explicitly here rather than
// living in globals.
type Config struct {
	// Pattern selects input files inside the input directory.
	// Default: "*_full.jsonl"
	Pattern string `yaml:"pattern"`

	// SampleSize is the number of records reservoir-sampled for
	// near-duplicate comparison. The sample size, not the corpus size,
	// bounds the O(K²) comparison cost. 0 disables near-dupe detection.
	// Default: 2000
	SampleSize int `yaml:"sample_size"`

	// Threshold is the minimum similarity ratio for a near-duplicate
	// pair, in (0, 1].
	// Default: 0.95
	Threshold float64 `yaml:"threshold"`

	// Seed feeds the sampler's random source. Fixed seed + fixed input
	// files = identical sample, so detection runs are reproducible.
	// Default: 42
	Seed int64 `yaml:"seed"`

	// BatchSize is how many index entries are buffered before a bulk
	// insert. Larger batches are faster but hold more memory.
	// Default: 100000
	BatchSize int `yaml:"batch_size"`

	// Workers bounds the near-duplicate comparison pool. 0 means one
	// worker per CPU.
	// Default: 0
	Workers int `yaml:"workers"`

	// PreviewLen is how many characters of each text near-duplicate
	// reports show.
	// Default: 100
	PreviewLen int `yaml:"preview_len"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Pattern:    "*_full.jsonl",
		SampleSize: 2000,
		Threshold:  0.95,
		Seed:       42,
		BatchSize:  100000,
		Workers:    0,
		PreviewLen: 100,
	}
}

// Validate checks ranges. Called before a run starts so bad values fail
// fast instead of producing a silently wrong report.
func (c Config) Validate() error {
	if c.Pattern == "" {
		return fmt.Errorf("pattern must not be empty")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size cannot be negative (got %d)", c.SampleSize)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1] (got %g)", c.Threshold)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1 (got %d)", c.BatchSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative (got %d)", c.Workers)
	}
	if c.PreviewLen < 1 {
		return fmt.Errorf("preview_len must be at least 1 (got %d)", c.PreviewLen)
	}
	return nil
}

// FromEnv returns the default configuration with DEDUP_* environment
// overrides applied. Unset variables keep their defaults; malformed values
// are an error rather than a silent fallback.
func FromEnv() (Config, error) {
	c := Default()

	if v := os.Getenv("DEDUP_PATTERN"); v != "" {
		c.Pattern = v
	}
	if v := os.Getenv("DEDUP_SAMPLE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("invalid DEDUP_SAMPLE_SIZE %q: %w", v, err)
		}
		c.SampleSize = n
	}
	if v := os.Getenv("DEDUP_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("invalid DEDUP_THRESHOLD %q: %w", v, err)
		}
		c.Threshold = f
	}
	if v := os.Getenv("DEDUP_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("invalid DEDUP_SEED %q: %w", v, err)
		}
		c.Seed = n
	}
	if v := os.Getenv("DEDUP_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("invalid DEDUP_BATCH_SIZE %q: %w", v, err)
		}
		c.BatchSize = n
	}
	if v := os.Getenv("DEDUP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("invalid DEDUP_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile merges a YAML config file over c. Fields absent from the file
// keep their current values.
func (c Config) LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}
