package keysplit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DimensionConfig configures how one keyspace dimension is partitioned.
type DimensionConfig struct {
	// Name is the dimension name as it appears in keys.
	Name string `yaml:"name"`

	// MinPartitions is the smallest number of partitions for this dimension.
	// Default: 1
	MinPartitions int `yaml:"minPartitions"`

	// MaxPartitions caps the partitions for this dimension (0 = the number of chunks).
	MaxPartitions int `yaml:"maxPartitions"`

	// OverlapBefore is how many neighbouring elements each partition also
	// receives before its core range.
	OverlapBefore int `yaml:"overlapBefore"`

	// OverlapAfter is how many neighbouring elements each partition also
	// receives after its core range.
	OverlapAfter int `yaml:"overlapAfter"`

	// ChunkSize groups consecutive elements that must stay in one partition.
	// Default: 1
	ChunkSize int `yaml:"chunkSize"`

	// Dependent marks a dimension that is not split. Its values are resolved
	// per partition, so partitions only restrict it to the keyspace range.
	Dependent bool `yaml:"dependent"`
}

// PublishConfig configures plan hand-off through NATS JetStream KV.
type PublishConfig struct {
	// Bucket is the KV bucket holding published plans.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to worker IDs to form plan keys ("<prefix>.<worker>").
	Prefix string `yaml:"prefix"`

	// Timeout bounds connecting, bucket creation and publishing.
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the configuration for the Planner.
type Config struct {
	// MinPartitions is the smallest acceptable total number of partitions.
	MinPartitions int `yaml:"minPartitions"`

	// MaxPartitions is the largest acceptable total number of partitions.
	MaxPartitions int `yaml:"maxPartitions"`

	// HashSeed seeds plan and partition fingerprints (0 = unseeded).
	HashSeed uint64 `yaml:"hashSeed"`

	// Dimensions configures individual dimensions. Keyspace dimensions without
	// an entry are partitioned with DefaultDimension settings.
	Dimensions []DimensionConfig `yaml:"dimensions"`

	// Publish controls plan hand-off.
	Publish PublishConfig `yaml:"publish"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		MinPartitions: 1,
		MaxPartitions: 64,
		Publish: PublishConfig{
			Bucket:  "keysplit-plans",
			Prefix:  "plan",
			Timeout: 10 * time.Second,
		},
	}
}

// DefaultDimension returns the settings used for a dimension named name
// that has no configuration entry.
func DefaultDimension(name string) DimensionConfig {
	return DimensionConfig{
		Name:          name,
		MinPartitions: 1,
		ChunkSize:     1,
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MinPartitions == 0 {
		cfg.MinPartitions = defaults.MinPartitions
	}
	if cfg.MaxPartitions == 0 {
		cfg.MaxPartitions = max(defaults.MaxPartitions, cfg.MinPartitions)
	}
	for i := range cfg.Dimensions {
		d := &cfg.Dimensions[i]
		if d.MinPartitions == 0 {
			d.MinPartitions = 1
		}
		if d.ChunkSize == 0 {
			d.ChunkSize = 1
		}
	}
	if cfg.Publish.Bucket == "" {
		cfg.Publish.Bucket = defaults.Publish.Bucket
	}
	if cfg.Publish.Prefix == "" {
		cfg.Publish.Prefix = defaults.Publish.Prefix
	}
	if cfg.Publish.Timeout == 0 {
		cfg.Publish.Timeout = defaults.Publish.Timeout
	}
}

// Dimension returns the configuration entry for name.
func (cfg *Config) Dimension(name string) (DimensionConfig, bool) {
	for _, d := range cfg.Dimensions {
		if d.Name == name {
			return d, true
		}
	}

	return DimensionConfig{}, false
}

// Validate checks configuration constraints.
//
// Hard Validation Rules:
//   - 1 <= MinPartitions <= MaxPartitions
//   - Dimension names are non-empty and unique
//   - 1 <= dimension MinPartitions, and MaxPartitions is 0 or >= MinPartitions
//   - Overlaps are non-negative and ChunkSize >= 1
//   - Publish.Timeout >= 0
//
// A dimension whose minimum exceeds its own maximum is reported as a
// ConstraintError, the same error the Planner returns for it. Bounds that
// only fail against a concrete keyspace (for example a dimension minimum
// above the overall maximum) are left to the Planner.
//
// Returns:
//   - error: *ConstraintError for an infeasible dimension range, otherwise
//     ErrInvalidConfig wrapped with the offending field; nil if valid
func (cfg *Config) Validate() error {
	if cfg.MinPartitions < 1 {
		return fmt.Errorf("%w: minPartitions (%d) must be >= 1", ErrInvalidConfig, cfg.MinPartitions)
	}
	if cfg.MaxPartitions < cfg.MinPartitions {
		return fmt.Errorf("%w: maxPartitions (%d) must be >= minPartitions (%d)",
			ErrInvalidConfig, cfg.MaxPartitions, cfg.MinPartitions)
	}

	seen := make(map[string]struct{}, len(cfg.Dimensions))
	for i, d := range cfg.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("%w: dimensions[%d] has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: dimension %q configured twice", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = struct{}{}

		if d.MinPartitions < 1 {
			return fmt.Errorf("%w: dimension %q minPartitions (%d) must be >= 1", ErrInvalidConfig, d.Name, d.MinPartitions)
		}
		if d.MaxPartitions != 0 && d.MaxPartitions < d.MinPartitions {
			return &ConstraintError{
				Dimension: d.Name,
				Bound:     "min",
				Value:     d.MinPartitions,
				Limit:     d.MaxPartitions,
				Reason:    "exceeds max",
			}
		}
		if d.OverlapBefore < 0 || d.OverlapAfter < 0 {
			return fmt.Errorf("%w: dimension %q overlap must be >= 0", ErrInvalidConfig, d.Name)
		}
		if d.ChunkSize < 1 {
			return fmt.Errorf("%w: dimension %q chunkSize (%d) must be >= 1", ErrInvalidConfig, d.Name, d.ChunkSize)
		}
	}

	if cfg.Publish.Timeout < 0 {
		return fmt.Errorf("%w: publish.timeout (%v) must be >= 0", ErrInvalidConfig, cfg.Publish.Timeout)
	}

	return nil
}

// ValidateWithWarnings logs warnings for legal but suspicious values.
//
// This is called after Validate() in NewPlanner() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	for _, d := range cfg.Dimensions {
		if d.Dependent && (d.MinPartitions > 1 || d.MaxPartitions > 0 || d.OverlapBefore > 0 || d.OverlapAfter > 0 || d.ChunkSize > 1) {
			logger.Warn(
				"partitioning settings on a dependent dimension are ignored",
				"dimension", d.Name,
			)
		}
		if !d.Dependent && (d.OverlapBefore >= d.ChunkSize*4 || d.OverlapAfter >= d.ChunkSize*4) {
			logger.Warn(
				"overlap is large compared to chunk size, partitions will mostly repeat work",
				"dimension", d.Name,
				"overlapBefore", d.OverlapBefore,
				"overlapAfter", d.OverlapAfter,
				"chunkSize", d.ChunkSize,
			)
		}
	}

	if cfg.MaxPartitions > 100_000 {
		logger.Warn(
			"maxPartitions is very high, planning and publishing may be slow",
			"maxPartitions", cfg.MaxPartitions,
			"recommended", "100000 or lower",
		)
	}

	if cfg.Publish.Timeout > 0 && cfg.Publish.Timeout < time.Second {
		logger.Warn(
			"publish timeout is very short",
			"timeout", cfg.Publish.Timeout,
			"recommended", "1s or higher",
		)
	}
}

// ParseConfig decodes a YAML document, applies defaults and validates the result.
//
// Unknown fields are rejected so that typos do not silently fall back to defaults.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - Config: Parsed configuration with defaults applied
//   - error: ErrInvalidConfig on decode or validation failure
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses the YAML configuration file at path.
//
// Example:
//
//	cfg, err := keysplit.LoadConfig("keysplit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	planner, err := keysplit.NewPlanner(&cfg)
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return ParseConfig(data)
}

// TestConfig returns a small configuration for tests: at most 16 partitions
// and a short publish timeout.
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxPartitions = 16
	cfg.Publish.Bucket = "keysplit-test-plans"
	cfg.Publish.Timeout = 2 * time.Second

	return cfg
}
