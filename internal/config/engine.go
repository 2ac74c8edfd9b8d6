package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

// maxFileSize bounds every configuration file read by this package.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// EngineConfig holds the thresholds, store settings and parallelism of a
// run. Every field is optional; the Get* methods supply defaults for
// fields left out of the file.
type EngineConfig struct {
	// Gates
	MinSAF    *float64 `json:"min_saf,omitempty"`
	MinDepth  *int     `json:"min_depth,omitempty"`
	GoodDepth *int     `json:"good_depth,omitempty"`
	MaxPopAF  *float64 `json:"max_pop_af,omitempty"`

	// Store
	GenomeVersion   *string `json:"genome_version,omitempty"`
	CoverageProgram *string `json:"coverage_program,omitempty"`
	StoreTimeout    *string `json:"store_timeout,omitempty"` // duration string like "10m"

	Workers *int `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadEngineConfig loads an EngineConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := readLimited(cleanPath)
	if err != nil {
		return nil, err
	}

	cfg := &EngineConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up to the repository root. It panics when the file cannot be
// loaded and is intended for test setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Validate checks that the configured values are usable.
func (c *EngineConfig) Validate() error {
	if c.MinSAF != nil && (*c.MinSAF < 0 || *c.MinSAF > 1) {
		return fmt.Errorf("min_saf must be between 0 and 1, got %f", *c.MinSAF)
	}
	if c.MaxPopAF != nil && (*c.MaxPopAF < 0 || *c.MaxPopAF > 1) {
		return fmt.Errorf("max_pop_af must be between 0 and 1, got %f", *c.MaxPopAF)
	}
	if c.MinDepth != nil && *c.MinDepth < 0 {
		return fmt.Errorf("min_depth must be non-negative, got %d", *c.MinDepth)
	}
	if c.GetGoodDepth() < c.GetMinDepth() {
		return fmt.Errorf("good_depth (%d) must not be below min_depth (%d)", c.GetGoodDepth(), c.GetMinDepth())
	}
	if c.StoreTimeout != nil && *c.StoreTimeout != "" {
		d, err := time.ParseDuration(*c.StoreTimeout)
		if err != nil {
			return fmt.Errorf("invalid store_timeout '%s': %w", *c.StoreTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("store_timeout must be non-negative, got %s", d)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.GenomeVersion != nil && *c.GenomeVersion == "" {
		return fmt.Errorf("genome_version must not be empty")
	}
	return nil
}

func (c *EngineConfig) GetMinSAF() float64 {
	if c.MinSAF == nil {
		return 0.01
	}
	return *c.MinSAF
}

func (c *EngineConfig) GetMinDepth() int {
	if c.MinDepth == nil {
		return 200
	}
	return *c.MinDepth
}

func (c *EngineConfig) GetGoodDepth() int {
	if c.GoodDepth == nil {
		return 500
	}
	return *c.GoodDepth
}

func (c *EngineConfig) GetMaxPopAF() float64 {
	if c.MaxPopAF == nil {
		return 0.005
	}
	return *c.MaxPopAF
}

func (c *EngineConfig) GetGenomeVersion() string {
	if c.GenomeVersion == nil || *c.GenomeVersion == "" {
		return "GRCh37.75"
	}
	return *c.GenomeVersion
}

func (c *EngineConfig) GetCoverageProgram() string {
	if c.CoverageProgram == nil || *c.CoverageProgram == "" {
		return "sambamba"
	}
	return *c.CoverageProgram
}

// GetStoreTimeout returns the per-query timeout. Zero disables it.
func (c *EngineConfig) GetStoreTimeout() time.Duration {
	if c.StoreTimeout == nil || *c.StoreTimeout == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(*c.StoreTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

func (c *EngineConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// Thresholds returns the gates of a run.
func (c *EngineConfig) Thresholds() cohort.Thresholds {
	return cohort.Thresholds{
		MinSAF:    c.GetMinSAF(),
		MinDepth:  c.GetMinDepth(),
		GoodDepth: c.GetGoodDepth(),
		MaxPopAF:  c.GetMaxPopAF(),
	}
}
