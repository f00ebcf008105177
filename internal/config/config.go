// Package config loads run configuration for characterization runs.
// Fields are pointers so a partial JSON file overrides only what it names;
// everything else falls back to defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// RunConfig is the JSON-loadable configuration for one characterization
// run.
type RunConfig struct {
	// Binning params
	MinExponent *float64 `json:"min_exponent,omitempty"`
	MaxExponent *float64 `json:"max_exponent,omitempty"`
	NumBins     *int     `json:"num_bins,omitempty"`

	// Driver params
	Workers *int  `json:"workers,omitempty"`
	Strict  *bool `json:"strict,omitempty"`

	// Export destinations
	CSVPath   *string `json:"csv_path,omitempty"`
	HTMLPath  *string `json:"html_path,omitempty"`
	PlotsDir  *string `json:"plots_dir,omitempty"`
	CatalogDB *string `json:"catalog_db,omitempty"`
}

// Empty returns a RunConfig with every field unset.
func Empty() *RunConfig {
	return &RunConfig{}
}

// Load reads a RunConfig from a JSON file. Fields omitted from the file
// stay nil, so partial configs are safe.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Size cap guards against reading an accidental huge file.
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the set fields for sanity.
func (c *RunConfig) Validate() error {
	if c.NumBins != nil && *c.NumBins <= 0 {
		return fmt.Errorf("num_bins must be positive, got %d", *c.NumBins)
	}
	if c.MinExponent != nil && c.MaxExponent != nil && *c.MinExponent >= *c.MaxExponent {
		return fmt.Errorf("min_exponent %g must be below max_exponent %g", *c.MinExponent, *c.MaxExponent)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", *c.Workers)
	}
	return nil
}

// BinConfig resolves the binning configuration, falling back to the
// defaults for unset fields.
func (c *RunConfig) BinConfig() gamut.BinConfig {
	bin := gamut.DefaultBinConfig()
	if c.MinExponent != nil {
		bin.MinExponent = *c.MinExponent
	}
	if c.MaxExponent != nil {
		bin.MaxExponent = *c.MaxExponent
	}
	if c.NumBins != nil {
		bin.NumBins = *c.NumBins
	}
	return bin
}

// GetWorkers resolves the worker count; 0 lets the driver pick.
func (c *RunConfig) GetWorkers() int {
	if c.Workers != nil {
		return *c.Workers
	}
	return 0
}

// GetStrict resolves the strict-decode flag.
func (c *RunConfig) GetStrict() bool {
	return c.Strict != nil && *c.Strict
}
