// Package config provides configuration loading and access for the
// covariance integrator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Variant selects the build-time accumulator binning scheme.
type Variant string

const (
	VariantAngular  Variant = "angular"
	VariantLegendre Variant = "legendre"
	VariantPower    Variant = "power"
)

// CovarianceConfig holds the Monte Carlo integrator's tunable parameters.
// This is the "Parameters" struct of the external interface: read-only
// once loaded, and also accepted directly by compute.Integral so callers
// can construct one without going through the process-wide singleton.
type CovarianceConfig struct {
	NBin         int     `yaml:"nbin"`
	MBin         int     `yaml:"mbin"`
	N2           int     `yaml:"n2"`
	N3           int     `yaml:"n3"`
	N4           int     `yaml:"n4"`
	MaxLoops     int     `yaml:"max_loops"`
	NThread      int     `yaml:"nthread"`
	MultiTracers bool    `yaml:"multi_tracers"`
	OutFile      string  `yaml:"out_file"`
	PowerNorm    float64 `yaml:"power_norm"`
	Seed         int64   `yaml:"seed"`
	Variant      Variant `yaml:"variant"`
}

// ConvergenceConfig holds the early-termination policy.
type ConvergenceConfig struct {
	Window       int     `yaml:"window"`
	C4Tolerance  float64 `yaml:"c4_tolerance"`
}

// DrawsConfig holds RandomDraws sampling parameters.
type DrawsConfig struct {
	MaxCubeRadius int `yaml:"max_cube_radius"`
}

// InputConfig holds the geometry cmd/rascalc needs to turn a catalog file
// into a grid.Grid and pick an outer radial/wavenumber bin edge. None of
// this selects how the catalog itself is parsed (that stays an external
// collaborator per the Non-goals); it only describes the box the already-
// parsed particles live in.
type InputConfig struct {
	CatalogFile string     `yaml:"catalog_file"`
	CellSize    float64    `yaml:"cell_size"`
	Periodic    bool       `yaml:"periodic"`
	BoxSize     [3]float64 `yaml:"box_size"`
	RMax        float64    `yaml:"rmax"`
	LOS         [3]float64 `yaml:"los"`
}

// Config holds all configuration parameters for a run.
type Config struct {
	Covariance  CovarianceConfig  `yaml:"covariance"`
	Convergence ConvergenceConfig `yaml:"convergence"`
	Draws       DrawsConfig       `yaml:"draws"`
	Input       InputConfig       `yaml:"input"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	NBinsTotal int // NBin * MBin, the C2 bin count
}

var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NBinsTotal = c.Covariance.NBin * c.Covariance.MBin
}

// Validate checks the §7 fatal-assertion preconditions: nthread exceeding
// the runtime's available parallelism, or a zero Monte Carlo branching
// factor. Returns a descriptive error rather than asserting, so callers
// can decide whether to treat it as fatal.
func (c *CovarianceConfig) Validate(maxThreads int) error {
	if c.NThread <= 0 {
		return fmt.Errorf("config: nthread must be positive, got %d", c.NThread)
	}
	if maxThreads > 0 && c.NThread > maxThreads {
		return fmt.Errorf("config: nthread %d exceeds available parallelism %d", c.NThread, maxThreads)
	}
	if c.N2 <= 0 || c.N3 <= 0 || c.N4 <= 0 {
		return fmt.Errorf("config: branching factors must be positive, got N2=%d N3=%d N4=%d", c.N2, c.N3, c.N4)
	}
	if c.NBin <= 0 || c.MBin <= 0 {
		return fmt.Errorf("config: nbin and mbin must be positive, got nbin=%d mbin=%d", c.NBin, c.MBin)
	}
	switch c.Variant {
	case VariantAngular, VariantLegendre, VariantPower:
	default:
		return fmt.Errorf("config: unknown variant %q", c.Variant)
	}
	return nil
}
