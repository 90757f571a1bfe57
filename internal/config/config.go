// Package config holds the experiment presets: default hyperparameters per
// optimizer, grid search axes and suite settings, optionally overridden from
// a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cwbudde/swarmbench/internal/analysis"
	"github.com/cwbudde/swarmbench/internal/baseline"
	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/experiment"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"gopkg.in/yaml.v3"
)

// Config holds all swarmbench settings.
type Config struct {
	// OutDir is the root for every artifact written by the CLI
	OutDir string `yaml:"out_dir"`

	// Workers bounds parallel combinations in grid and suite runs
	Workers int   `yaml:"workers"`
	Seed    int64 `yaml:"seed"`

	// Methods are the default hyperparameters per optimizer kind
	Methods map[swarm.Kind]swarm.Params `yaml:"methods"`

	Grids       map[swarm.Kind]GridConfig `yaml:"grids"`
	Suite       SuiteConfig               `yaml:"suite"`
	Convergence ConvergenceConfig         `yaml:"convergence"`
}

// GridConfig configures one grid search preset.
type GridConfig struct {
	Iterations int `yaml:"iterations"`
	Dim        int `yaml:"dim"`
	Attempts   int `yaml:"attempts"`

	// Functions are the CEC17 ids the grid is repeated on
	Functions []int `yaml:"functions"`

	Base  swarm.Params    `yaml:"base"`
	AxisA experiment.Axis `yaml:"axis_a"`
	AxisB experiment.Axis `yaml:"axis_b"`
}

// SuiteConfig configures benchmark suite runs.
type SuiteConfig struct {
	Iterations         int   `yaml:"iterations"`
	Dim                int   `yaml:"dim"`
	Attempts           int   `yaml:"attempts"`
	Functions          []int `yaml:"functions"`
	Baseline           bool  `yaml:"baseline"`
	BaselinePopulation int   `yaml:"baseline_population"`
}

// ConvergenceConfig configures the stall detection in summaries.
type ConvergenceConfig struct {
	Patience  int     `yaml:"patience"`
	Threshold float64 `yaml:"threshold"`
}

// Analysis converts to the analysis package's config.
func (c ConvergenceConfig) Analysis() analysis.ConvergenceConfig {
	return analysis.ConvergenceConfig{Patience: c.Patience, Threshold: c.Threshold}
}

func floats(values ...float64) []swarm.ParamValue {
	out := make([]swarm.ParamValue, len(values))
	for i, v := range values {
		out[i] = swarm.Float(v)
	}
	return out
}

// DefaultConfig returns the presets of the reference experiments.
func DefaultConfig() *Config {
	gsaGrid := GridConfig{
		Iterations: 1000,
		Dim:        10,
		Attempts:   5,
		Functions:  bench.CEC17IDs(),
		Base:       swarm.Params{"particle_count": swarm.Int(30)},
		AxisA:      experiment.Axis{Name: "g0", Values: floats(10, 50, 100, 500, 1000, 5000)},
		AxisB:      experiment.Axis{Name: "alpha", Values: floats(1, 2, 5, 10, 20, 50, 100)},
	}
	tiledGrid := gsaGrid
	tiledGrid.Base = gsaGrid.Base.With(swarm.Params{"tiles": swarm.Int(swarm.DefaultTiles)})

	conv := analysis.DefaultConvergenceConfig()

	return &Config{
		OutDir:  "data",
		Workers: runtime.NumCPU(),
		Seed:    0,

		Methods: map[swarm.Kind]swarm.Params{
			swarm.KindPSO: {
				"w":              swarm.Float(0.8),
				"phi_p":          swarm.Float(1.0),
				"phi_g":          swarm.Float(1.0),
				"particle_count": swarm.Int(50),
			},
			swarm.KindGSA: {
				"g0":             swarm.Float(100),
				"alpha":          swarm.Float(20),
				"particle_count": swarm.Int(50),
			},
			swarm.KindTiledGSA: {
				"g0":             swarm.Float(100),
				"alpha":          swarm.Float(20),
				"particle_count": swarm.Int(50),
				"tiles":          swarm.Int(swarm.DefaultTiles),
			},
		},

		Grids: map[swarm.Kind]GridConfig{
			swarm.KindPSO: {
				Iterations: 1000,
				Dim:        10,
				Attempts:   5,
				Functions:  bench.CEC17IDs(),
				Base:       swarm.Params{"w": swarm.Float(0.8), "particle_count": swarm.Int(30)},
				AxisA:      experiment.Axis{Name: "phi_p", Values: floats(-4, -3, -2, -1, 0, 1, 2, 3, 4)},
				AxisB:      experiment.Axis{Name: "phi_g", Values: floats(-4, -3, -2, -1, 0, 1, 2, 3, 4)},
			},
			swarm.KindGSA:      gsaGrid,
			swarm.KindTiledGSA: tiledGrid,
		},

		Suite: SuiteConfig{
			Iterations:         1000,
			Dim:                10,
			Attempts:           5,
			Functions:          bench.CEC17IDs(),
			BaselinePopulation: baseline.MinPopulation,
		},

		Convergence: ConvergenceConfig{Patience: conv.Patience, Threshold: conv.Threshold},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults. Method parameters are merged key by key; grid presets replace
// the fields they set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(file *Config) {
	if file.OutDir != "" {
		c.OutDir = file.OutDir
	}
	if file.Workers != 0 {
		c.Workers = file.Workers
	}
	if file.Seed != 0 {
		c.Seed = file.Seed
	}

	for kind, params := range file.Methods {
		c.Methods[kind] = c.Methods[kind].With(params)
	}

	for kind, g := range file.Grids {
		cur := c.Grids[kind]
		if g.Iterations != 0 {
			cur.Iterations = g.Iterations
		}
		if g.Dim != 0 {
			cur.Dim = g.Dim
		}
		if g.Attempts != 0 {
			cur.Attempts = g.Attempts
		}
		if len(g.Functions) > 0 {
			cur.Functions = g.Functions
		}
		if g.Base != nil {
			cur.Base = cur.Base.With(g.Base)
		}
		if g.AxisA.Name != "" {
			cur.AxisA = g.AxisA
		}
		if g.AxisB.Name != "" {
			cur.AxisB = g.AxisB
		}
		c.Grids[kind] = cur
	}

	s := file.Suite
	if s.Iterations != 0 {
		c.Suite.Iterations = s.Iterations
	}
	if s.Dim != 0 {
		c.Suite.Dim = s.Dim
	}
	if s.Attempts != 0 {
		c.Suite.Attempts = s.Attempts
	}
	if len(s.Functions) > 0 {
		c.Suite.Functions = s.Functions
	}
	if s.Baseline {
		c.Suite.Baseline = true
	}
	if s.BaselinePopulation != 0 {
		c.Suite.BaselinePopulation = s.BaselinePopulation
	}

	if file.Convergence.Patience != 0 {
		c.Convergence.Patience = file.Convergence.Patience
	}
	if file.Convergence.Threshold != 0 {
		c.Convergence.Threshold = file.Convergence.Threshold
	}
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the settings that cannot be caught by the optimizers
// themselves.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	for kind := range c.Methods {
		if _, err := swarm.ParseKind(string(kind)); err != nil {
			errs = append(errs, fmt.Errorf("methods: %w", err))
		}
	}
	for kind, g := range c.Grids {
		if _, err := swarm.ParseKind(string(kind)); err != nil {
			errs = append(errs, fmt.Errorf("grids: %w", err))
		}
		if g.AxisA.Name == g.AxisB.Name {
			errs = append(errs, fmt.Errorf("grids.%s: both axes sweep %q", kind, g.AxisA.Name))
		}
		errs = append(errs, checkFunctions("grids."+string(kind), g.Functions))
	}
	errs = append(errs, checkFunctions("suite", c.Suite.Functions))
	if c.Convergence.Patience < 1 {
		errs = append(errs, fmt.Errorf("convergence.patience must be positive, got %d", c.Convergence.Patience))
	}
	return errors.Join(errs...)
}

func checkFunctions(section string, ids []int) error {
	for _, id := range ids {
		if _, err := bench.CEC17(id, 2); err != nil {
			return fmt.Errorf("%s: %w", section, err)
		}
	}
	return nil
}

// Method returns a copy of the default hyperparameters of kind.
func (c *Config) Method(kind swarm.Kind) (swarm.Params, error) {
	params, ok := c.Methods[kind]
	if !ok {
		return nil, fmt.Errorf("no preset for method %s", kind)
	}
	return params.With(nil), nil
}

// Grid returns the grid search preset of kind.
func (c *Config) Grid(kind swarm.Kind) (GridConfig, error) {
	g, ok := c.Grids[kind]
	if !ok {
		return GridConfig{}, fmt.Errorf("no grid preset for method %s", kind)
	}
	return g, nil
}
