package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/swarmbench/internal/swarm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	pso, err := cfg.Method(swarm.KindPSO)
	if err != nil {
		t.Fatalf("Method failed: %v", err)
	}
	if pso["w"] != swarm.Float(0.8) || pso["particle_count"] != swarm.Int(50) {
		t.Errorf("unexpected PSO preset: %v", pso)
	}

	grid, err := cfg.Grid(swarm.KindGSA)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(grid.AxisA.Values)*len(grid.AxisB.Values) != 42 {
		t.Errorf("expected 6x7 GSA grid, got %dx%d", len(grid.AxisA.Values), len(grid.AxisB.Values))
	}

	tiled, _ := cfg.Grid(swarm.KindTiledGSA)
	if tiled.Base["tiles"] != swarm.Int(swarm.DefaultTiles) {
		t.Errorf("expected tiled grid base to carry tiles, got %v", tiled.Base)
	}
	if _, ok := grid.Base["tiles"]; ok {
		t.Error("tiled preset leaked into the GSA grid")
	}
}

func TestMethodReturnsCopy(t *testing.T) {
	cfg := DefaultConfig()
	params, _ := cfg.Method(swarm.KindGSA)
	params["g0"] = swarm.Float(1)

	again, _ := cfg.Method(swarm.KindGSA)
	if again["g0"] != swarm.Float(100) {
		t.Errorf("preset was modified through a returned copy: %v", again["g0"])
	}

	if _, err := cfg.Method("annealing"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutDir != "data" {
		t.Errorf("expected OutDir=data, got %s", cfg.OutDir)
	}
}

func TestLoad_MergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarmbench.yaml")
	content := `
out_dir: results
workers: 3
methods:
  pso:
    w: 0.5
    particle_count: 20
grids:
  gsa:
    attempts: 2
    axis_b:
      name: eps
      values: [1.0e-10, 1.0e-5]
suite:
  functions: [1, 3]
  baseline: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OutDir != "results" || cfg.Workers != 3 {
		t.Errorf("unexpected top level: out=%s workers=%d", cfg.OutDir, cfg.Workers)
	}

	pso, _ := cfg.Method(swarm.KindPSO)
	if pso["w"] != swarm.Float(0.5) {
		t.Errorf("expected w=0.5, got %v", pso["w"])
	}
	if pso["particle_count"] != swarm.Int(20) {
		t.Errorf("expected particle_count=20, got %v", pso["particle_count"])
	}
	if pso["phi_p"] != swarm.Float(1) {
		t.Errorf("expected phi_p default to survive, got %v", pso["phi_p"])
	}

	grid, _ := cfg.Grid(swarm.KindGSA)
	if grid.Attempts != 2 || grid.Iterations != 1000 {
		t.Errorf("unexpected grid: attempts=%d iterations=%d", grid.Attempts, grid.Iterations)
	}
	if grid.AxisA.Name != "g0" || grid.AxisB.Name != "eps" || len(grid.AxisB.Values) != 2 {
		t.Errorf("unexpected axes: %+v %+v", grid.AxisA, grid.AxisB)
	}

	if !cfg.Suite.Baseline || len(cfg.Suite.Functions) != 2 {
		t.Errorf("unexpected suite: %+v", cfg.Suite)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"unknown function": "suite:\n  functions: [2]\n",
		"unknown method":   "methods:\n  annealing:\n    t0: 1.0\n",
		"same axes":        "grids:\n  pso:\n    axis_b:\n      name: phi_p\n      values: [1.0]\n",
		"not a number":     "methods:\n  pso:\n    w: fast\n",
		"bad workers":      "workers: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "swarmbench.yaml")

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Methods[swarm.KindGSA]["g0"] = swarm.Float(50)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Workers != 2 {
		t.Errorf("expected Workers=2, got %d", loaded.Workers)
	}

	gsa, _ := loaded.Method(swarm.KindGSA)
	if gsa["g0"] != swarm.Float(50) {
		t.Errorf("expected g0=50.0 as a float, got %v (kind %v)", gsa["g0"], gsa["g0"].Kind())
	}
	if gsa["particle_count"] != swarm.Int(50) {
		t.Errorf("expected particle_count to stay an int, got %v", gsa["particle_count"])
	}

	grid, _ := loaded.Grid(swarm.KindPSO)
	if grid.AxisA.Values[0] != swarm.Float(-4) {
		t.Errorf("expected first phi_p value -4.0, got %v", grid.AxisA.Values[0])
	}
}

func TestConvergenceConversion(t *testing.T) {
	c := ConvergenceConfig{Patience: 7, Threshold: 0.01}.Analysis()
	if c.Patience != 7 || c.Threshold != 0.01 {
		t.Errorf("unexpected conversion: %+v", c)
	}
}
