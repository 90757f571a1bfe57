package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/experiment"
	"github.com/cwbudde/swarmbench/internal/problem"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"github.com/spf13/cobra"
)

var (
	gridMethod    string
	gridFunctions []int
	gridDim       int
	gridIters     int
	gridAttempts  int
	gridAxisA     string
	gridAxisB     string
	gridParams    []string
	gridWorkers   int
	gridSeed      int64
	gridOutDir    string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Grid search two hyperparameters",
	Long: `Sweeps every combination of two hyperparameter axes on each function,
repeating every combination --attempts times. Each combination directory
holds the artifacts of its best attempt and attempts.json; ranking.json
orders the combinations by mean terminal fitness.

Unset flags fall back to the grid preset of the method.`,
	RunE: runGrid,
}

func init() {
	gridCmd.Flags().StringVar(&gridMethod, "method", "pso", methodUsage())
	gridCmd.Flags().IntSliceVar(&gridFunctions, "functions", nil, "CEC17 function ids, from "+functionIDs()+" (default: grid preset)")
	gridCmd.Flags().IntVar(&gridDim, "dim", 0, "Problem dimension")
	gridCmd.Flags().IntVar(&gridIters, "iters", 0, "Iterations per attempt")
	gridCmd.Flags().IntVar(&gridAttempts, "attempts", 0, "Attempts per combination")
	gridCmd.Flags().StringVar(&gridAxisA, "axis-a", "", "First axis, name=v1,v2,...")
	gridCmd.Flags().StringVar(&gridAxisB, "axis-b", "", "Second axis, name=v1,v2,...")
	gridCmd.Flags().StringArrayVar(&gridParams, "param", nil, "Base hyperparameter override name=value (repeatable)")
	gridCmd.Flags().IntVar(&gridWorkers, "workers", 0, "Combinations run in parallel (default: config workers)")
	gridCmd.Flags().Int64Var(&gridSeed, "seed", 0, "Base seed (default: config seed)")
	gridCmd.Flags().StringVar(&gridOutDir, "out", "", "Output directory (default: <out_dir>/grid_search/<dim>/<method>)")

	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind, err := swarm.ParseKind(gridMethod)
	if err != nil {
		return err
	}
	preset, err := cfg.Grid(kind)
	if err != nil {
		return err
	}

	if len(gridFunctions) > 0 {
		preset.Functions = gridFunctions
	}
	if gridDim > 0 {
		preset.Dim = gridDim
	}
	if gridIters > 0 {
		preset.Iterations = gridIters
	}
	if gridAttempts > 0 {
		preset.Attempts = gridAttempts
	}
	if gridAxisA != "" {
		if preset.AxisA, err = parseAxis(gridAxisA); err != nil {
			return err
		}
	}
	if gridAxisB != "" {
		if preset.AxisB, err = parseAxis(gridAxisB); err != nil {
			return err
		}
	}
	overrides, err := parseParams(gridParams)
	if err != nil {
		return err
	}
	preset.Base = preset.Base.With(overrides)

	workers := cfg.Workers
	if gridWorkers > 0 {
		workers = gridWorkers
	}
	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = gridSeed
	}
	outDir := gridOutDir
	if outDir == "" {
		outDir = filepath.Join(cfg.OutDir, "grid_search", strconv.Itoa(preset.Dim), string(kind))
	}

	for _, id := range preset.Functions {
		fn, err := bench.CEC17(id, preset.Dim)
		if err != nil {
			return err
		}

		gs := &experiment.GridSearch{
			Kind:        kind,
			Iterations:  preset.Iterations,
			Problem:     problem.New(fn),
			Attempts:    preset.Attempts,
			AxisA:       preset.AxisA,
			AxisB:       preset.AxisB,
			Base:        preset.Base,
			OutDir:      outDir,
			Workers:     workers,
			Seed:        seed,
			Convergence: cfg.Convergence.Analysis(),
		}
		ranking, err := gs.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("grid search on %s: %w", fn.Name(), err)
		}

		if best, ok := ranking.Best(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: best %s (mean %g, min %g)\n",
				fn.Name(), best.Dir, float64(best.Mean), float64(best.Min))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: every combination failed, see %s\n",
				fn.Name(), filepath.Join(ranking.Dir, experiment.RankingFile))
		}
	}
	return nil
}
