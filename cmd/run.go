package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cwbudde/swarmbench/internal/analysis"
	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/problem"
	"github.com/cwbudde/swarmbench/internal/store"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// traceFlushInterval is the number of iterations between trace flushes.
const traceFlushInterval = 100

var (
	runMethod   string
	runFunction string
	runDim      int
	runIters    int
	runParams   []string
	runSeed     int64
	runOutDir   string
	runTrace    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one optimizer on one function",
	Long: `Runs a single optimizer and writes config.json, summary.json and data.json
to the output directory. Hyperparameters start from the preset of the method
and can be overridden with --param name=value.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runMethod, "method", "pso", methodUsage())
	runCmd.Flags().StringVar(&runFunction, "function", "1", functionUsage())
	runCmd.Flags().IntVar(&runDim, "dim", 10, "Problem dimension")
	runCmd.Flags().IntVar(&runIters, "iters", 1000, "Iterations")
	runCmd.Flags().StringArrayVar(&runParams, "param", nil, "Hyperparameter override name=value (repeatable)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Random seed (default: time based, recorded in config.json)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "Output directory (default: <out_dir>/runs/<uuid>)")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "Write trace.jsonl with one line per iteration")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind, err := swarm.ParseKind(runMethod)
	if err != nil {
		return err
	}
	fn, err := bench.Lookup(runFunction, runDim)
	if err != nil {
		return err
	}

	params, err := cfg.Method(kind)
	if err != nil {
		return err
	}
	overrides, err := parseParams(runParams)
	if err != nil {
		return err
	}
	params = params.With(overrides)

	seed := runSeed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	params["seed"] = swarm.Int(int(seed))

	outDir := runOutDir
	if outDir == "" {
		outDir = filepath.Join(cfg.OutDir, "runs", uuid.NewString())
	}

	o, err := swarm.New(kind, kind.DisplayName(), problem.New(fn), params, outDir)
	if err != nil {
		return err
	}

	var (
		tw       *store.TraceWriter
		traceErr error
	)
	if runTrace {
		if tw, err = store.NewTraceWriter(outDir, false); err != nil {
			return err
		}
		o.OnIteration(func(iteration int, best float64, evals uint64) {
			if traceErr != nil {
				return
			}
			entry := store.TraceEntry{
				Iteration:   iteration,
				BestFitness: store.Number(best),
				Evaluations: evals,
				Timestamp:   time.Now(),
			}
			if traceErr = tw.Write(entry); traceErr != nil {
				slog.Warn("Failed to write trace entry", "iteration", iteration, "error", traceErr)
				return
			}
			// Flush periodically so the trace can be followed while running
			if (iteration+1)%traceFlushInterval == 0 {
				traceErr = tw.Flush()
			}
		})
	}

	tracker := analysis.NewTracker(cfg.Convergence.Analysis())
	o.OnIteration(func(iteration int, best float64, evals uint64) {
		if tracker.Stalled() {
			return
		}
		if tracker.Update(best) {
			slog.Info("Progress stalled",
				"iteration", iteration,
				"best_fitness", tracker.Best(),
				"stale_iterations", tracker.StaleCount(),
			)
		}
	})

	slog.Info("Starting optimization",
		"method", o.Name(),
		"function", o.Problem().Name(),
		"dim", o.Problem().Dim(),
		"iterations", runIters,
		"params", o.Params().String(),
	)

	start := time.Now()
	o.Run(runIters)
	elapsed := time.Since(start)

	if tw != nil {
		if err := errors.Join(traceErr, tw.Close()); err != nil {
			return fmt.Errorf("trace %s: %w", tw.Path(), err)
		}
	}
	if err := o.SaveAll(); err != nil {
		return err
	}

	_, best, _ := o.GlobalBest()
	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"best_fitness", best,
		"evaluations", o.Evaluations(),
		"out", o.OutDir(),
	)
	if stall, ok := tracker.StallIteration(); ok {
		slog.Info("Last significant improvement", "iteration", stall)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (best fitness: %g, %d evaluations)\n", o.OutDir(), best, o.Evaluations())
	return nil
}
