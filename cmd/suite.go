package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/cwbudde/swarmbench/internal/experiment"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"github.com/spf13/cobra"
)

var (
	suiteMethod    string
	suiteFunctions []int
	suiteDim       int
	suiteIters     int
	suiteAttempts  int
	suiteParams    []string
	suiteWorkers   int
	suiteSeed      int64
	suiteOutDir    string
	suiteBaseline  bool
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Run one optimizer over the CEC17 functions",
	Long: `Runs the method preset on every selected function --attempts times,
exporting each attempt under <out>/<function>/<attempt>/ and writing
suite.json with per-function statistics. --baseline adds a mayfly run per
function with the same iteration budget.`,
	RunE: runSuite,
}

func init() {
	suiteCmd.Flags().StringVar(&suiteMethod, "method", "pso", methodUsage())
	suiteCmd.Flags().IntSliceVar(&suiteFunctions, "functions", nil, "CEC17 function ids, from "+functionIDs()+" (default: suite preset)")
	suiteCmd.Flags().IntVar(&suiteDim, "dim", 0, "Problem dimension")
	suiteCmd.Flags().IntVar(&suiteIters, "iters", 0, "Iterations per attempt")
	suiteCmd.Flags().IntVar(&suiteAttempts, "attempts", 0, "Attempts per function")
	suiteCmd.Flags().StringArrayVar(&suiteParams, "param", nil, "Hyperparameter override name=value (repeatable)")
	suiteCmd.Flags().IntVar(&suiteWorkers, "workers", 0, "Functions run in parallel (default: config workers)")
	suiteCmd.Flags().Int64Var(&suiteSeed, "seed", 0, "Base seed (default: config seed)")
	suiteCmd.Flags().StringVar(&suiteOutDir, "out", "", "Output directory (default: <out_dir>/test/<dim>/<method>)")
	suiteCmd.Flags().BoolVar(&suiteBaseline, "baseline", false, "Also run the mayfly baseline")

	rootCmd.AddCommand(suiteCmd)
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind, err := swarm.ParseKind(suiteMethod)
	if err != nil {
		return err
	}
	params, err := cfg.Method(kind)
	if err != nil {
		return err
	}
	overrides, err := parseParams(suiteParams)
	if err != nil {
		return err
	}

	preset := cfg.Suite
	if len(suiteFunctions) > 0 {
		preset.Functions = suiteFunctions
	}
	if suiteDim > 0 {
		preset.Dim = suiteDim
	}
	if suiteIters > 0 {
		preset.Iterations = suiteIters
	}
	if suiteAttempts > 0 {
		preset.Attempts = suiteAttempts
	}
	if suiteBaseline {
		preset.Baseline = true
	}

	s := &experiment.Suite{
		Kind:               kind,
		Iterations:         preset.Iterations,
		Dim:                preset.Dim,
		Attempts:           preset.Attempts,
		Params:             params.With(overrides),
		OutDir:             suiteOutDir,
		Functions:          preset.Functions,
		Workers:            cfg.Workers,
		Seed:               cfg.Seed,
		Baseline:           preset.Baseline,
		BaselinePopulation: preset.BaselinePopulation,
		Convergence:        cfg.Convergence.Analysis(),
	}
	if suiteWorkers > 0 {
		s.Workers = suiteWorkers
	}
	if cmd.Flags().Changed("seed") {
		s.Seed = suiteSeed
	}
	if s.OutDir == "" {
		s.OutDir = filepath.Join(cfg.OutDir, "test", strconv.Itoa(s.Dim), string(kind))
	}

	report, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tMEAN\tSTD\tMIN\tMAX\tBASELINE")
	fmt.Fprintln(w, "--------\t----\t---\t---\t---\t--------")
	for _, fr := range report.Functions {
		if fr.Error != "" {
			fmt.Fprintf(w, "f%d\terror: %s\t\t\t\t\n", fr.ID, fr.Error)
			continue
		}
		ref := "-"
		if fr.Baseline != nil {
			ref = fmt.Sprintf("%.6g", float64(fr.Baseline.Fitness))
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%.6g\t%.6g\t%s\n",
			fr.Function, float64(fr.Mean), float64(fr.Std), float64(fr.Min), float64(fr.Max), ref)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s\n", filepath.Join(s.OutDir, experiment.SuiteFile))
	return nil
}
