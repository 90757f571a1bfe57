package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cwbudde/swarmbench/internal/analysis"
	"github.com/cwbudde/swarmbench/internal/baseline"
	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/problem"
	"github.com/cwbudde/swarmbench/internal/store"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"golang.org/x/sync/errgroup"
)

// SuiteFile is the report written at the root of a suite run.
const SuiteFile = "suite.json"

// Suite runs one optimizer configuration over a set of CEC17 functions.
type Suite struct {
	Kind       swarm.Kind
	Iterations int
	Dim        int
	Attempts   int
	Params     swarm.Params
	OutDir     string
	Functions  []int
	Workers    int
	Seed       int64

	// Baseline additionally runs the mayfly optimizer once per function with
	// the same iteration budget.
	Baseline           bool
	BaselinePopulation int

	Convergence analysis.ConvergenceConfig
}

// BaselineResult is the mayfly reference for one function.
type BaselineResult struct {
	Fitness     store.Number `json:"fitness"`
	Evaluations uint64       `json:"evaluations"`
}

// FunctionResult summarizes all attempts on one function.
type FunctionResult struct {
	ID       int    `json:"id"`
	Function string `json:"function"`
	analysis.Stats
	Attempts []AttemptResult `json:"attempts"`
	Baseline *BaselineResult `json:"baseline,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// SuiteReport is the content of suite.json.
type SuiteReport struct {
	Method     string           `json:"method"`
	Parameters swarm.Params     `json:"parameters"`
	Dim        int              `json:"dim"`
	Iterations int              `json:"iterations"`
	Functions  []FunctionResult `json:"functions"`
}

func (s *Suite) validate() error {
	if s.Attempts < 1 {
		return fmt.Errorf("attempts must be positive, got %d", s.Attempts)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", s.Iterations)
	}
	if len(s.Functions) == 0 {
		return errors.New("suite has no functions")
	}
	if _, err := swarm.ParseKind(string(s.Kind)); err != nil {
		return err
	}
	if s.Baseline && s.BaselinePopulation < baseline.MinPopulation {
		return fmt.Errorf("baseline population must be at least %d", baseline.MinPopulation)
	}
	return nil
}

// Run exports every attempt under <out>/<function>/<attempt>/ and writes
// suite.json. An unknown function id is recorded as an error for that
// function only.
func (s *Suite) Run(ctx context.Context) (*SuiteReport, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	convergence := s.Convergence
	if convergence == (analysis.ConvergenceConfig{}) {
		convergence = analysis.DefaultConvergenceConfig()
	}

	runs, err := store.NewFSStore(s.OutDir)
	if err != nil {
		return nil, err
	}
	results := make([]FunctionResult, len(s.Functions))
	start := time.Now()

	slog.Info("Starting suite",
		"method", s.Kind.DisplayName(),
		"functions", len(s.Functions),
		"dim", s.Dim,
		"attempts", s.Attempts,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(s.Workers))
	for i, id := range s.Functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := s.runFunction(ctx, runs, i, id, convergence)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err != nil {
				slog.Error("Function failed", "id", id, "error", err)
				result.Error = err.Error()
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("suite cancelled: %w", err)
	}

	report := &SuiteReport{
		Method:     s.Kind.DisplayName(),
		Parameters: s.Params,
		Dim:        s.Dim,
		Iterations: s.Iterations,
		Functions:  results,
	}
	if err := runs.SaveArtifact("", SuiteFile, report); err != nil {
		return report, fmt.Errorf("save suite report: %w", err)
	}

	slog.Info("Suite complete", "method", report.Method, "elapsed", time.Since(start))
	return report, nil
}

func (s *Suite) runFunction(ctx context.Context, runs *store.FSStore, index, id int, convergence analysis.ConvergenceConfig) (FunctionResult, error) {
	result := FunctionResult{ID: id, Stats: analysis.Summarize(nil)}

	fn, err := bench.CEC17(id, s.Dim)
	if err != nil {
		return result, err
	}
	result.Function = fn.Name()

	finals := make([]float64, 0, s.Attempts)
	for attempt := 0; attempt < s.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		seed := DeriveSeed(s.Seed, index, attempt)
		dir := runs.RunPath(filepath.Join(fn.Name(), strconv.Itoa(attempt)))
		o, err := swarm.New(s.Kind, s.Kind.DisplayName(), problem.New(fn),
			s.Params.With(swarm.Params{"seed": swarm.Int(int(seed))}), dir)
		if err != nil {
			return result, err
		}
		o.Run(s.Iterations)
		if err := o.SaveAll(); err != nil {
			return result, err
		}

		series := bestSeries(o.History())
		final := series[len(series)-1]
		finals = append(finals, final)
		result.Attempts = append(result.Attempts, AttemptResult{
			Attempt:        attempt,
			Seed:           seed,
			FinalFitness:   store.Number(final),
			Evaluations:    o.Evaluations(),
			StallIteration: analysis.StallIteration(series, convergence),
		})
	}
	result.Stats = analysis.Summarize(finals)

	if s.Baseline {
		ref, err := baseline.Mayfly(problem.New(fn), s.Iterations, s.BaselinePopulation, DeriveSeed(s.Seed, index, s.Attempts))
		if err != nil {
			return result, err
		}
		result.Baseline = &BaselineResult{Fitness: store.Number(ref.Fitness), Evaluations: ref.Evaluations}
	}

	slog.Info("Function complete", "function", result.Function, "mean", float64(result.Mean), "min", float64(result.Min))
	return result, nil
}
