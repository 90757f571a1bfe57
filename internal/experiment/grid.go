// Package experiment runs optimizers repeatedly: grid searches over two
// hyperparameters and benchmark suites over many functions.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/cwbudde/swarmbench/internal/analysis"
	"github.com/cwbudde/swarmbench/internal/problem"
	"github.com/cwbudde/swarmbench/internal/store"
	"github.com/cwbudde/swarmbench/internal/swarm"
	"golang.org/x/sync/errgroup"
)

// File names written by a grid search.
const (
	AttemptsFile = "attempts.json"
	RankingFile  = "ranking.json"
)

// Axis is one swept hyperparameter.
type Axis struct {
	Name   string             `yaml:"name" json:"name"`
	Values []swarm.ParamValue `yaml:"values" json:"values"`
}

func (a Axis) validate() error {
	if a.Name == "" {
		return errors.New("axis name cannot be empty")
	}
	if len(a.Values) == 0 {
		return fmt.Errorf("axis %s has no values", a.Name)
	}
	return nil
}

// GridSearch evaluates every combination of two hyperparameter axes.
type GridSearch struct {
	Kind       swarm.Kind
	Iterations int
	Problem    *problem.Problem
	Attempts   int
	AxisA      Axis
	AxisB      Axis
	Base       swarm.Params
	OutDir     string

	// Workers bounds the number of combinations run in parallel; values
	// below one mean one.
	Workers int

	// Seed is mixed with the combination index and attempt number to seed
	// every run.
	Seed int64

	// Convergence configures the stall iteration reported per attempt; the
	// zero value uses analysis.DefaultConvergenceConfig.
	Convergence analysis.ConvergenceConfig
}

// AttemptResult is one attempt of one combination.
type AttemptResult struct {
	Attempt        int          `json:"attempt"`
	Seed           int64        `json:"seed"`
	FinalFitness   store.Number `json:"final_fitness"`
	Evaluations    uint64       `json:"evaluations"`
	StallIteration int          `json:"stall_iteration"`
}

// RankEntry is one combination in ranking.json.
type RankEntry struct {
	Rank       int          `json:"rank"`
	Dir        string       `json:"dir"`
	Parameters swarm.Params `json:"parameters"`
	analysis.Stats

	// StallIteration is taken from the best attempt, -1 when it never stalled
	StallIteration int    `json:"stall_iteration"`
	Error          string `json:"error,omitempty"`

	attempts []AttemptResult
}

// Failed reports whether the combination could not be evaluated.
func (e *RankEntry) Failed() bool {
	return e.Error != ""
}

// Ranking is the result of a grid search, best combination first.
type Ranking struct {
	Problem string
	Dir     string
	Entries []RankEntry
}

// Best returns the best successful combination.
func (r *Ranking) Best() (RankEntry, bool) {
	if len(r.Entries) == 0 || r.Entries[0].Failed() {
		return RankEntry{}, false
	}
	return r.Entries[0], true
}

// Combinations returns the axis value pairs in row-major order: AxisA is the
// outer loop.
func (gs *GridSearch) Combinations() []swarm.Params {
	combos := make([]swarm.Params, 0, len(gs.AxisA.Values)*len(gs.AxisB.Values))
	for _, va := range gs.AxisA.Values {
		for _, vb := range gs.AxisB.Values {
			combos = append(combos, swarm.Params{gs.AxisA.Name: va, gs.AxisB.Name: vb})
		}
	}
	return combos
}

// CombinationDir names the directory of one combination, e.g.
// "phi_p=-4.00_phi_g=1.00".
func (gs *GridSearch) CombinationDir(combo swarm.Params) string {
	return fmt.Sprintf("%s=%s_%s=%s",
		gs.AxisA.Name, combo[gs.AxisA.Name],
		gs.AxisB.Name, combo[gs.AxisB.Name])
}

func (gs *GridSearch) validate() error {
	if gs.Problem == nil {
		return errors.New("grid search needs a problem")
	}
	if gs.Attempts < 1 {
		return fmt.Errorf("attempts must be positive, got %d", gs.Attempts)
	}
	if gs.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", gs.Iterations)
	}
	if err := gs.AxisA.validate(); err != nil {
		return err
	}
	if err := gs.AxisB.validate(); err != nil {
		return err
	}
	if gs.AxisA.Name == gs.AxisB.Name {
		return fmt.Errorf("both axes sweep %s", gs.AxisA.Name)
	}
	if _, err := swarm.ParseKind(string(gs.Kind)); err != nil {
		return err
	}
	return nil
}

// Run evaluates every combination Attempts times and writes the artifacts of
// the best attempt, attempts.json per combination and ranking.json. A failing
// combination is logged, recorded in the ranking and does not stop the
// sweep; only cancellation of ctx aborts Run.
func (gs *GridSearch) Run(ctx context.Context) (*Ranking, error) {
	if err := gs.validate(); err != nil {
		return nil, err
	}

	runs, err := store.NewFSStore(gs.OutDir)
	if err != nil {
		return nil, err
	}
	problemDir := runs.RunPath(gs.Problem.Name())
	combos := gs.Combinations()
	entries := make([]RankEntry, len(combos))

	slog.Info("Starting grid search",
		"method", gs.Kind.DisplayName(),
		"problem", gs.Problem.Name(),
		"combinations", len(combos),
		"attempts", gs.Attempts,
		"workers", workerCount(gs.Workers),
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(gs.Workers))
	for i, combo := range combos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := gs.runCombination(ctx, runs, i, combo)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err != nil {
				slog.Error("Combination failed", "dir", entry.Dir, "error", err)
				entry.Error = err.Error()
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("grid search cancelled: %w", err)
	}

	rank(entries)
	ranking := &Ranking{Problem: gs.Problem.Name(), Dir: problemDir, Entries: entries}
	if err := runs.SaveArtifact(gs.Problem.Name(), RankingFile, entries); err != nil {
		return ranking, fmt.Errorf("save ranking: %w", err)
	}

	if best, ok := ranking.Best(); ok {
		slog.Info("Grid search complete",
			"problem", gs.Problem.Name(),
			"best", best.Dir,
			"mean", float64(best.Mean),
			"elapsed", time.Since(start),
		)
	} else {
		slog.Warn("Grid search complete without a successful combination", "problem", gs.Problem.Name())
	}
	return ranking, nil
}

func (gs *GridSearch) runCombination(ctx context.Context, runs *store.FSStore, index int, combo swarm.Params) (RankEntry, error) {
	dirName := gs.CombinationDir(combo)
	runDir := filepath.Join(gs.Problem.Name(), dirName)
	dir := runs.RunPath(runDir)
	entry := RankEntry{Dir: dirName, Parameters: combo, Stats: analysis.Summarize(nil), StallIteration: -1}

	params := gs.Base.With(combo)
	convergence := gs.Convergence
	if convergence == (analysis.ConvergenceConfig{}) {
		convergence = analysis.DefaultConvergenceConfig()
	}

	var (
		best      swarm.Optimizer
		bestFinal = math.Inf(1)
		bestStall = -1
		finals    = make([]float64, 0, gs.Attempts)
	)
	for attempt := 0; attempt < gs.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return entry, err
		}

		seed := DeriveSeed(gs.Seed, index, attempt)
		o, err := swarm.New(gs.Kind, gs.Kind.DisplayName(), gs.Problem.Fresh(),
			params.With(swarm.Params{"seed": swarm.Int(int(seed))}), dir)
		if err != nil {
			return entry, err
		}
		o.Run(gs.Iterations)

		series := bestSeries(o.History())
		final := series[len(series)-1]
		stall := analysis.StallIteration(series, convergence)
		finals = append(finals, final)
		entry.attempts = append(entry.attempts, AttemptResult{
			Attempt:        attempt,
			Seed:           seed,
			FinalFitness:   store.Number(final),
			Evaluations:    o.Evaluations(),
			StallIteration: stall,
		})

		if best == nil || final < bestFinal {
			best, bestFinal, bestStall = o, final, stall
		}

		slog.Debug("Attempt complete", "dir", dirName, "attempt", attempt, "final", final)
	}

	entry.Stats = analysis.Summarize(finals)
	entry.StallIteration = bestStall

	if err := best.SaveAll(); err != nil {
		return entry, err
	}
	if err := runs.SaveArtifact(runDir, AttemptsFile, entry.attempts); err != nil {
		return entry, fmt.Errorf("save attempts: %w", err)
	}
	return entry, nil
}

// rank sorts entries by mean terminal fitness, failed combinations last, and
// numbers them from 1.
func rank(entries []RankEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		return a.Stats.Less(b.Stats)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func bestSeries(history []swarm.Record) []float64 {
	series := make([]float64, len(history))
	for i, rec := range history {
		series[i] = rec.GlobalBestFitness
	}
	return series
}

func workerCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
