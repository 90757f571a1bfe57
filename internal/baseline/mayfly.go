// Package baseline runs reference optimizers from outside this module on the
// same problems, so swarm results can be compared against them.
package baseline

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
	"github.com/cwbudde/swarmbench/internal/problem"
)

// MinPopulation is the smallest population the mayfly library accepts.
const MinPopulation = 20

// Result is the outcome of a baseline run.
type Result struct {
	Position    []float64
	Fitness     float64
	Evaluations uint64
}

// Mayfly runs the mayfly algorithm on p for the given number of iterations.
// The objective goes through the problem's memo, so Evaluations is
// comparable to the swarm optimizers' counts.
func Mayfly(p *problem.Problem, iterations, popSize int, seed int64) (*Result, error) {
	if popSize < MinPopulation {
		return nil, fmt.Errorf("mayfly population must be at least %d, got %d", MinPopulation, popSize)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("mayfly iterations must be positive, got %d", iterations)
	}

	lower, upper := p.Bounds()

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = p.F
	config.ProblemSize = p.Dim()
	config.MaxIterations = iterations
	config.NPop = popSize
	config.LowerBound = lower
	config.UpperBound = upper
	config.Rand = rand.New(rand.NewSource(seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly on %s: %w", p.Name(), err)
	}

	slog.Debug("Mayfly baseline finished",
		"problem", p.Name(),
		"fitness", result.GlobalBest.Cost,
		"evaluations", p.Evaluations(),
	)

	return &Result{
		Position:    append([]float64(nil), result.GlobalBest.Position...),
		Fitness:     result.GlobalBest.Cost,
		Evaluations: p.Evaluations(),
	}, nil
}
