// Package swarm implements the population-based optimizers and the lifecycle
// they share: initialize a population, iterate, record one trajectory entry
// per iteration and export the result.
package swarm

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/cwbudde/swarmbench/internal/problem"
)

// Kind selects an optimizer implementation.
type Kind string

const (
	KindPSO      Kind = "pso"
	KindGSA      Kind = "gsa"
	KindTiledGSA Kind = "tiled_gsa"
)

// Kinds lists every optimizer kind.
func Kinds() []Kind {
	return []Kind{KindPSO, KindGSA, KindTiledGSA}
}

// ParseKind accepts the kind names case-insensitively, with "-" or "_".
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(s), "-", "_"))
	if slices.Contains(Kinds(), k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown optimizer kind: %s", s)
}

// DisplayName is the method name written to config.json.
func (k Kind) DisplayName() string {
	switch k {
	case KindPSO:
		return "PSO"
	case KindGSA:
		return "GSA"
	case KindTiledGSA:
		return "TiledGSA"
	}
	return string(k)
}

// Record is one trajectory entry: the global best fitness after an iteration
// and a copy of every particle.
type Record struct {
	GlobalBestFitness float64
	Particles         []Snapshot
}

// IterationHook is called after every iteration with the zero-based index of
// the iteration within the current Run call.
type IterationHook func(iteration int, globalBest float64, evaluations uint64)

// Optimizer is the lifecycle every algorithm implements.
type Optimizer interface {
	Name() string
	Problem() *problem.Problem
	Params() Params

	// Init spawns n particles inside the problem bounds. Calling it again
	// replaces the population and clears the global best.
	Init(n int)

	// Run performs iterations more iterations, calling Init with the
	// particle_count hyperparameter first if needed. Repeated calls continue
	// from the current state.
	Run(iterations int)

	History() []Record

	// GlobalBest returns the best position found so far and its fitness;
	// ok is false before Init.
	GlobalBest() (pos []float64, fitness float64, ok bool)

	Evaluations() uint64

	// OnIteration registers an observer for every subsequent iteration.
	OnIteration(hook IterationHook)

	SaveSummary() error
	SaveData() error
	SaveConfig() error
	SaveAll() error
	OutDir() string
}

// New builds an optimizer of the given kind.
func New(kind Kind, name string, p *problem.Problem, params Params, outDir string) (Optimizer, error) {
	var (
		o   Optimizer
		err error
	)
	switch kind {
	case KindPSO:
		o, err = NewPSO(name, p, params, outDir)
	case KindGSA:
		o, err = NewGSA(name, p, params, outDir)
	case KindTiledGSA:
		o, err = NewTiledGSA(name, p, params, outDir)
	default:
		return nil, fmt.Errorf("unknown optimizer kind: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind.DisplayName(), err)
	}
	return o, nil
}

// core is the state shared by every optimizer: identity, problem, rng,
// global best and trajectory.
type core struct {
	name          string
	problem       *problem.Problem
	params        Params
	outDir        string
	particleCount int
	rng           *rand.Rand

	bestPos []float64
	bestFit float64

	history []Record
	hooks   []IterationHook
}

func newCore(name string, p *problem.Problem, params Params, outDir string) (core, error) {
	count, err := params.Int("particle_count")
	if err != nil {
		return core{}, err
	}
	if count < 1 {
		return core{}, &ParamError{Name: "particle_count", Reason: "must be positive"}
	}

	seed, err := params.IntOr("seed", int(time.Now().UnixNano()))
	if err != nil {
		return core{}, err
	}

	return core{
		name:          name,
		problem:       p,
		params:        params.With(nil),
		outDir:        outDir,
		particleCount: count,
		rng:           rand.New(rand.NewSource(int64(seed))),
		bestFit:       math.Inf(1),
	}, nil
}

func (c *core) Name() string              { return c.name }
func (c *core) Problem() *problem.Problem { return c.problem }
func (c *core) Params() Params            { return c.params }
func (c *core) OutDir() string            { return c.outDir }
func (c *core) History() []Record         { return c.history }
func (c *core) Evaluations() uint64       { return c.problem.Evaluations() }

func (c *core) GlobalBest() ([]float64, float64, bool) {
	if c.bestPos == nil {
		return nil, math.Inf(1), false
	}
	return clone(c.bestPos), c.bestFit, true
}

func (c *core) OnIteration(hook IterationHook) {
	c.hooks = append(c.hooks, hook)
}

// resetBest forgets the global best before a new population is seeded.
func (c *core) resetBest() {
	c.bestPos = nil
	c.bestFit = math.Inf(1)
}

// considerBest replaces the global best when it is unset, NaN, or fitness is
// strictly lower. Ties keep the earlier position.
func (c *core) considerBest(pos []float64, fitness float64) bool {
	if c.bestPos != nil && !math.IsNaN(c.bestFit) && !(fitness < c.bestFit) {
		return false
	}
	c.bestPos = clone(pos)
	c.bestFit = fitness
	return true
}

// record appends the trajectory entry for iteration t and notifies hooks.
func record[P Particle](c *core, t int, particles []P) {
	snaps := make([]Snapshot, len(particles))
	for i, p := range particles {
		snaps[i] = snapshotOf(p)
	}
	c.history = append(c.history, Record{GlobalBestFitness: c.bestFit, Particles: snaps})

	evals := c.problem.Evaluations()
	for _, hook := range c.hooks {
		hook(t, c.bestFit, evals)
	}

	slog.Debug("Iteration complete",
		"optimizer", c.name,
		"iteration", len(c.history),
		"global_best", c.bestFit,
		"evaluations", evals,
	)
}
