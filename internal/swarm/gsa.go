package swarm

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/swarmbench/internal/problem"
	"gonum.org/v1/gonum/floats"
)

// DefaultEpsilon regularizes the distance in the force term so coincident
// particles do not divide by zero.
const DefaultEpsilon = 1e-10

// GSA is the gravitational search algorithm. Every particle attracts every
// other one with a force proportional to both masses, where mass is derived
// from the particle's fitness rank in the current iteration.
//
// Hyperparameters: g0, alpha, eps (floats), particle_count, seed (ints).
type GSA struct {
	core

	g0    float64
	alpha float64
	eps   float64

	particles []*GSAParticle

	// grid restricts interactions to neighbouring tiles; nil means every
	// pair interacts.
	grid *tileGrid
}

// NewGSA creates an uninitialized GSA optimizer.
func NewGSA(name string, p *problem.Problem, params Params, outDir string) (*GSA, error) {
	c, err := newCore(name, p, params, outDir)
	if err != nil {
		return nil, err
	}

	o := &GSA{core: c, eps: params.FloatOr("eps", DefaultEpsilon)}
	if o.g0, err = params.Float("g0"); err != nil {
		return nil, err
	}
	if o.alpha, err = params.Float("alpha"); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *GSA) Init(n int) {
	lower, upper := o.problem.Bounds()
	dim := o.problem.Dim()

	particles := make([]*GSAParticle, n)
	for i := range particles {
		particles[i] = &GSAParticle{
			Position: randomPosition(o.rng, dim, lower, upper),
			Velocity: zeroVelocity(dim),
		}
	}
	o.seed(particles)

	slog.Debug("GSA initialized", "optimizer", o.name, "particles", n, "global_best", o.bestFit)
}

func (o *GSA) seed(particles []*GSAParticle) {
	o.particles = particles
	o.resetBest()
	for _, p := range particles {
		o.considerBest(p.Position, o.problem.F(p.Position))
	}
}

// Run performs iterations steps. The gravitational constant decays over the
// steps of this call.
func (o *GSA) Run(iterations int) {
	if o.particles == nil {
		o.Init(o.particleCount)
	}

	for t := 0; t < iterations; t++ {
		o.iterate(t, iterations)
		record(&o.core, t, o.particles)
	}
}

func (o *GSA) iterate(t, total int) {
	n := len(o.particles)
	fitness := make([]float64, n)
	positions := make([][]float64, n)
	for i, p := range o.particles {
		fitness[i] = o.problem.F(p.Position)
		positions[i] = p.Position
	}

	masses := normalizedMasses(fitness)
	for i, p := range o.particles {
		p.Mass = masses[i]
	}

	var partners func(int) []int
	if o.grid != nil {
		o.grid.assign(positions)
		partners = o.grid.partners
	}

	g := gravitationalConstant(o.g0, o.alpha, t, total)
	accel := gravitationalAccel(o.rng, positions, masses, g, o.eps, partners)

	for i, p := range o.particles {
		r := o.rng.Float64()
		for d := range p.Velocity {
			p.Velocity[d] = r*p.Velocity[d] + accel[i][d]
		}
		floats.Add(p.Position, p.Velocity)
		fitness[i] = o.problem.F(p.Position)
		o.considerBest(p.Position, fitness[i])
	}

	// The recorded mass belongs to the recorded position. The next iteration
	// recomputes the same masses from memoized fitness.
	for i, m := range normalizedMasses(fitness) {
		o.particles[i].Mass = m
	}
}

// gravitationalConstant decays g0 exponentially over the run so exploration
// dominates early and exploitation late.
func gravitationalConstant(g0, alpha float64, t, total int) float64 {
	if total <= 0 {
		return g0
	}
	return g0 * math.Exp(-alpha*float64(t)/float64(total))
}

// normalizedMasses maps fitness to masses summing to one. The best particle
// gets raw mass 1 and the worst 0. When every fitness is equal all masses
// are uniform. Non-finite fitness gets zero mass.
func normalizedMasses(fitness []float64) []float64 {
	n := len(fitness)
	masses := make([]float64, n)
	if n == 0 {
		return masses
	}

	best, worst := math.Inf(1), math.Inf(-1)
	finite := 0
	for _, f := range fitness {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		finite++
		best = math.Min(best, f)
		worst = math.Max(worst, f)
	}
	if finite == 0 {
		for i := range masses {
			masses[i] = 1 / float64(n)
		}
		return masses
	}

	for i, f := range fitness {
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			masses[i] = 0
		case best == worst:
			masses[i] = 1
		default:
			masses[i] = (f - worst) / (best - worst)
		}
	}

	floats.Scale(1/floats.Sum(masses), masses)
	return masses
}

// gravitationalAccel returns the acceleration of every particle. The pull
// of j on i is
//
//	r * G * M_i * M_j / (|x_j - x_i| + eps) * (x_j - x_i)
//
// with r uniform(0,1) per pair and dimension, and the acceleration is the sum
// of those pulls divided by M_i. Dividing out M_i analytically keeps the
// acceleration defined for massless particles. partners limits the j
// considered for i; nil means all particles.
func gravitationalAccel(rng *rand.Rand, positions [][]float64, masses []float64, g, eps float64, partners func(int) []int) [][]float64 {
	n := len(positions)
	accel := make([][]float64, n)

	for i := range positions {
		xi := positions[i]
		acc := make([]float64, len(xi))

		pull := func(j int) {
			if j == i {
				return
			}
			xj := positions[j]
			scale := g * masses[j] / (floats.Distance(xj, xi, 2) + eps)
			for d := range acc {
				acc[d] += rng.Float64() * scale * (xj[d] - xi[d])
			}
		}

		if partners == nil {
			for j := 0; j < n; j++ {
				pull(j)
			}
		} else {
			for _, j := range partners(i) {
				pull(j)
			}
		}
		accel[i] = acc
	}
	return accel
}
