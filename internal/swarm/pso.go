package swarm

import (
	"log/slog"

	"github.com/cwbudde/swarmbench/internal/problem"
	"gonum.org/v1/gonum/floats"
)

// PSO is particle swarm optimization with inertia, cognitive and social
// terms.
//
// Hyperparameters: w, phi_p, phi_g (floats), particle_count, seed (ints).
type PSO struct {
	core

	w    float64 // inertia
	phiP float64 // cognitive
	phiG float64 // social

	particles []*PSOParticle
}

// NewPSO creates an uninitialized PSO optimizer.
func NewPSO(name string, p *problem.Problem, params Params, outDir string) (*PSO, error) {
	c, err := newCore(name, p, params, outDir)
	if err != nil {
		return nil, err
	}

	o := &PSO{core: c}
	if o.w, err = params.Float("w"); err != nil {
		return nil, err
	}
	if o.phiP, err = params.Float("phi_p"); err != nil {
		return nil, err
	}
	if o.phiG, err = params.Float("phi_g"); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *PSO) Init(n int) {
	lower, upper := o.problem.Bounds()
	dim := o.problem.Dim()

	particles := make([]*PSOParticle, n)
	for i := range particles {
		particles[i] = &PSOParticle{
			Position: randomPosition(o.rng, dim, lower, upper),
			Velocity: zeroVelocity(dim),
		}
	}
	o.seed(particles)

	slog.Debug("PSO initialized", "optimizer", o.name, "particles", n, "global_best", o.bestFit)
}

// seed installs a population and performs the first fitness comparison, so
// every personal best and the global best are set afterwards.
func (o *PSO) seed(particles []*PSOParticle) {
	o.particles = particles
	o.resetBest()
	for _, p := range particles {
		fitness := o.problem.F(p.Position)
		p.compare(fitness)
		o.considerBest(p.Position, fitness)
	}
}

func (o *PSO) Run(iterations int) {
	if o.particles == nil {
		o.Init(o.particleCount)
	}

	for t := 0; t < iterations; t++ {
		for i, p := range o.particles {
			p.Velocity = o.calculateVel(i)
			floats.Add(p.Position, p.Velocity)

			fitness := o.problem.F(p.Position)
			p.compare(fitness)
			o.considerBest(p.Position, fitness)
		}
		record(&o.core, t, o.particles)
	}
}

// calculateVel returns the next velocity of particle idx. r_p and r_g are
// drawn per dimension. Panics when called before Init.
func (o *PSO) calculateVel(idx int) []float64 {
	p := o.particles[idx]
	if p.BestPosition == nil || o.bestPos == nil {
		panic("swarm: PSO velocity requested before initialization")
	}

	vel := make([]float64, len(p.Velocity))
	for d := range vel {
		rp := o.rng.Float64()
		rg := o.rng.Float64()
		vel[d] = o.w*p.Velocity[d] +
			o.phiP*rp*(p.BestPosition[d]-p.Position[d]) +
			o.phiG*rg*(o.bestPos[d]-p.Position[d])
	}
	return vel
}
