package swarm

import (
	"math"
	"math/rand"
)

// Particle is the capability every optimizer's particles share: a position
// and a velocity. Algorithm specific state lives on the concrete types.
type Particle interface {
	Pos() []float64
	Vel() []float64
}

// massive is implemented by particles that carry a mass.
type massive interface {
	mass() float64
}

// snapshotOf copies the state of p.
func snapshotOf(p Particle) Snapshot {
	snap := Snapshot{Position: clone(p.Pos()), Velocity: clone(p.Vel())}
	if m, ok := p.(massive); ok {
		snap.Mass = m.mass()
	}
	return snap
}

// Snapshot is a copy of one particle's state at the end of an iteration.
// Mass is derived from the fitness at Position and is zero for particles
// without one.
type Snapshot struct {
	Position []float64
	Velocity []float64
	Mass     float64
}

// PSOParticle carries a personal best on top of position and velocity.
// BestPosition is nil until the particle's first fitness comparison.
type PSOParticle struct {
	Position     []float64
	Velocity     []float64
	BestPosition []float64
	BestFitness  float64
}

func (p *PSOParticle) Pos() []float64 { return p.Position }
func (p *PSOParticle) Vel() []float64 { return p.Velocity }

// compare records fitness as the personal best when the particle has none
// yet, its best is NaN, or fitness is strictly lower.
func (p *PSOParticle) compare(fitness float64) bool {
	if p.BestPosition != nil && !math.IsNaN(p.BestFitness) && !(fitness < p.BestFitness) {
		return false
	}
	p.BestPosition = clone(p.Position)
	p.BestFitness = fitness
	return true
}

// GSAParticle carries the mass assigned in the current iteration. Mass is
// recomputed from fitness every iteration and is not history.
type GSAParticle struct {
	Position []float64
	Velocity []float64
	Mass     float64
}

func (p *GSAParticle) Pos() []float64 { return p.Position }
func (p *GSAParticle) Vel() []float64 { return p.Velocity }
func (p *GSAParticle) mass() float64  { return p.Mass }

// randomPosition draws a point uniformly from [lower, upper]^dim.
func randomPosition(rng *rand.Rand, dim int, lower, upper float64) []float64 {
	pos := make([]float64, dim)
	for i := range pos {
		pos[i] = lower + (upper-lower)*rng.Float64()
	}
	return pos
}

func zeroVelocity(dim int) []float64 {
	return make([]float64, dim)
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
