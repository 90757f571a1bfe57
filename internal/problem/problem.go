// Package problem binds a benchmark function to the bookkeeping every run
// needs: a memo of evaluated positions and a count of real evaluations.
package problem

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/swarmbench/internal/bench"
)

// Problem is owned by a single optimizer run and is not safe for concurrent
// use.
type Problem struct {
	fn    bench.Function
	evals uint64
	memo  map[string]float64
}

// New creates a Problem with an empty memo and a zero evaluation count.
func New(fn bench.Function) *Problem {
	return &Problem{
		fn:   fn,
		memo: make(map[string]float64),
	}
}

// Fresh returns a new Problem over the same function with no evaluation
// history.
func (p *Problem) Fresh() *Problem {
	return New(p.fn)
}

// positionKey encodes every coordinate's bit pattern, so two positions share
// a key only when they are exactly equal.
func positionKey(pos []float64) string {
	buf := make([]byte, 8*len(pos))
	for i, v := range pos {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}

// F evaluates the function at pos, answering from the memo when pos was seen
// before. Only cache misses are counted.
func (p *Problem) F(pos []float64) float64 {
	key := positionKey(pos)
	if val, ok := p.memo[key]; ok {
		return val
	}
	val := p.fn.Eval(pos)
	p.memo[key] = val
	p.evals++
	return val
}

// FNoMemo evaluates the function without touching the memo or the counter.
// Used when reporting historical positions.
func (p *Problem) FNoMemo(pos []float64) float64 {
	return p.fn.Eval(pos)
}

// Evaluations returns the number of distinct positions evaluated through F.
func (p *Problem) Evaluations() uint64 { return p.evals }

func (p *Problem) Dim() int     { return p.fn.Dim() }
func (p *Problem) Name() string { return p.fn.Name() }

// Bounds returns the symmetric search box of the underlying function.
func (p *Problem) Bounds() (lower, upper float64) { return p.fn.Bounds() }
