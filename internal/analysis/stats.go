package analysis

import (
	"math"

	"github.com/cwbudde/swarmbench/internal/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the terminal fitness of repeated attempts. Fields are
// NaN (null in JSON) when no attempt produced a finite value.
type Stats struct {
	N    int          `json:"n"`
	Mean store.Number `json:"mean"`
	Std  store.Number `json:"std"`
	Min  store.Number `json:"min"`
	Max  store.Number `json:"max"`
}

// Summarize computes mean, sample standard deviation, min and max over the
// finite values. N counts only the finite values.
func Summarize(values []float64) Stats {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	nan := store.Number(math.NaN())
	s := Stats{N: len(finite), Mean: nan, Std: nan, Min: nan, Max: nan}
	switch len(finite) {
	case 0:
		return s
	case 1:
		s.Std = 0
	default:
		s.Std = store.Number(stat.StdDev(finite, nil))
	}
	s.Mean = store.Number(stat.Mean(finite, nil))
	s.Min = store.Number(floats.Min(finite))
	s.Max = store.Number(floats.Max(finite))
	return s
}

// Less orders stats by mean ascending; stats without a mean sort last.
func (s Stats) Less(other Stats) bool {
	a, b := float64(s.Mean), float64(other.Mean)
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	}
	return a < b
}
