// Package analysis condenses optimizer trajectories into the numbers used to
// compare runs: where progress stalled and summary statistics over attempts.
package analysis

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when a best-fitness series counts as stalled.
type ConvergenceConfig struct {
	// Patience is the number of iterations without significant improvement
	// after which the series is stalled
	Patience int

	// Threshold is the minimum relative improvement that counts as progress.
	// Relative improvement = (last - current) / |last|
	Threshold float64
}

// DefaultConvergenceConfig returns the settings used for grid and suite
// summaries.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Patience:  50,
		Threshold: 1e-3,
	}
}

// Tracker follows a best-fitness series one value at a time.
type Tracker struct {
	config          ConvergenceConfig
	iteration       int
	best            float64
	lastSignificant float64
	lastImproved    int // iteration of lastSignificant
	staleCount      int
	stalledAt       int
}

// NewTracker creates a tracker with the given config.
func NewTracker(config ConvergenceConfig) *Tracker {
	t := &Tracker{config: config}
	t.Reset()
	return t
}

// Update records the value of the next iteration and returns true once the
// series has gone Patience iterations without significant improvement.
func (t *Tracker) Update(value float64) bool {
	i := t.iteration
	t.iteration++

	if value < t.best {
		t.best = value
	}

	if i == 0 {
		t.lastSignificant = value
		t.lastImproved = 0
		return false
	}

	if t.improves(value) {
		t.lastSignificant = value
		t.lastImproved = i
		t.staleCount = 0
		return t.Stalled()
	}

	t.staleCount++
	if t.staleCount >= t.config.Patience && t.stalledAt < 0 {
		t.stalledAt = t.lastImproved
		slog.Debug("Progress stalled",
			"iteration", i,
			"last_improvement", t.lastImproved,
			"best", t.best,
			"patience", t.config.Patience,
		)
	}
	return t.Stalled()
}

// improves reports whether value is a significant improvement over the last
// significant value. Non-finite predecessors are improved on by any finite
// value.
func (t *Tracker) improves(value float64) bool {
	last := t.lastSignificant
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return true
	}
	if value >= last {
		return false
	}
	if last == 0 {
		return true
	}
	return (last-value)/math.Abs(last) >= t.config.Threshold
}

// Stalled reports whether the series has stalled at some point. Once stalled
// the series stays stalled.
func (t *Tracker) Stalled() bool {
	return t.stalledAt >= 0
}

// StallIteration returns the last iteration with significant improvement
// before the series first stalled.
func (t *Tracker) StallIteration() (int, bool) {
	return t.stalledAt, t.stalledAt >= 0
}

// Best returns the lowest value seen so far.
func (t *Tracker) Best() float64 {
	return t.best
}

// StaleCount returns the current number of iterations without improvement.
func (t *Tracker) StaleCount() int {
	return t.staleCount
}

// Reset clears the tracker's state.
func (t *Tracker) Reset() {
	t.iteration = 0
	t.best = math.Inf(1)
	t.lastSignificant = math.Inf(1)
	t.lastImproved = 0
	t.staleCount = 0
	t.stalledAt = -1
}

// StallIteration runs a tracker over series and returns the iteration at
// which progress stalled, or -1 when it never did.
func StallIteration(series []float64, config ConvergenceConfig) int {
	t := NewTracker(config)
	for _, v := range series {
		t.Update(v)
	}
	it, _ := t.StallIteration()
	return it
}
