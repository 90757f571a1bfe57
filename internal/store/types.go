package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Artifact file names inside a run directory.
const (
	ConfigFile  = "config.json"
	SummaryFile = "summary.json"
	DataFile    = "data.json"
	TraceFile   = "trace.jsonl"
)

// Number is a float64 that survives JSON encoding when it is not finite.
// Diverging swarms routinely produce Inf and NaN coordinates; those are
// written as null and read back as NaN.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Numbers converts a float slice for serialization.
func Numbers(v []float64) []Number {
	out := make([]Number, len(v))
	for i, f := range v {
		out[i] = Number(f)
	}
	return out
}

// ProblemInfo identifies the benchmark function of a run.
type ProblemInfo struct {
	Name string `json:"name"`
	Dim  int    `json:"dim"`
}

// MethodInfo identifies the optimizer and its hyperparameters. Parameter
// values are kept as JSON numbers so ints and floats round-trip unchanged.
type MethodInfo struct {
	Name       string                 `json:"name"`
	Parameters map[string]json.Number `json:"parameters"`
}

// RunConfig is the content of config.json.
type RunConfig struct {
	Problem ProblemInfo `json:"problem"`
	Method  MethodInfo  `json:"method"`
}

// Summary is the content of summary.json: the global best fitness after
// every iteration and the number of distinct evaluations spent.
type Summary struct {
	GlobalBestFitness []Number `json:"global_best_fitness"`
	EvaluationCount   uint64   `json:"evaluation_count"`
}

// Final returns the global best fitness after the last iteration.
func (s *Summary) Final() (float64, bool) {
	if len(s.GlobalBestFitness) == 0 {
		return math.NaN(), false
	}
	return float64(s.GlobalBestFitness[len(s.GlobalBestFitness)-1]), true
}

// Validate checks that the summary has data and that the best fitness never
// got worse from one iteration to the next.
func (s *Summary) Validate() error {
	if len(s.GlobalBestFitness) == 0 {
		return &ValidationError{Field: "GlobalBestFitness", Reason: "cannot be empty"}
	}
	for i := 1; i < len(s.GlobalBestFitness); i++ {
		prev, cur := float64(s.GlobalBestFitness[i-1]), float64(s.GlobalBestFitness[i])
		if cur > prev {
			return &ValidationError{
				Field:  "GlobalBestFitness",
				Reason: fmt.Sprintf("regressed at iteration %d (%g -> %g)", i, prev, cur),
			}
		}
	}
	return nil
}

// ParticleRecord is one particle in data.json.
type ParticleRecord struct {
	Fitness Number   `json:"fitness"`
	Vel     []Number `json:"vel"`
	Pos     []Number `json:"pos"`
}

// IterationRecord is one iteration in data.json.
type IterationRecord struct {
	GlobalBestFitness Number           `json:"global_best_fitness"`
	Particles         []ParticleRecord `json:"particles"`
}

// RunInfo contains metadata about a stored run without its trajectory.
type RunInfo struct {
	// Dir is the run directory relative to the store base
	Dir string `json:"dir"`

	// Problem and Method come from config.json when present
	Problem string `json:"problem"`
	Dim     int    `json:"dim"`
	Method  string `json:"method"`

	Iterations   int     `json:"iterations"`
	FinalFitness float64 `json:"finalFitness"`
	Evaluations  uint64  `json:"evaluations"`

	// ModTime of summary.json
	ModTime time.Time `json:"modTime"`

	// Issue is the validation failure of summary.json, empty when it is sound
	Issue string `json:"issue,omitempty"`
}

// ValidationError represents an artifact validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
