package baseline

import (
	"math"
	"testing"

	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/problem"
)

func sphereProblem(t *testing.T, dim int) *problem.Problem {
	t.Helper()
	fn := bench.FromFunc("sphere", dim, -10, 10, bench.Sphere)
	return problem.New(fn)
}

func TestMayflyOnSphere(t *testing.T) {
	p := sphereProblem(t, 3)

	result, err := Mayfly(p, 100, 20, 42)
	if err != nil {
		t.Fatalf("Mayfly failed: %v", err)
	}

	if len(result.Position) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(result.Position))
	}
	if result.Fitness > 0.1 {
		t.Errorf("Expected fitness near 0, got %f", result.Fitness)
	}
	for i, v := range result.Position {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
	if result.Evaluations == 0 || result.Evaluations != p.Evaluations() {
		t.Errorf("Expected evaluations to match the problem, got %d vs %d", result.Evaluations, p.Evaluations())
	}
}

func TestMayflyDeterministic(t *testing.T) {
	r1, err := Mayfly(sphereProblem(t, 2), 50, 20, 123)
	if err != nil {
		t.Fatalf("Mayfly failed: %v", err)
	}
	r2, err := Mayfly(sphereProblem(t, 2), 50, 20, 123)
	if err != nil {
		t.Fatalf("Mayfly failed: %v", err)
	}

	if r1.Fitness != r2.Fitness {
		t.Errorf("Non-deterministic: fitness1=%f, fitness2=%f", r1.Fitness, r2.Fitness)
	}
}

func TestMayflyRejectsSmallPopulation(t *testing.T) {
	if _, err := Mayfly(sphereProblem(t, 2), 10, 5, 1); err == nil {
		t.Error("Expected error for population below minimum")
	}
	if _, err := Mayfly(sphereProblem(t, 2), 0, 20, 1); err == nil {
		t.Error("Expected error for zero iterations")
	}
}
