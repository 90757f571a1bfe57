// Package bench provides the objective functions the optimizers are measured
// against: a CEC17-style suite addressed by function id, plus a handful of
// classic unshifted test functions addressed by name.
package bench

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultBound is the half-width of the CEC17 search box [-100, 100]^D.
const DefaultBound = 100.0

// Function is a deterministic, pure objective to be minimized.
type Function interface {
	Eval(x []float64) float64
	Dim() int
	Name() string
	// Bounds returns the symmetric per-dimension search box.
	Bounds() (lower, upper float64)
}

// UnknownFunctionError is returned when a function id or name is not in the
// registry.
type UnknownFunctionError struct {
	Ref string
}

func (e *UnknownFunctionError) Error() string {
	return "unknown benchmark function: " + e.Ref
}

// funcFunction adapts a plain closure to Function.
type funcFunction struct {
	name         string
	dim          int
	lower, upper float64
	eval         func([]float64) float64
}

// FromFunc wraps eval as a Function over [lower, upper]^dim.
func FromFunc(name string, dim int, lower, upper float64, eval func([]float64) float64) Function {
	return &funcFunction{name: name, dim: dim, lower: lower, upper: upper, eval: eval}
}

func (f *funcFunction) Eval(x []float64) float64       { return f.eval(x) }
func (f *funcFunction) Dim() int                       { return f.dim }
func (f *funcFunction) Name() string                   { return f.name }
func (f *funcFunction) Bounds() (lower, upper float64) { return f.lower, f.upper }

var named = map[string]func([]float64) float64{
	"sphere":     Sphere,
	"rastrigin":  Rastrigin,
	"rosenbrock": Rosenbrock,
	"ackley":     Ackley,
}

// Names lists the functions available through ByName.
func Names() []string {
	return []string{"ackley", "rastrigin", "rosenbrock", "sphere"}
}

// ByName returns one of the classic unshifted functions over [-100, 100]^dim.
func ByName(name string, dim int) (Function, error) {
	eval, ok := named[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownFunctionError{Ref: name}
	}
	if dim < 1 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return FromFunc(strings.ToLower(name), dim, -DefaultBound, DefaultBound, eval), nil
}

// Lookup resolves ref as a CEC17 function id ("5") or a classic function
// name ("rastrigin").
func Lookup(ref string, dim int) (Function, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return CEC17(id, dim)
	}
	return ByName(ref, dim)
}

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i]*x[i] - x[i+1]
		b := x[i] - 1
		sum += 100*a*a + b*b
	}
	return sum
}

func Ackley(x []float64) float64 {
	n := float64(len(x))
	var sq, cs float64
	for _, v := range x {
		sq += v * v
		cs += math.Cos(2 * math.Pi * v)
	}
	return -20*math.Exp(-0.2*math.Sqrt(sq/n)) - math.Exp(cs/n) + 20 + math.E
}
