package bench

import (
	"fmt"
	"math"
	"math/rand"
)

// shiftRange bounds the generated optimum location so it stays well inside
// the search box, as in the CEC17 shift data.
const shiftRange = 80.0

type basicFunc func(x, shift []float64) float64

// cec17Funcs holds the simple (non-hybrid, non-composition) functions of the
// suite. Id 2 was withdrawn from CEC17 and is intentionally absent.
var cec17Funcs = map[int]basicFunc{
	1:  bentCigar,
	3:  zakharov,
	4:  shiftedRosenbrock,
	5:  shiftedRastrigin,
	6:  expandedSchafferF6,
	7:  lunacekBiRastrigin,
	8:  nonContinuousRastrigin,
	9:  levy,
	10: schwefel,
}

// CEC17IDs returns the supported function ids in ascending order.
func CEC17IDs() []int {
	return []int{1, 3, 4, 5, 6, 7, 8, 9, 10}
}

type cec17 struct {
	id    int
	dim   int
	shift []float64
	fn    basicFunc
}

// CEC17 returns function id of the suite in dim dimensions. The optimum
// sits at a shift vector generated deterministically from the id, and the
// optimal value is 100*id. Rotation matrices are not applied.
func CEC17(id, dim int) (Function, error) {
	fn, ok := cec17Funcs[id]
	if !ok {
		return nil, &UnknownFunctionError{Ref: fmt.Sprintf("cec17 f%d", id)}
	}
	if dim < 2 {
		return nil, fmt.Errorf("cec17 functions need at least 2 dimensions, got %d", dim)
	}

	rng := rand.New(rand.NewSource(int64(id)))
	shift := make([]float64, dim)
	for i := range shift {
		shift[i] = -shiftRange + 2*shiftRange*rng.Float64()
	}

	return &cec17{id: id, dim: dim, shift: shift, fn: fn}, nil
}

func (c *cec17) Eval(x []float64) float64 {
	return c.fn(x, c.shift) + 100*float64(c.id)
}

func (c *cec17) Dim() int                       { return c.dim }
func (c *cec17) Name() string                   { return fmt.Sprintf("cec17_f%d", c.id) }
func (c *cec17) Bounds() (lower, upper float64) { return -DefaultBound, DefaultBound }

// Optimum returns the location of the global minimum.
func (c *cec17) Optimum() []float64 {
	return append([]float64(nil), c.shift...)
}

func shifted(x, shift []float64, scale float64) []float64 {
	z := make([]float64, len(x))
	for i := range x {
		z[i] = (x[i] - shift[i]) * scale
	}
	return z
}

func bentCigar(x, shift []float64) float64 {
	z := shifted(x, shift, 1)
	sum := z[0] * z[0]
	for _, v := range z[1:] {
		sum += 1e6 * v * v
	}
	return sum
}

func zakharov(x, shift []float64) float64 {
	z := shifted(x, shift, 1)
	var sq, lin float64
	for i, v := range z {
		sq += v * v
		lin += 0.5 * float64(i+1) * v
	}
	lin2 := lin * lin
	return sq + lin2 + lin2*lin2
}

func shiftedRosenbrock(x, shift []float64) float64 {
	z := shifted(x, shift, 2.048/100)
	for i := range z {
		z[i]++
	}
	return Rosenbrock(z)
}

func shiftedRastrigin(x, shift []float64) float64 {
	return Rastrigin(shifted(x, shift, 5.12/100))
}

func expandedSchafferF6(x, shift []float64) float64 {
	z := shifted(x, shift, 1)
	g := func(a, b float64) float64 {
		r := a*a + b*b
		s := math.Sin(math.Sqrt(r))
		d := 1 + 0.001*r
		return 0.5 + (s*s-0.5)/(d*d)
	}
	var sum float64
	for i := range z {
		sum += g(z[i], z[(i+1)%len(z)])
	}
	return sum
}

func lunacekBiRastrigin(x, shift []float64) float64 {
	const mu0, d = 2.5, 1.0
	n := float64(len(x))
	s := 1 - 1/(2*math.Sqrt(n+20)-8.2)
	mu1 := -math.Sqrt((mu0*mu0 - d) / s)

	y := shifted(x, shift, 10.0/100)
	var sum0, sum1, cs float64
	for i, v := range y {
		sign := 1.0
		if shift[i] < 0 {
			sign = -1
		}
		xh := 2*sign*v + mu0
		sum0 += (xh - mu0) * (xh - mu0)
		sum1 += (xh - mu1) * (xh - mu1)
		cs += math.Cos(2 * math.Pi * (xh - mu0))
	}
	return math.Min(sum0, d*n+s*sum1) + 10*(n-cs)
}

func nonContinuousRastrigin(x, shift []float64) float64 {
	z := shifted(x, shift, 5.12/100)
	for i, v := range z {
		if math.Abs(v) > 0.5 {
			z[i] = math.Round(2*v) / 2
		}
	}
	return Rastrigin(z)
}

func levy(x, shift []float64) float64 {
	z := shifted(x, shift, 1)
	w := make([]float64, len(z))
	for i, v := range z {
		w[i] = 1 + v/4
	}
	last := len(w) - 1
	s0 := math.Sin(math.Pi * w[0])
	sum := s0 * s0
	for i := 0; i < last; i++ {
		si := math.Sin(math.Pi*w[i] + 1)
		sum += (w[i] - 1) * (w[i] - 1) * (1 + 10*si*si)
	}
	sl := math.Sin(2 * math.Pi * w[last])
	sum += (w[last] - 1) * (w[last] - 1) * (1 + sl*sl)
	return sum
}

func schwefel(x, shift []float64) float64 {
	const offset = 4.209687462275036e+002
	n := float64(len(x))
	z := shifted(x, shift, 1000.0/100)
	var sum float64
	for _, v := range z {
		v += offset
		switch {
		case v > 500:
			m := 500 - math.Mod(v, 500)
			sum += m*math.Sin(math.Sqrt(math.Abs(m))) - (v-500)*(v-500)/(10000*n)
		case v < -500:
			m := math.Mod(math.Abs(v), 500) - 500
			sum += m*math.Sin(math.Sqrt(math.Abs(m))) - (v+500)*(v+500)/(10000*n)
		default:
			sum += v * math.Sin(math.Sqrt(math.Abs(v)))
		}
	}
	return 418.9829*n - sum
}
