package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// binarySampler applies op elementwise to draws from two samplers.
type binarySampler struct {
	a, b Sampler
	op   func(x, y float64) float64
}

func (s *binarySampler) Sample(n int) ([]float64, error) {
	xs, err := s.a.Sample(n)
	if err != nil {
		return nil, err
	}
	ys, err := s.b.Sample(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.op(xs[i], ys[i])
	}
	return out, nil
}

// Combine applies op elementwise to draws from a and b.
func Combine(op func(x, y float64) float64, a, b Sampler) Sampler {
	return &binarySampler{a: a, b: b, op: op}
}

// Add returns a sampler of a + b.
func Add(a, b Sampler) Sampler {
	return Combine(func(x, y float64) float64 { return x + y }, a, b)
}

// Sub returns a sampler of a - b.
func Sub(a, b Sampler) Sampler {
	return Combine(func(x, y float64) float64 { return x - y }, a, b)
}

// Mul returns a sampler of a * b.
func Mul(a, b Sampler) Sampler {
	return Combine(func(x, y float64) float64 { return x * y }, a, b)
}

// Div returns a sampler of a / b.
func Div(a, b Sampler) Sampler {
	return Combine(func(x, y float64) float64 { return x / y }, a, b)
}

// Pow returns a sampler of a ** b.
func Pow(a, b Sampler) Sampler {
	return Combine(math.Pow, a, b)
}

// truncatedSampler rejection-samples the base sampler into [lo, hi].
type truncatedSampler struct {
	base   Sampler
	lo, hi float64
}

func (s *truncatedSampler) Sample(n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Sample", "sample size must be positive")
	}
	out := make([]float64, 0, n)
	attempts := 0
	for len(out) < n {
		if attempts >= maxTruncateAttempts {
			return nil, errors.NewValueError("Truncate",
				"truncation region has negligible probability mass")
		}
		// Draw in batches to amortize the base sampler call.
		batch, err := s.base.Sample(n)
		if err != nil {
			return nil, err
		}
		attempts++
		for _, v := range batch {
			if v >= s.lo && v <= s.hi && len(out) < n {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// Truncate restricts a sampler to the interval [lo, hi] by rejection
// sampling. Sampling fails when the interval captures (almost) none of the
// base distribution's mass.
func Truncate(base Sampler, lo, hi float64) (Sampler, error) {
	if lo >= hi {
		return nil, errors.NewValidationError("lo", "lower bound must be below upper bound", lo)
	}
	return &truncatedSampler{base: base, lo: lo, hi: hi}, nil
}

// mixSampler draws each value from a with probability weight, from b
// otherwise.
type mixSampler struct {
	a, b   Sampler
	weight float64
	rng    *rand.Rand
}

func (s *mixSampler) Sample(n int) ([]float64, error) {
	xs, err := s.a.Sample(n)
	if err != nil {
		return nil, err
	}
	ys, err := s.b.Sample(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		var u float64
		if s.rng != nil {
			u = s.rng.Float64()
		} else {
			u = rand.Float64()
		}
		if u < s.weight {
			out[i] = xs[i]
		} else {
			out[i] = ys[i]
		}
	}
	return out, nil
}

// Mix returns a mixture: each draw comes from a with probability weight and
// from b otherwise.
func Mix(weight float64, a, b Sampler, opts ...Option) (Sampler, error) {
	if weight < 0 || weight > 1 {
		return nil, errors.NewValidationError("weight", "mixture weight must be in [0, 1]", weight)
	}
	c := buildConfig(opts)
	m := &mixSampler{a: a, b: b, weight: weight}
	if c.src != nil {
		m.rng = rand.New(c.src)
	}
	return m, nil
}
