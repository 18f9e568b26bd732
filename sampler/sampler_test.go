package sampler

import (
	"math"
	"testing"
)

func TestNormalMoments(t *testing.T) {
	s, err := Normal(5.0, 2.0, WithSeed(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draws, err := s.Sample(100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mean := meanOf(draws)
	if math.Abs(mean-5.0) > 0.05 {
		t.Errorf("mean = %v, want ~5.0", mean)
	}

	variance := 0.0
	for _, v := range draws {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(draws))
	if math.Abs(math.Sqrt(variance)-2.0) > 0.05 {
		t.Errorf("stddev = %v, want ~2.0", math.Sqrt(variance))
	}
}

func TestUniformBounds(t *testing.T) {
	s, err := Uniform(-1.0, 3.0, WithSeed(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	draws, err := s.Sample(10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range draws {
		if v < -1.0 || v >= 3.0 {
			t.Fatalf("draw %v outside [-1, 3)", v)
		}
	}
}

func TestConstructorValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (Sampler, error)
	}{
		{"normal non-positive sigma", func() (Sampler, error) { return Normal(0, -1) }},
		{"uniform inverted bounds", func() (Sampler, error) { return Uniform(2, 1) }},
		{"exponential zero rate", func() (Sampler, error) { return Exponential(0) }},
		{"gamma negative shape", func() (Sampler, error) { return Gamma(-1, 1) }},
		{"beta zero alpha", func() (Sampler, error) { return Beta(0, 1) }},
		{"weibull zero scale", func() (Sampler, error) { return Weibull(1, 0) }},
		{"poisson zero mean", func() (Sampler, error) { return Poisson(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := Constant(6)
	b := Constant(2)

	tests := []struct {
		name string
		s    Sampler
		want float64
	}{
		{"add", Add(a, b), 8},
		{"sub", Sub(a, b), 4},
		{"mul", Mul(a, b), 12},
		{"div", Div(a, b), 3},
		{"pow", Pow(a, b), 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws, err := tt.s.Sample(5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, v := range draws {
				if v != tt.want {
					t.Fatalf("draw = %v, want %v", v, tt.want)
				}
			}
		})
	}
}

func TestArithmeticWithDistribution(t *testing.T) {
	base, err := Uniform(0, 1, WithSeed(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shifted := Add(base, Constant(10))

	draws, err := shifted.Sample(1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range draws {
		if v < 10 || v >= 11 {
			t.Fatalf("draw %v outside [10, 11)", v)
		}
	}
}

func TestTruncate(t *testing.T) {
	base, err := Normal(0, 1, WithSeed(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trunc, err := Truncate(base, -0.5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draws, err := trunc.Sample(2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range draws {
		if v < -0.5 || v > 0.5 {
			t.Fatalf("draw %v outside truncation interval", v)
		}
	}
}

func TestTruncateEmptyRegion(t *testing.T) {
	base, err := Normal(0, 1, WithSeed(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50 sigma away from the mean: effectively zero mass.
	trunc, err := Truncate(base, 50, 51)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := trunc.Sample(10); err == nil {
		t.Error("expected failure for a negligible-mass truncation region")
	}
}

func TestMix(t *testing.T) {
	m, err := Mix(0.5, Constant(0), Constant(1), WithSeed(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	draws, err := m.Sample(10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	share := meanOf(draws)
	if share < 0.45 || share > 0.55 {
		t.Errorf("component share = %v, want ~0.5", share)
	}

	if _, err := Mix(1.5, Constant(0), Constant(1)); err == nil {
		t.Error("expected validation error for weight outside [0,1]")
	}
}

func TestSampleSizeValidation(t *testing.T) {
	s := Constant(1)
	if _, err := s.Sample(0); err == nil {
		t.Error("expected error for n=0")
	}
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
