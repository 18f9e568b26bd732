// Package sampler provides distribution samplers for building option domains
// from continuous hyperparameter ranges. Samplers form a small algebra:
// arithmetic combinations, truncation to an interval, and weighted mixtures.
package sampler

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// maxTruncateAttempts bounds rejection sampling per draw. When the truncation
// region carries negligible probability mass the sampler fails instead of
// spinning forever.
const maxTruncateAttempts = 10000

// Sampler draws n values from some distribution.
type Sampler interface {
	Sample(n int) ([]float64, error)
}

// Option configures a sampler constructor.
type Option func(*config)

type config struct {
	src rand.Source
}

// WithSeed makes the sampler deterministic with a PCG source.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.src = rand.NewPCG(seed, seed)
	}
}

func buildConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rander is the draw interface all distuv distributions implement.
type rander interface {
	Rand() float64
}

type distSampler struct {
	dist rander
}

func (s *distSampler) Sample(n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Sample", "sample size must be positive")
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.dist.Rand()
	}
	return out, nil
}

// Normal creates a normal sampler with mean mu and standard deviation sigma.
func Normal(mu, sigma float64, opts ...Option) (Sampler, error) {
	if sigma <= 0 {
		return nil, errors.NewValidationError("sigma", "standard deviation must be positive", sigma)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Normal{Mu: mu, Sigma: sigma, Src: c.src}}, nil
}

// Uniform creates a uniform sampler on [min, max).
func Uniform(min, max float64, opts ...Option) (Sampler, error) {
	if min >= max {
		return nil, errors.NewValidationError("min", "lower bound must be below upper bound", min)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Uniform{Min: min, Max: max, Src: c.src}}, nil
}

// Exponential creates an exponential sampler with the given rate.
func Exponential(rate float64, opts ...Option) (Sampler, error) {
	if rate <= 0 {
		return nil, errors.NewValidationError("rate", "rate must be positive", rate)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Exponential{Rate: rate, Src: c.src}}, nil
}

// Gamma creates a gamma sampler with shape alpha and rate beta.
func Gamma(alpha, beta float64, opts ...Option) (Sampler, error) {
	if alpha <= 0 || beta <= 0 {
		return nil, errors.NewValidationError("alpha", "shape and rate must be positive", alpha)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Gamma{Alpha: alpha, Beta: beta, Src: c.src}}, nil
}

// Beta creates a beta sampler with shape parameters alpha and beta.
func Beta(alpha, beta float64, opts ...Option) (Sampler, error) {
	if alpha <= 0 || beta <= 0 {
		return nil, errors.NewValidationError("alpha", "shape parameters must be positive", alpha)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Beta{Alpha: alpha, Beta: beta, Src: c.src}}, nil
}

// LogNormal creates a log-normal sampler.
func LogNormal(mu, sigma float64, opts ...Option) (Sampler, error) {
	if sigma <= 0 {
		return nil, errors.NewValidationError("sigma", "standard deviation must be positive", sigma)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.LogNormal{Mu: mu, Sigma: sigma, Src: c.src}}, nil
}

// Weibull creates a Weibull sampler with shape k and scale lambda.
func Weibull(k, lambda float64, opts ...Option) (Sampler, error) {
	if k <= 0 || lambda <= 0 {
		return nil, errors.NewValidationError("k", "shape and scale must be positive", k)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Weibull{K: k, Lambda: lambda, Src: c.src}}, nil
}

// Poisson creates a Poisson sampler with mean lambda.
func Poisson(lambda float64, opts ...Option) (Sampler, error) {
	if lambda <= 0 {
		return nil, errors.NewValidationError("lambda", "mean must be positive", lambda)
	}
	c := buildConfig(opts)
	return &distSampler{dist: distuv.Poisson{Lambda: lambda, Src: c.src}}, nil
}

// Constant creates a sampler that always returns v. It is the scalar lift
// for arithmetic combinations.
func Constant(v float64) Sampler {
	return constantSampler(v)
}

type constantSampler float64

func (s constantSampler) Sample(n int) ([]float64, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Sample", "sample size must be positive")
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(s)
	}
	return out, nil
}
