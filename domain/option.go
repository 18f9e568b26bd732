// Package domain models hyperparameter domains: named options, each
// enumerating candidate values, combined into cross-products that drive one
// configuration per experiment.
package domain

import (
	"fmt"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Option pairs a name with an ordered sequence of candidate values.
type Option struct {
	name   string
	values []interface{}
}

// ValueSampler is the subset of sampler.Sampler the domain package needs.
// It is declared locally so domain does not depend on the sampler package.
type ValueSampler interface {
	Sample(n int) ([]float64, error)
}

// NewOption creates an option from explicit candidate values.
func NewOption(name string, values ...interface{}) (*Option, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "option name must not be empty", name)
	}
	if len(values) == 0 {
		return nil, errors.NewValidationError("values", "option needs at least one candidate value", values)
	}
	vals := make([]interface{}, len(values))
	copy(vals, values)
	return &Option{name: name, values: vals}, nil
}

// MustOption is NewOption that panics on invalid input. Intended for grid
// literals in examples and tests.
func MustOption(name string, values ...interface{}) *Option {
	o, err := NewOption(name, values...)
	if err != nil {
		panic(err)
	}
	return o
}

// OptionFromSampler draws n candidate values from a sampler.
func OptionFromSampler(name string, s ValueSampler, n int) (*Option, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("n", "sample count must be positive", n)
	}
	draws, err := s.Sample(n)
	if err != nil {
		return nil, errors.Wrapf(err, "sampling candidate values for option %q", name)
	}
	values := make([]interface{}, len(draws))
	for i, v := range draws {
		values[i] = v
	}
	return NewOption(name, values...)
}

// Name returns the option name.
func (o *Option) Name() string { return o.name }

// Values returns a copy of the candidate values.
func (o *Option) Values() []interface{} {
	vals := make([]interface{}, len(o.values))
	copy(vals, o.values)
	return vals
}

// Len returns the number of candidate values.
func (o *Option) Len() int { return len(o.values) }

func (o *Option) String() string {
	return fmt.Sprintf("Option(%s, %v)", o.name, o.values)
}
