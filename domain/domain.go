package domain

import (
	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Domain is a set of configurations, usually the Cartesian product of
// options. A research run executes its pipelines once per configuration
// (times the repetition count).
type Domain struct {
	configs []Config
}

// New builds a domain as the cross-product of the given options. With no
// options the domain is empty.
func New(opts ...*Option) (*Domain, error) {
	d := &Domain{}
	for _, o := range opts {
		od, err := FromOption(o)
		if err != nil {
			return nil, err
		}
		d, err = d.Mul(od)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// FromOption lifts a single option into a domain with one configuration per
// candidate value.
func FromOption(o *Option) (*Domain, error) {
	if o == nil {
		return nil, errors.NewValidationError("option", "option must not be nil", nil)
	}
	configs := make([]Config, o.Len())
	for i, v := range o.values {
		configs[i] = NewConfig(map[string]interface{}{o.name: v})
	}
	return &Domain{configs: configs}, nil
}

// FromConfigs builds a domain from explicit configurations, e.g. the output
// of an update callback that narrowed the search to the best candidates.
func FromConfigs(configs ...Config) *Domain {
	cs := make([]Config, len(configs))
	copy(cs, configs)
	return &Domain{configs: cs}
}

// Mul returns the Cartesian product of two domains, the notebook's
// Option('a', ...) * Option('b', ...). An empty domain acts as the identity.
// Overlapping option names are a validation error.
func (d *Domain) Mul(other *Domain) (*Domain, error) {
	if other == nil || other.Size() == 0 {
		return d.clone(), nil
	}
	if d.Size() == 0 {
		return other.clone(), nil
	}

	// Check the union of option names on each side: Add-built domains may
	// hold configs with differing option sets, so one config is not
	// representative.
	names := make(map[string]bool)
	for _, c := range d.configs {
		for _, name := range c.Names() {
			names[name] = true
		}
	}
	for _, c := range other.configs {
		for _, name := range c.Names() {
			if names[name] {
				return nil, errors.NewValidationError("option", "duplicate option name in product", name)
			}
		}
	}

	configs := make([]Config, 0, len(d.configs)*len(other.configs))
	for _, a := range d.configs {
		for _, b := range other.configs {
			configs = append(configs, a.merged(b))
		}
	}
	return &Domain{configs: configs}, nil
}

// Add returns the union of the two domains' configuration sequences, the
// original's grid1 + grid2. Configurations keep their own option sets.
func (d *Domain) Add(other *Domain) *Domain {
	if other == nil {
		return d.clone()
	}
	configs := make([]Config, 0, len(d.configs)+len(other.configs))
	configs = append(configs, d.configs...)
	configs = append(configs, other.configs...)
	return &Domain{configs: configs}
}

// Size returns the number of configurations.
func (d *Domain) Size() int {
	if d == nil {
		return 0
	}
	return len(d.configs)
}

// IsEmpty reports whether the domain holds no configurations.
func (d *Domain) IsEmpty() bool { return d.Size() == 0 }

// Configs returns a copy of all configurations in order.
func (d *Domain) Configs() []Config {
	configs := make([]Config, len(d.configs))
	copy(configs, d.configs)
	return configs
}

// At returns the i-th configuration.
func (d *Domain) At(i int) (Config, error) {
	if i < 0 || i >= len(d.configs) {
		return Config{}, errors.NewValueError("Domain.At", "configuration index out of range")
	}
	return d.configs[i], nil
}

func (d *Domain) clone() *Domain {
	if d == nil {
		return &Domain{}
	}
	configs := make([]Config, len(d.configs))
	copy(configs, d.configs)
	return &Domain{configs: configs}
}
