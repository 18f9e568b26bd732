package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Config is one named assignment per option: the unit of work a research
// run hands to a pipeline.
type Config struct {
	values map[string]interface{}
}

// NewConfig creates a configuration from a name->value map.
func NewConfig(values map[string]interface{}) Config {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Config{values: m}
}

// Get returns the value for an option name.
func (c Config) Get(name string) (interface{}, bool) {
	v, ok := c.values[name]
	return v, ok
}

// String returns the value for name as a string, or def when absent.
func (c Config) String(name, def string) string {
	if v, ok := c.values[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return def
}

// Int returns the value for name as an int, or def when absent or of a
// different type.
func (c Config) Int(name string, def int) int {
	switch v := c.values[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float returns the value for name as a float64, or def when absent or of a
// different type.
func (c Config) Float(name string, def float64) float64 {
	switch v := c.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Names returns the option names in sorted order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of assigned options.
func (c Config) Len() int { return len(c.values) }

// Map returns a copy of the underlying assignments.
func (c Config) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		m[k] = v
	}
	return m
}

// Alias returns the deterministic identity string of the configuration:
// sorted "name=value" pairs joined by "/". Result rows are keyed by it.
func (c Config) Alias() string {
	names := c.Names()
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%v", name, c.values[name])
	}
	return strings.Join(parts, "/")
}

// JSON renders the configuration as a JSON object with sorted keys.
func (c Config) JSON() (string, error) {
	b, err := json.Marshal(c.values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// merged returns a new Config with assignments from both configs. The caller
// guarantees disjoint option names.
func (c Config) merged(other Config) Config {
	m := make(map[string]interface{}, len(c.values)+len(other.values))
	for k, v := range c.values {
		m[k] = v
	}
	for k, v := range other.values {
		m[k] = v
	}
	return Config{values: m}
}
