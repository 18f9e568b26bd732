package research

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Cadence controls at which experiment iterations an executable unit runs.
// Specs follow the original notation:
//
//	""          every iteration
//	"%100"      every 100th iteration
//	"57"        iteration 57 only
//	"last"      the final iteration only
//	"%100,last" any combination, comma-separated
//
// Iterations are counted from 1.
type Cadence struct {
	everyAll bool
	every    []int
	at       []int
	last     bool
}

// EveryIteration is the default cadence.
func EveryIteration() Cadence {
	return Cadence{everyAll: true}
}

// ParseCadence parses a cadence spec string.
func ParseCadence(spec string) (Cadence, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return EveryIteration(), nil
	}

	var c Cadence
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "last":
			c.last = true
		case strings.HasPrefix(part, "%"):
			n, err := strconv.Atoi(part[1:])
			if err != nil || n <= 0 {
				return Cadence{}, errors.NewValueError("ParseCadence", "invalid period in spec: "+part)
			}
			c.every = append(c.every, n)
		default:
			n, err := strconv.Atoi(part)
			if err != nil || n <= 0 {
				return Cadence{}, errors.NewValueError("ParseCadence", "invalid iteration in spec: "+part)
			}
			c.at = append(c.at, n)
		}
	}
	return c, nil
}

// Matches reports whether a unit with this cadence runs at iteration iter
// (1-based) of a run with lastIter iterations total.
func (c Cadence) Matches(iter, lastIter int) bool {
	if c.everyAll {
		return true
	}
	if c.last && iter == lastIter {
		return true
	}
	for _, n := range c.every {
		if iter%n == 0 {
			return true
		}
	}
	for _, n := range c.at {
		if iter == n {
			return true
		}
	}
	return false
}
