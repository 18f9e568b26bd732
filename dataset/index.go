// Package dataset provides the index and batching layer pipelines iterate
// over: ordered item ids, train/test splits, and epoch-bounded batch
// generation.
package dataset

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// Index is an ordered collection of item ids.
type Index struct {
	ids []int
}

// New creates an index over ids 0..n-1.
func New(n int) (*Index, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("n", "index size must be positive", n)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return &Index{ids: ids}, nil
}

// FromIDs creates an index over explicit ids.
func FromIDs(ids []int) (*Index, error) {
	if len(ids) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.FromIDs")
	}
	cp := make([]int, len(ids))
	copy(cp, ids)
	return &Index{ids: cp}, nil
}

// Len returns the number of ids.
func (ix *Index) Len() int { return len(ix.ids) }

// IDs returns a copy of the ids in order.
func (ix *Index) IDs() []int {
	cp := make([]int, len(ix.ids))
	copy(cp, ix.ids)
	return cp
}

// Shuffled returns a new index with the ids shuffled by a seeded PCG.
func (ix *Index) Shuffled(seed uint64) *Index {
	cp := ix.IDs()
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(cp), func(i, j int) {
		cp[i], cp[j] = cp[j], cp[i]
	})
	return &Index{ids: cp}
}

// Split partitions the index into contiguous sub-indices with the given
// shares. Shares must be positive and sum to at most 1; a remainder share is
// appended automatically when the sum is below 1.
//
//	train, test, err := ix.Split(0.8)        // 80/20
//	a, b, c, err := ix.Split(0.6, 0.2)       // 60/20/20
func (ix *Index) Split(shares ...float64) ([]*Index, error) {
	if len(shares) == 0 {
		return nil, errors.NewValueError("Index.Split", "at least one share is required")
	}

	total := 0.0
	for _, s := range shares {
		if s <= 0 || s >= 1 {
			return nil, errors.NewValidationError("shares", "each share must be in (0, 1)", s)
		}
		total += s
	}
	if total > 1.0+1e-9 {
		return nil, errors.NewValidationError("shares", "shares must sum to at most 1", total)
	}
	if total < 1.0-1e-9 {
		shares = append(append([]float64{}, shares...), 1.0-total)
	}

	n := len(ix.ids)
	out := make([]*Index, 0, len(shares))
	start := 0
	for i, s := range shares {
		size := int(s * float64(n))
		if i == len(shares)-1 {
			size = n - start // absorb rounding into the last split
		}
		if size <= 0 {
			return nil, errors.NewValueError("Index.Split", "a split would be empty; index too small for these shares")
		}
		ids := make([]int, size)
		copy(ids, ix.ids[start:start+size])
		out = append(out, &Index{ids: ids})
		start += size
	}
	return out, nil
}
