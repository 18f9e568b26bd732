package dataset

import (
	"math/rand/v2"
	"sync"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// BatchGenerator yields successive batches of ids from an index, reshuffling
// per epoch when requested. It is safe for use from a single pipeline run;
// Reset makes a generator reusable across runs.
type BatchGenerator struct {
	mu sync.Mutex

	index     *Index
	batchSize int
	shuffle   bool
	nEpochs   int // 0 means no epoch bound
	dropLast  bool
	seed      uint64

	order []int
	pos   int
	epoch int
}

// GeneratorOption configures a BatchGenerator.
type GeneratorOption func(*BatchGenerator)

// WithShuffle reshuffles the order at the start of every epoch with a
// deterministic per-epoch seed derived from seed.
func WithShuffle(seed uint64) GeneratorOption {
	return func(g *BatchGenerator) {
		g.shuffle = true
		g.seed = seed
	}
}

// WithNEpochs bounds the generator to n passes over the index. Zero means
// unbounded (the original's n_epochs=None).
func WithNEpochs(n int) GeneratorOption {
	return func(g *BatchGenerator) {
		g.nEpochs = n
	}
}

// WithDropLast drops a trailing batch smaller than the batch size.
func WithDropLast() GeneratorOption {
	return func(g *BatchGenerator) {
		g.dropLast = true
	}
}

// NewBatchGenerator creates a generator over ix with the given batch size.
func NewBatchGenerator(ix *Index, batchSize int, opts ...GeneratorOption) (*BatchGenerator, error) {
	if ix == nil || ix.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.NewBatchGenerator")
	}
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batchSize", "batch size must be positive", batchSize)
	}

	g := &BatchGenerator{
		index:     ix,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	// With drop-last a batch size beyond the index can never yield a batch,
	// so an unbounded generator would spin through empty epochs forever.
	if g.dropLast && batchSize > ix.Len() {
		return nil, errors.NewValidationError("batchSize",
			"batch size exceeds index length with drop-last", batchSize)
	}
	g.startEpoch()
	return g, nil
}

// Next returns the next batch of ids. It returns errors.ErrStopIteration
// once the epoch budget is exhausted.
func (g *BatchGenerator) Next() ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		if g.nEpochs > 0 && g.epoch >= g.nEpochs {
			return nil, errors.Wrap(errors.ErrStopIteration, "dataset.BatchGenerator")
		}

		remaining := len(g.order) - g.pos
		if remaining == 0 || (g.dropLast && remaining < g.batchSize) {
			g.epoch++
			if g.nEpochs > 0 && g.epoch >= g.nEpochs {
				return nil, errors.Wrap(errors.ErrStopIteration, "dataset.BatchGenerator")
			}
			g.startEpoch()
			continue
		}

		size := g.batchSize
		if remaining < size {
			size = remaining
		}
		batch := make([]int, size)
		copy(batch, g.order[g.pos:g.pos+size])
		g.pos += size
		return batch, nil
	}
}

// Epoch returns the number of completed passes over the index.
func (g *BatchGenerator) Epoch() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch
}

// Reset rewinds the generator to the beginning of epoch zero.
func (g *BatchGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch = 0
	g.startEpoch()
}

func (g *BatchGenerator) startEpoch() {
	g.order = g.index.IDs()
	if g.shuffle {
		// Vary the permutation per epoch but keep it reproducible.
		seed := g.seed + uint64(g.epoch)
		r := rand.New(rand.NewPCG(seed, seed))
		r.Shuffle(len(g.order), func(i, j int) {
			g.order[i], g.order[j] = g.order[j], g.order[i]
		})
	}
	g.pos = 0
}
