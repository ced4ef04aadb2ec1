package pipeline

import (
	"context"
	"fmt"
	"sync"

	"pisaresilience/domain/dataset"
	"pisaresilience/internal/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Outcome is the result of one plausible-value index in a batch.
type Outcome struct {
	Index  int
	Result *Result
	Err    error
}

// BatchRunner runs several plausible-value indices over the same input.
// Each index is isolated: its failure, or panic, is recorded in its own
// Outcome and never stops the others.
type BatchRunner struct {
	base     Options
	codebook *dataset.Codebook
	logger   *zap.Logger
	sem      *semaphore.Weighted
}

// NewBatchRunner runs at most workers indices at a time (minimum 1).
func NewBatchRunner(base Options, codebook *dataset.Codebook, logger *zap.Logger, workers int) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchRunner{
		base:     base,
		codebook: codebook,
		logger:   logger.Named("batch"),
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// Run returns one Outcome per index, in the order given. The input is shared
// read-only between runs.
func (b *BatchRunner) Run(ctx context.Context, in dataset.Input, indices []int) []Outcome {
	outcomes := make([]Outcome, len(indices))
	var wg sync.WaitGroup

	for i, k := range indices {
		outcomes[i].Index = k
		if err := b.sem.Acquire(ctx, 1); err != nil {
			outcomes[i].Err = errors.Wrapf(err, "pv %d not started", k)
			continue
		}
		wg.Add(1)
		go func(slot, k int) {
			defer wg.Done()
			defer b.sem.Release(1)
			outcomes[slot].Result, outcomes[slot].Err = b.runOne(in, k)
		}(i, k)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			b.logger.Error("run failed", zap.Int("pv", o.Index), zap.Error(o.Err))
		}
	}
	return outcomes
}

func (b *BatchRunner) runOne(in dataset.Input, k int) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.InternalError(fmt.Sprintf("pv %d panicked: %v", k, r))
		}
	}()

	opts := b.base
	opts.PlausibleValueIndex = k
	p, err := New(opts, b.codebook, b.logger)
	if err != nil {
		return nil, err
	}
	return p.Run(in)
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
