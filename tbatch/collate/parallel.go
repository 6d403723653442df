package collate

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// SeededCollator constructs a collator bound to a deterministic seed.
// Distinct batches get distinct seeds, so parallel collation reproduces the
// exact same draws regardless of scheduling.
type SeededCollator func(seed uint64) (Collator, error)

// Fixed adapts a deterministic collator (seq2seq, longest-sequence) to the
// SeededCollator contract; the seed is irrelevant for those policies.
func Fixed(c Collator) SeededCollator {
	return func(uint64) (Collator, error) { return c, nil }
}

// SeededMLM builds masked-LM collators whose generator is seeded from
// baseSeed and the per-batch seed, PCG-style.
func SeededMLM(cap tokenizer.Capability, cfg MLMConfig, baseSeed uint64) SeededCollator {
	return func(seed uint64) (Collator, error) {
		return NewMaskedLanguageModelCollator(cap, cfg, rand.New(rand.NewPCG(baseSeed, seed)))
	}
}

// CollateAll collates many independent batches on a bounded worker pool.
// Results come back in input order. Collation calls have no ordering
// dependency on each other, so any interleaving is valid; the first error
// cancels the remaining work.
func CollateAll(ctx context.Context, newCollator SeededCollator, batches [][]Example, maxWorkers int) ([]*Result, error) {
	if maxWorkers <= 0 {
		maxWorkers = min(max(runtime.NumCPU(), 2), 32)
	}

	runID := uuid.New()
	slog.Debug("Starting parallel collation",
		"run_id", runID,
		"batches", len(batches),
		"workers", maxWorkers)

	results := make([]*Result, len(batches))
	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx).WithCancelOnError()

	for i, batch := range batches {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := newCollator(uint64(i))
			if err != nil {
				return err
			}
			res, err := c.Collate(batch)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		slog.Error("Parallel collation failed", "run_id", runID, "error", err)
		return nil, err
	}

	slog.Debug("Parallel collation finished", "run_id", runID, "batches", len(batches))
	return results, nil
}
