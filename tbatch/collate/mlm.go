package collate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/ZanzyTHEbar/assert-lib"
	"gonum.org/v1/gonum/mat"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// MLMConfig fixes a MaskedLanguageModelCollator's behavior for its lifetime.
type MLMConfig struct {
	// EnableMasking selects stochastic masked-LM corruption; when false the
	// collator emits a plain full-sequence objective with pad positions
	// rewritten to IgnoreIndex.
	EnableMasking bool

	// MaskProbability is the per-position corruption rate, in (0, 1].
	MaskProbability float64

	// IgnoreIndex is the label sentinel excluded from loss computation.
	IgnoreIndex int64

	// MaskReplaceFraction is the fraction of masked positions whose input
	// token is rewritten to the mask token, in [0, 1]. Zero disables both
	// mask-token and random replacement: positions stay unchanged but scored.
	MaskReplaceFraction float64

	// RandomReplacement rewrites half of the masked-but-not-mask-token
	// positions to a uniformly sampled vocabulary id.
	RandomReplacement bool

	// RetainOriginalInput adds an unmasked_input_ids field carrying the
	// pre-corruption inputs.
	RetainOriginalInput bool
}

// MaskedLanguageModelCollator assembles masked-LM batches: stochastic
// three-way corruption of inputs (mask token / random token / unchanged) and
// loss targets that score only the corrupted positions. Inputs are assumed
// pre-aligned in length; planning variable widths sits upstream.
//
// The random source is an explicit generator owned by the instance, so a
// pool of workers can each hold a deterministically seeded collator with no
// shared mutable state. The zero collator is not usable; construct with
// NewMaskedLanguageModelCollator.
type MaskedLanguageModelCollator struct {
	cap    tokenizer.Capability
	cfg    MLMConfig
	rng    *rand.Rand
	assert *assert.AssertHandler
}

// NewMaskedLanguageModelCollator validates cfg and binds the collator to an
// explicit random source.
func NewMaskedLanguageModelCollator(cap tokenizer.Capability, cfg MLMConfig, rng *rand.Rand) (*MaskedLanguageModelCollator, error) {
	if cfg.EnableMasking {
		if cfg.MaskProbability < 0 || cfg.MaskProbability > 1 {
			return nil, fmt.Errorf("mask probability %v outside [0, 1]", cfg.MaskProbability)
		}
		if cfg.MaskReplaceFraction < 0 || cfg.MaskReplaceFraction > 1 {
			return nil, fmt.Errorf("mask replacement fraction %v outside [0, 1]", cfg.MaskReplaceFraction)
		}
		if cfg.RandomReplacement && cap.VocabSize() < 1 {
			return nil, fmt.Errorf("random replacement needs a non-empty vocabulary, got size %d", cap.VocabSize())
		}
	}
	if rng == nil {
		return nil, fmt.Errorf("masked-LM collation needs an explicit random source")
	}
	return &MaskedLanguageModelCollator{
		cap:    cap,
		cfg:    cfg,
		rng:    rng,
		assert: assert.NewAssertHandler(),
	}, nil
}

// WithRNG returns a copy of the collator bound to rng. Configuration is
// shared; the copy draws from its own generator.
func (c *MaskedLanguageModelCollator) WithRNG(rng *rand.Rand) *MaskedLanguageModelCollator {
	clone := *c
	clone.rng = rng
	return &clone
}

func (c *MaskedLanguageModelCollator) Collate(batch []Example) (*Result, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	width := len(batch[0].InputIDs)
	for i, ex := range batch {
		if ex.InputIDs == nil {
			return nil, missingField(i, FieldInputIDs)
		}
		if ex.AttentionMask == nil {
			return nil, missingField(i, FieldAttentionMask)
		}
		if len(ex.AttentionMask) != len(ex.InputIDs) {
			return nil, shapeMismatch(i, "attention_mask length differs from input_ids")
		}
		if ex.SpecialTokensMask != nil && len(ex.SpecialTokensMask) != len(ex.InputIDs) {
			return nil, shapeMismatch(i, "special_tokens_mask length differs from input_ids")
		}
		if len(ex.InputIDs) != width {
			return nil, shapeMismatch(i, "input_ids length differs across batch; align lengths upstream")
		}
	}

	inputs := make([][]int64, len(batch))
	masks := make([][]int64, len(batch))
	labels := make([][]int64, len(batch))
	var originals [][]int64
	if c.cfg.RetainOriginalInput {
		originals = make([][]int64, len(batch))
	}

	for i, ex := range batch {
		row := make([]int64, len(ex.InputIDs))
		copy(row, ex.InputIDs)
		if c.cfg.RetainOriginalInput {
			orig := make([]int64, len(row))
			copy(orig, row)
			originals[i] = orig
		}

		var labelRow []int64
		var err error
		if c.cfg.EnableMasking {
			labelRow, err = c.maskRow(row, ex.SpecialTokensMask)
			if err != nil {
				return nil, fmt.Errorf("example %d: %w", i, err)
			}
		} else {
			labelRow = c.causalLabels(row)
		}

		maskRow := make([]int64, len(ex.AttentionMask))
		copy(maskRow, ex.AttentionMask)

		inputs[i] = row
		masks[i] = maskRow
		labels[i] = labelRow
	}

	c.assert.Assert(context.Background(), len(inputs) == len(labels), "input and label row counts diverged")

	targets, err := stackNamedTargets(batch)
	if err != nil {
		return nil, err
	}

	fields := map[string][][]int64{
		FieldInputIDs:      inputs,
		FieldAttentionMask: masks,
		FieldLabels:        labels,
	}
	if c.cfg.RetainOriginalInput {
		fields[FieldUnmaskedInputIDs] = originals
	}

	slog.Debug("Collated masked-LM batch",
		"batch_size", len(batch),
		"width", width,
		"masking", c.cfg.EnableMasking,
		"aux_targets", len(targets))

	return &Result{Fields: fields, Targets: targets}, nil
}

// maskRow corrupts row in place and returns its loss targets. The three-way
// replacement policy: of the masked positions, MaskReplaceFraction get the
// mask token; half of the remainder get a random vocabulary id when
// RandomReplacement is on; the rest keep their original token but are still
// scored through their label entry.
func (c *MaskedLanguageModelCollator) maskRow(row []int64, specials []bool) ([]int64, error) {
	labelRow := make([]int64, len(row))
	copy(labelRow, row)

	if specials == nil {
		derived, err := c.cap.SpecialTokensMask(row)
		if err != nil {
			return nil, fmt.Errorf("deriving special tokens mask: %w: %w", ErrCapabilityUnavailable, err)
		}
		specials = derived
	}

	masked := c.bernoulli(len(row), c.cfg.MaskProbability, specials)

	for i := range labelRow {
		if !masked.Contains(uint32(i)) {
			labelRow[i] = c.cfg.IgnoreIndex
		}
	}

	if c.cfg.MaskReplaceFraction > 0 {
		replaced := c.bernoulli(len(row), c.cfg.MaskReplaceFraction, nil)
		replaced.And(masked)
		maskID := c.cap.MaskTokenID()
		replaced.Iterate(func(pos uint32) bool {
			row[pos] = maskID
			return true
		})

		if c.cfg.RandomReplacement {
			random := c.bernoulli(len(row), 0.5, nil)
			random.And(masked)
			random.AndNot(replaced)
			vocab := int64(c.cap.VocabSize())
			random.Iterate(func(pos uint32) bool {
				row[pos] = c.rng.Int64N(vocab)
				return true
			})
		}
	}

	return labelRow, nil
}

// causalLabels clones row and excludes pad positions from the loss.
func (c *MaskedLanguageModelCollator) causalLabels(row []int64) []int64 {
	labelRow := make([]int64, len(row))
	padID := c.cap.PadTokenID()
	for i, id := range row {
		if id == padID {
			labelRow[i] = c.cfg.IgnoreIndex
		} else {
			labelRow[i] = id
		}
	}
	return labelRow
}

// bernoulli draws one independent trial per position at probability p and
// returns the successes as a position bitmap. Positions flagged in skip
// never succeed.
func (c *MaskedLanguageModelCollator) bernoulli(n int, p float64, skip []bool) *roaring.Bitmap {
	out := roaring.New()
	for i := range n {
		if skip != nil && skip[i] {
			continue
		}
		if c.rng.Float64() < p {
			out.Add(uint32(i))
		}
	}
	return out
}

// stackNamedTargets aggregates auxiliary-target mappings per key across the
// batch, preserving batch order. Every targeted example must carry the same
// key set with matching dimensions.
func stackNamedTargets(batch []Example) (map[string]*mat.Dense, error) {
	rows := make(map[string][][]float64)
	targeted := 0
	for i, ex := range batch {
		if ex.Target == nil || ex.Target.Named == nil {
			continue
		}
		targeted++
		for k, v := range ex.Target.Named {
			if len(v) == 0 {
				return nil, shapeMismatch(i, fmt.Sprintf("auxiliary target %q is empty", k))
			}
			rows[k] = append(rows[k], v)
		}
	}
	if targeted == 0 {
		return nil, nil
	}

	out := make(map[string]*mat.Dense, len(rows))
	for k, vs := range rows {
		if len(vs) != targeted {
			return nil, shapeMismatch(0, fmt.Sprintf("auxiliary target %q missing on some examples", k))
		}
		dim := len(vs[0])
		m := mat.NewDense(len(vs), dim, nil)
		for i, v := range vs {
			if len(v) != dim {
				return nil, shapeMismatch(i, fmt.Sprintf("auxiliary target %q dimension differs across batch", k))
			}
			m.SetRow(i, v)
		}
		out[k] = m
	}
	return out, nil
}
