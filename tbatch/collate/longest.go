package collate

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// LongestSequenceCollator pads input_ids and attention_mask to the longest
// input in the batch. Examples carrying a plain target value get those
// values stacked, in batch order, into Result.Labels; batches with no
// targets leave it nil. Either way the call returns one Result shape.
type LongestSequenceCollator struct {
	cap tokenizer.Capability
}

func NewLongestSequenceCollator(cap tokenizer.Capability) *LongestSequenceCollator {
	return &LongestSequenceCollator{cap: cap}
}

func (c *LongestSequenceCollator) Collate(batch []Example) (*Result, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
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
	}

	width, err := planWidth(batch, func(ex Example) []int64 { return ex.InputIDs })
	if err != nil {
		return nil, err
	}

	side := c.cap.PaddingSide()
	padID := c.cap.PadTokenID()

	inputs := make([][]int64, len(batch))
	masks := make([][]int64, len(batch))
	for i, ex := range batch {
		if inputs[i], err = pad(ex.InputIDs, width, padID, side); err != nil {
			return nil, err
		}
		if masks[i], err = pad(ex.AttentionMask, width, 0, side); err != nil {
			return nil, err
		}
	}

	labels, err := stackPlainTargets(batch)
	if err != nil {
		return nil, err
	}

	slog.Debug("Collated longest-sequence batch",
		"batch_size", len(batch),
		"input_width", width,
		"has_labels", labels != nil)

	return &Result{
		Fields: map[string][][]int64{
			FieldInputIDs:      inputs,
			FieldAttentionMask: masks,
		},
		Labels: labels,
	}, nil
}

// stackPlainTargets stacks per-example plain target values into a dense
// [batch_size, target_dim] matrix. Returns nil when no example carried one;
// a batch where only some examples carry a target is a shape error.
func stackPlainTargets(batch []Example) (*mat.Dense, error) {
	count := 0
	dim := -1
	for i, ex := range batch {
		if ex.Target == nil || ex.Target.Value == nil {
			continue
		}
		count++
		if dim == -1 {
			dim = len(ex.Target.Value)
		} else if len(ex.Target.Value) != dim {
			return nil, shapeMismatch(i, "target value dimension differs across batch")
		}
	}
	if count == 0 {
		return nil, nil
	}
	if count != len(batch) {
		return nil, shapeMismatch(0, "only part of the batch carries target values")
	}
	if dim == 0 {
		return nil, shapeMismatch(0, "target value is empty")
	}

	out := mat.NewDense(len(batch), dim, nil)
	for i, ex := range batch {
		out.SetRow(i, ex.Target.Value)
	}
	return out, nil
}
