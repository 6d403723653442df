package collate

import (
	"log/slog"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// SeqToSeqCollator pads supervised sequence-to-sequence batches. Inputs and
// labels are planned independently: input_ids and attention_mask share the
// longest input width, labels get the longest label width, and the two may
// differ within one batch.
type SeqToSeqCollator struct {
	cap         tokenizer.Capability
	ignoreIndex int64
}

// NewSeqToSeqCollator builds a collator filling id padding with the
// tokenizer's pad token and label padding with ignoreIndex.
func NewSeqToSeqCollator(cap tokenizer.Capability, ignoreIndex int64) *SeqToSeqCollator {
	return &SeqToSeqCollator{cap: cap, ignoreIndex: ignoreIndex}
}

// Collate pads the batch in two passes: plan the per-group widths, then fill
// every row to its group's width on the configured side.
func (c *SeqToSeqCollator) Collate(batch []Example) (*Result, error) {
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
		if ex.Labels == nil {
			return nil, missingField(i, FieldLabels)
		}
		if len(ex.AttentionMask) != len(ex.InputIDs) {
			return nil, shapeMismatch(i, "attention_mask length differs from input_ids")
		}
	}

	inputWidth, err := planWidth(batch, func(ex Example) []int64 { return ex.InputIDs })
	if err != nil {
		return nil, err
	}
	labelWidth, err := planWidth(batch, func(ex Example) []int64 { return ex.Labels })
	if err != nil {
		return nil, err
	}

	side := c.cap.PaddingSide()
	padID := c.cap.PadTokenID()

	inputs := make([][]int64, len(batch))
	masks := make([][]int64, len(batch))
	labels := make([][]int64, len(batch))
	for i, ex := range batch {
		if inputs[i], err = pad(ex.InputIDs, inputWidth, padID, side); err != nil {
			return nil, err
		}
		if masks[i], err = pad(ex.AttentionMask, inputWidth, 0, side); err != nil {
			return nil, err
		}
		if labels[i], err = pad(ex.Labels, labelWidth, c.ignoreIndex, side); err != nil {
			return nil, err
		}
	}

	slog.Debug("Collated seq2seq batch",
		"batch_size", len(batch),
		"input_width", inputWidth,
		"label_width", labelWidth)

	return &Result{
		Fields: map[string][][]int64{
			FieldInputIDs:      inputs,
			FieldAttentionMask: masks,
			FieldLabels:        labels,
		},
	}, nil
}
