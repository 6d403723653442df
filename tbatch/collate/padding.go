package collate

import (
	"fmt"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// pad returns a new sequence of exactly width elements: seq preserved
// contiguously and in order, fill elements appended (right) or prepended
// (left). Truncation is a contract violation, never silent.
func pad(seq []int64, width int, fill int64, side tokenizer.Side) ([]int64, error) {
	if width < len(seq) {
		return nil, fmt.Errorf("target width %d shorter than sequence length %d: %w", width, len(seq), ErrShapeMismatch)
	}
	out := make([]int64, width)
	if side == tokenizer.PadLeft {
		offset := width - len(seq)
		for i := range offset {
			out[i] = fill
		}
		copy(out[offset:], seq)
		return out, nil
	}
	copy(out, seq)
	for i := len(seq); i < width; i++ {
		out[i] = fill
	}
	return out, nil
}

// planWidth computes the shared target width for one planning group: the
// maximum raw length of field across the batch. Fields co-padded to a single
// length (input_ids with attention_mask) share one plan; independently sized
// fields (seq2seq labels) get their own.
func planWidth(batch []Example, field func(Example) []int64) (int, error) {
	if len(batch) == 0 {
		return 0, ErrEmptyBatch
	}
	width := 0
	for _, ex := range batch {
		if n := len(field(ex)); n > width {
			width = n
		}
	}
	return width, nil
}
