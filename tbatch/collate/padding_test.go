package collate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

func TestPadRight(t *testing.T) {
	out, err := pad([]int64{5, 6, 7}, 5, 0, tokenizer.PadRight)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7, 0, 0}, out)
}

func TestPadLeft(t *testing.T) {
	out, err := pad([]int64{5, 6, 7}, 5, -100, tokenizer.PadLeft)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100, -100, 5, 6, 7}, out)
}

func TestPadExactWidth(t *testing.T) {
	seq := []int64{1, 2, 3}
	out, err := pad(seq, 3, 0, tokenizer.PadRight)
	require.NoError(t, err)
	assert.Equal(t, seq, out)

	// Returned slice must be new, not an alias of the input.
	out[0] = 99
	assert.Equal(t, int64(1), seq[0])
}

func TestPadNeverTruncates(t *testing.T) {
	_, err := pad([]int64{1, 2, 3}, 2, 0, tokenizer.PadRight)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPlanWidthTakesBatchMax(t *testing.T) {
	batch := []Example{
		{InputIDs: []int64{1, 2, 3}},
		{InputIDs: []int64{1}},
		{InputIDs: []int64{1, 2, 3, 4, 5}},
	}
	width, err := planWidth(batch, func(ex Example) []int64 { return ex.InputIDs })
	require.NoError(t, err)
	assert.Equal(t, 5, width)
}

func TestPlanWidthEmptyBatch(t *testing.T) {
	_, err := planWidth(nil, func(ex Example) []int64 { return ex.InputIDs })
	assert.ErrorIs(t, err, ErrEmptyBatch)
}
