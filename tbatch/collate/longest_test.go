package collate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

func longestCap(t *testing.T, side tokenizer.Side) *tokenizer.Static {
	t.Helper()
	cap, err := tokenizer.NewStatic(0, 103, 30522, side, nil)
	require.NoError(t, err)
	return cap
}

func TestLongestSequencePadsToSharedWidth(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	res, err := c.Collate([]Example{
		Plain([]int64{7, 8, 9, 10}, []int64{1, 1, 1, 1}),
		Plain([]int64{7}, []int64{1}),
	})
	require.NoError(t, err)

	assert.Equal(t, [][]int64{{7, 8, 9, 10}, {7, 0, 0, 0}}, res.Fields[FieldInputIDs])
	assert.Equal(t, [][]int64{{1, 1, 1, 1}, {1, 0, 0, 0}}, res.Fields[FieldAttentionMask])
	assert.Nil(t, res.Labels)
}

func TestLongestSequenceStacksTargets(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	res, err := c.Collate([]Example{
		WithTarget([]int64{7, 8}, []int64{1, 1}, []float64{0}),
		WithTarget([]int64{9}, []int64{1}, []float64{1}),
	})
	require.NoError(t, err)

	require.NotNil(t, res.Labels)
	rows, cols := res.Labels.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 0.0, res.Labels.At(0, 0))
	assert.Equal(t, 1.0, res.Labels.At(1, 0))
}

func TestLongestSequenceVectorTargets(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	res, err := c.Collate([]Example{
		WithTarget([]int64{7}, []int64{1}, []float64{0.1, 0.9}),
		WithTarget([]int64{9}, []int64{1}, []float64{0.7, 0.3}),
	})
	require.NoError(t, err)

	rows, cols := res.Labels.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 0.9, res.Labels.At(0, 1))
}

func TestLongestSequencePartialTargetsFail(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	_, err := c.Collate([]Example{
		WithTarget([]int64{7}, []int64{1}, []float64{0}),
		Plain([]int64{9}, []int64{1}),
	})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLongestSequenceRaggedTargetsFail(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	_, err := c.Collate([]Example{
		WithTarget([]int64{7}, []int64{1}, []float64{0, 1}),
		WithTarget([]int64{9}, []int64{1}, []float64{0}),
	})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLongestSequenceLeftPadding(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadLeft))
	res, err := c.Collate([]Example{
		Plain([]int64{7, 8, 9}, []int64{1, 1, 1}),
		Plain([]int64{7}, []int64{1}),
	})
	require.NoError(t, err)

	assert.Equal(t, [][]int64{{7, 8, 9}, {0, 0, 7}}, res.Fields[FieldInputIDs])
	assert.Equal(t, [][]int64{{1, 1, 1}, {0, 0, 1}}, res.Fields[FieldAttentionMask])
}

func TestLongestSequenceEmptyBatch(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	_, err := c.Collate([]Example{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestLongestSequenceMissingInputIDs(t *testing.T) {
	c := NewLongestSequenceCollator(longestCap(t, tokenizer.PadRight))
	_, err := c.Collate([]Example{{AttentionMask: []int64{1}}})
	assert.ErrorIs(t, err, ErrMissingField)
}
