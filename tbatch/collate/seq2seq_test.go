package collate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/typhon-ml/tensorbatch/tbatch/tokenizer"
)

// SeqToSeqSuite exercises the independent input/label planning policy.
type SeqToSeqSuite struct {
	suite.Suite
	cap *tokenizer.Static
}

func TestSeqToSeqSuite(t *testing.T) {
	suite.Run(t, new(SeqToSeqSuite))
}

func (s *SeqToSeqSuite) SetupTest() {
	cap, err := tokenizer.NewStatic(0, 103, 30522, tokenizer.PadRight, nil)
	require.NoError(s.T(), err)
	s.cap = cap
}

func (s *SeqToSeqSuite) twoExampleBatch() []Example {
	return []Example{
		{
			InputIDs:      []int64{5, 6, 7},
			AttentionMask: []int64{1, 1, 1},
			Labels:        []int64{1, 2},
		},
		{
			InputIDs:      []int64{5, 6},
			AttentionMask: []int64{1, 1},
			Labels:        []int64{1, 2, 3, 4},
		},
	}
}

func (s *SeqToSeqSuite) TestIndependentPlanning() {
	c := NewSeqToSeqCollator(s.cap, -100)
	res, err := c.Collate(s.twoExampleBatch())
	require.NoError(s.T(), err)

	assert.Equal(s.T(), [][]int64{{5, 6, 7}, {5, 6, 0}}, res.Fields[FieldInputIDs])
	assert.Equal(s.T(), [][]int64{{1, 1, 1}, {1, 1, 0}}, res.Fields[FieldAttentionMask])
	assert.Equal(s.T(), [][]int64{{1, 2, -100, -100}, {1, 2, 3, 4}}, res.Fields[FieldLabels])

	// Input and label widths are planned separately and may differ.
	assert.Equal(s.T(), 3, res.Width(FieldInputIDs))
	assert.Equal(s.T(), 4, res.Width(FieldLabels))
	assert.Nil(s.T(), res.Labels)
	assert.Nil(s.T(), res.Targets)
}

func (s *SeqToSeqSuite) TestLeftPadding() {
	cap, err := tokenizer.NewStatic(0, 103, 30522, tokenizer.PadLeft, nil)
	require.NoError(s.T(), err)

	c := NewSeqToSeqCollator(cap, -100)
	res, err := c.Collate(s.twoExampleBatch())
	require.NoError(s.T(), err)

	// The fill block moves to the opposite end; token order is untouched.
	assert.Equal(s.T(), [][]int64{{5, 6, 7}, {0, 5, 6}}, res.Fields[FieldInputIDs])
	assert.Equal(s.T(), [][]int64{{1, 1, 1}, {0, 1, 1}}, res.Fields[FieldAttentionMask])
	assert.Equal(s.T(), [][]int64{{-100, -100, 1, 2}, {1, 2, 3, 4}}, res.Fields[FieldLabels])
}

func (s *SeqToSeqSuite) TestDeterminism() {
	c := NewSeqToSeqCollator(s.cap, -100)
	first, err := c.Collate(s.twoExampleBatch())
	require.NoError(s.T(), err)
	second, err := c.Collate(s.twoExampleBatch())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first, second)
}

func (s *SeqToSeqSuite) TestInputsNotMutated() {
	batch := s.twoExampleBatch()
	c := NewSeqToSeqCollator(s.cap, -100)
	_, err := c.Collate(batch)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []int64{5, 6}, batch[1].InputIDs)
	assert.Equal(s.T(), []int64{1, 2}, batch[0].Labels)
}

func (s *SeqToSeqSuite) TestEmptyBatch() {
	c := NewSeqToSeqCollator(s.cap, -100)
	_, err := c.Collate(nil)
	assert.ErrorIs(s.T(), err, ErrEmptyBatch)
}

func (s *SeqToSeqSuite) TestMissingFields() {
	c := NewSeqToSeqCollator(s.cap, -100)

	_, err := c.Collate([]Example{{AttentionMask: []int64{1}, Labels: []int64{1}}})
	assert.ErrorIs(s.T(), err, ErrMissingField)

	_, err = c.Collate([]Example{{InputIDs: []int64{1}, Labels: []int64{1}}})
	assert.ErrorIs(s.T(), err, ErrMissingField)

	_, err = c.Collate([]Example{{InputIDs: []int64{1}, AttentionMask: []int64{1}}})
	assert.ErrorIs(s.T(), err, ErrMissingField)
}

func (s *SeqToSeqSuite) TestMaskLengthMismatch() {
	c := NewSeqToSeqCollator(s.cap, -100)
	_, err := c.Collate([]Example{{
		InputIDs:      []int64{1, 2, 3},
		AttentionMask: []int64{1, 1},
		Labels:        []int64{1},
	}})
	assert.ErrorIs(s.T(), err, ErrShapeMismatch)
}
