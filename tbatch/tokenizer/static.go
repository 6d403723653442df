package tokenizer

import (
	"fmt"
)

// Static is a Capability with explicitly supplied ids, for pipelines whose
// tokenization happened elsewhere (pre-tokenized datasets, parity tests).
type Static struct {
	padID     int64
	maskID    int64
	vocabSize int
	side      Side
	registry  *SpecialTokenRegistry
}

// NewStatic builds a Capability from explicit ids. registry may be nil, in
// which case SpecialTokensMask reports ErrNoSpecialTokens.
func NewStatic(padID, maskID int64, vocabSize int, side Side, registry *SpecialTokenRegistry) (*Static, error) {
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size must be positive: %d", vocabSize)
	}
	if padID < 0 || padID >= int64(vocabSize) {
		return nil, fmt.Errorf("pad token id %d outside vocabulary of size %d", padID, vocabSize)
	}
	if maskID < 0 || maskID >= int64(vocabSize) {
		return nil, fmt.Errorf("mask token id %d outside vocabulary of size %d", maskID, vocabSize)
	}
	return &Static{
		padID:     padID,
		maskID:    maskID,
		vocabSize: vocabSize,
		side:      side,
		registry:  registry,
	}, nil
}

func (s *Static) PadTokenID() int64 { return s.padID }

func (s *Static) MaskTokenID() int64 { return s.maskID }

func (s *Static) VocabSize() int { return s.vocabSize }

func (s *Static) PaddingSide() Side { return s.side }

func (s *Static) SpecialTokensMask(ids []int64) ([]bool, error) {
	if s.registry == nil || s.registry.Len() == 0 {
		return nil, ErrNoSpecialTokens
	}
	mask := make([]bool, len(ids))
	for i, id := range ids {
		mask[i] = s.registry.Contains(id)
	}
	return mask, nil
}
