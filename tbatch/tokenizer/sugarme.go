package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// bertSpecials are the token texts a WordPiece vocab marks as structural.
var bertSpecials = []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]"}

// SugarBert wraps a sugarme/tokenizer BERT WordPiece tokenizer as a
// collation Capability, and can tokenize raw text into id/mask rows for
// callers that do not arrive pre-tokenized.
type SugarBert struct {
	t        *tk.Tokenizer
	side     Side
	padID    int64
	maskID   int64
	registry *SpecialTokenRegistry
}

// NewSugarBert loads vocab.txt and builds a BERT WordPiece tokenizer with
// the usual normalizer, pre-tokenizer and CLS/SEP post-processing.
func NewSugarBert(vocabPath string, side Side) (*SugarBert, error) {
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]")
	if err != nil {
		return nil, fmt.Errorf("failed to load wordpiece vocab from %s: %w", vocabPath, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	registry := NewSpecialTokenRegistry()
	for _, token := range bertSpecials {
		if id, ok := t.TokenToId(token); ok {
			registry.Add(token, int64(id))
		}
	}
	padID, ok := registry.Lookup("[PAD]")
	if !ok {
		return nil, fmt.Errorf("vocab %s has no [PAD] token", vocabPath)
	}
	maskID, ok := registry.Lookup("[MASK]")
	if !ok {
		return nil, fmt.Errorf("vocab %s has no [MASK] token", vocabPath)
	}

	sepID, hasSep := registry.Lookup("[SEP]")
	clsID, hasCls := registry.Lookup("[CLS]")
	if hasSep && hasCls {
		t.WithPostProcessor(processor.NewBertProcessing(
			processor.PostToken{Value: "[SEP]", Id: int(sepID)},
			processor.PostToken{Value: "[CLS]", Id: int(clsID)},
		))
	}

	return &SugarBert{
		t:        t,
		side:     side,
		padID:    padID,
		maskID:   maskID,
		registry: registry,
	}, nil
}

func (s *SugarBert) PadTokenID() int64 { return s.padID }

func (s *SugarBert) MaskTokenID() int64 { return s.maskID }

func (s *SugarBert) VocabSize() int { return s.t.GetVocabSize(true) }

func (s *SugarBert) PaddingSide() Side { return s.side }

func (s *SugarBert) SpecialTokensMask(ids []int64) ([]bool, error) {
	mask := make([]bool, len(ids))
	for i, id := range ids {
		mask[i] = s.registry.Contains(id)
	}
	return mask, nil
}

// Registry exposes the discovered special tokens, e.g. for prefix queries.
func (s *SugarBert) Registry() *SpecialTokenRegistry { return s.registry }

// Tokenize converts raw text into token IDs and attention masks, one row per
// input string. Rows are variable-length; padding is the collator's job.
func (s *SugarBert) Tokenize(texts []string) ([][]int64, [][]int64, error) {
	ids := make([][]int64, len(texts))
	masks := make([][]int64, len(texts))
	for i, txt := range texts {
		enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(txt)), true)
		if err != nil {
			return nil, nil, err
		}
		uids := enc.GetIds()
		umask := enc.GetAttentionMask()

		rowIDs := make([]int64, len(uids))
		rowMask := make([]int64, len(uids))
		for j, id := range uids {
			rowIDs[j] = int64(id)
			if j < len(umask) {
				rowMask[j] = int64(umask[j])
			} else {
				rowMask[j] = 1
			}
		}
		ids[i] = rowIDs
		masks[i] = rowMask
	}
	return ids, masks, nil
}
