package tokenizer

import (
	"fmt"
)

// Side selects which end of a sequence receives padding fill.
type Side int

const (
	PadRight Side = iota
	PadLeft
)

// ParseSide maps the config-file spelling to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "right", "":
		return PadRight, nil
	case "left":
		return PadLeft, nil
	default:
		return PadRight, fmt.Errorf("unknown padding side %q", s)
	}
}

func (s Side) String() string {
	if s == PadLeft {
		return "left"
	}
	return "right"
}

// Capability exposes the tokenizer-derived values batch collation needs:
// fill ids, vocabulary size, padding side, and special-token detection.
type Capability interface {
	PadTokenID() int64
	MaskTokenID() int64
	VocabSize() int
	PaddingSide() Side
	// SpecialTokensMask marks structural tokens ([CLS], [SEP], [PAD], ...)
	// in ids. Returns ErrNoSpecialTokens when the backing tokenizer cannot
	// distinguish them.
	SpecialTokensMask(ids []int64) ([]bool, error)
}

// ErrNoSpecialTokens indicates the tokenizer cannot derive a special-tokens mask
var ErrNoSpecialTokens = fmt.Errorf("tokenizer cannot derive a special tokens mask")
