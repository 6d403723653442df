package collate

import (
	"gonum.org/v1/gonum/mat"
)

// Field names shared by every collation policy.
const (
	FieldInputIDs          = "input_ids"
	FieldAttentionMask     = "attention_mask"
	FieldLabels            = "labels"
	FieldUnmaskedInputIDs  = "unmasked_input_ids"
	FieldSpecialTokensMask = "special_tokens_mask"
)

// Target is the per-example training target paired with an Example. Exactly
// one of Value and Named is set: Value for a plain scalar/vector target,
// Named for a multi-task auxiliary-target mapping.
type Target struct {
	Value []float64
	Named map[string][]float64
}

// Example is one tokenized training example. InputIDs is required by every
// collator; the remaining fields are policy-dependent. A nil slice means the
// field is absent. Target is nil for plain examples — the tagged variant is
// resolved here, at ingestion, instead of by runtime type inspection inside
// each collation call.
type Example struct {
	InputIDs          []int64
	AttentionMask     []int64
	Labels            []int64
	SpecialTokensMask []bool
	Target            *Target
}

// Plain builds an untargeted example.
func Plain(inputIDs, attentionMask []int64) Example {
	return Example{InputIDs: inputIDs, AttentionMask: attentionMask}
}

// WithTarget builds an example paired with a plain target value.
func WithTarget(inputIDs, attentionMask []int64, value []float64) Example {
	return Example{
		InputIDs:      inputIDs,
		AttentionMask: attentionMask,
		Target:        &Target{Value: value},
	}
}

// WithNamedTargets builds an example paired with an auxiliary-target mapping.
func WithNamedTargets(inputIDs, attentionMask []int64, named map[string][]float64) Example {
	return Example{
		InputIDs:      inputIDs,
		AttentionMask: attentionMask,
		Target:        &Target{Named: named},
	}
}

// Result is the output of one collation call. Fields always holds the
// rectangular id arrays, one row per example. Labels carries stacked plain
// targets and Targets carries stacked auxiliary targets; both are nil when
// the batch carried no such data, so every policy returns the same shape.
type Result struct {
	Fields  map[string][][]int64
	Labels  *mat.Dense
	Targets map[string]*mat.Dense
}

// BatchSize returns the number of rows in the result.
func (r *Result) BatchSize() int {
	for _, rows := range r.Fields {
		return len(rows)
	}
	return 0
}

// Width returns the planned width of a field, or -1 if the field is absent.
func (r *Result) Width(field string) int {
	rows, ok := r.Fields[field]
	if !ok || len(rows) == 0 {
		return -1
	}
	return len(rows[0])
}

// Collator is the single entry point every batching policy implements: one
// synchronous call per batch, inputs never mutated.
type Collator interface {
	Collate(batch []Example) (*Result, error)
}
