package collate

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by collation calls. All are detected synchronously
// and propagate out of the call with no partial result; retrying without
// changing the batch is pointless, so none of them are retried internally.
var (
	// ErrEmptyBatch is returned when a collation call receives zero examples.
	ErrEmptyBatch = errors.New("batch is empty")

	// ErrMissingField is returned when a required field is absent from an example.
	ErrMissingField = errors.New("example is missing a required field")

	// ErrShapeMismatch is returned when co-dependent fields on one example
	// disagree in length, or stacked targets disagree in dimension.
	ErrShapeMismatch = errors.New("example fields have inconsistent shapes")

	// ErrCapabilityUnavailable is returned when a special-tokens mask is
	// needed but neither the example nor the tokenizer can provide one.
	ErrCapabilityUnavailable = errors.New("tokenizer capability unavailable")
)

func missingField(index int, field string) error {
	return fmt.Errorf("example %d: field %q: %w", index, field, ErrMissingField)
}

func shapeMismatch(index int, detail string) error {
	return fmt.Errorf("example %d: %s: %w", index, detail, ErrShapeMismatch)
}
