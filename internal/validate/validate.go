// Package validate accumulates per-row validation failures without
// halting processing.
package validate

import (
	"github.com/sells-group/benefits-etl/internal/model"
)

// Accumulator collects validation errors in insertion order. Errors are
// never removed or deduplicated; one row may contribute any number.
// Not safe for concurrent use; the pipeline keeps one per source and
// merges afterward.
type Accumulator struct {
	errors []model.ValidationError
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Add appends one (row, field, reason) triple.
func (a *Accumulator) Add(rowID, field, reason string) {
	a.errors = append(a.errors, model.ValidationError{
		RowID:  rowID,
		Field:  field,
		Reason: reason,
	})
}

// Any reports whether any error was recorded.
func (a *Accumulator) Any() bool {
	return len(a.errors) > 0
}

// Len returns the number of recorded errors.
func (a *Accumulator) Len() int {
	return len(a.errors)
}

// Report exports the accumulated errors in insertion order. An empty
// accumulator yields an empty, non-nil report so the output always has
// its header.
func (a *Accumulator) Report() []model.ValidationError {
	out := make([]model.ValidationError, len(a.errors))
	copy(out, a.errors)
	return out
}

// Merge appends another accumulator's errors, preserving its order.
func (a *Accumulator) Merge(other *Accumulator) {
	a.errors = append(a.errors, other.errors...)
}
