// Package engine scores answer vectors against instrument definitions. It
// is pure: no I/O, no shared mutable state and no logging, so a Registry can
// serve any number of concurrent callers.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Validate checks the answer vector's arity and every item's bounds. A
// length mismatch is reported as a single ShapeError; otherwise every
// offending item yields its own RangeError and the errors are joined.
func Validate(inst *domain.Instrument, answers []int) error {
	if len(answers) != inst.QuestionCount() {
		return &domain.ShapeError{InstrumentID: inst.ID, Expected: inst.QuestionCount(), Actual: len(answers)}
	}
	var errs []error
	for i, v := range answers {
		if err := checkValue(inst, i, float64(v)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseAnswers converts transport-level numbers into an answer vector,
// rejecting non-integers with the same RangeError used for bounds.
func ParseAnswers(inst *domain.Instrument, values []float64) ([]int, error) {
	if len(values) != inst.QuestionCount() {
		return nil, &domain.ShapeError{InstrumentID: inst.ID, Expected: inst.QuestionCount(), Actual: len(values)}
	}
	var errs []error
	answers := make([]int, len(values))
	for i, v := range values {
		if err := checkValue(inst, i, v); err != nil {
			errs = append(errs, err)
			continue
		}
		answers[i] = int(v)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return answers, nil
}

// CheckItem validates a single answer at 0-based position i, for callers
// that collect answers incrementally.
func CheckItem(inst *domain.Instrument, i int, v float64) error {
	if i < 0 || i >= inst.QuestionCount() {
		return &domain.ShapeError{InstrumentID: inst.ID, Expected: inst.QuestionCount(), Actual: i + 1}
	}
	if err := checkValue(inst, i, v); err != nil {
		return err
	}
	return nil
}

func checkValue(inst *domain.Instrument, i int, v float64) *domain.RangeError {
	bounds := inst.ItemBounds(i)
	if !math.IsNaN(v) && v == math.Trunc(v) && v >= float64(bounds.Min) && v <= float64(bounds.Max) {
		return nil
	}
	return &domain.RangeError{
		InstrumentID: inst.ID,
		Item:         i + 1,
		Value:        v,
		Min:          bounds.Min,
		Max:          bounds.Max,
		Label:        itemLabel(inst, i),
	}
}

// itemLabel names an item in error messages when its id says more than
// its position does.
func itemLabel(inst *domain.Instrument, i int) string {
	id := inst.Questions[i].ID
	if id == fmt.Sprintf("q%d", i+1) {
		return ""
	}
	return id
}
