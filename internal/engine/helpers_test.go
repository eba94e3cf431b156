package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/catalog"
	"github.com/rishicodesforfun/menta-question/internal/domain"
)

var (
	registryOnce sync.Once
	registry     *Registry
	registryErr  error
)

// testRegistry compiles the embedded catalog once per test binary.
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registryOnce.Do(func() {
		instruments, err := catalog.Default()
		if err != nil {
			registryErr = err
			return
		}
		registry, registryErr = NewRegistry(instruments...)
	})
	require.NoError(t, registryErr)
	return registry
}

func instrument(t *testing.T, id string) *domain.Instrument {
	t.Helper()
	inst, err := testRegistry(t).Instrument(id)
	require.NoError(t, err)
	return inst
}

// valueFor returns the raw answer that makes item i contribute c.
func valueFor(inst *domain.Instrument, i, c int) int {
	b := inst.ItemBounds(i)
	if inst.IsReverse(i) {
		return b.Min + b.Max - c
	}
	return c
}

// extreme builds the vector whose every item contributes its minimum
// (high=false) or maximum (high=true). Non-scored items take their only
// legal value.
func extreme(inst *domain.Instrument, high bool) []int {
	answers := make([]int, inst.QuestionCount())
	for i := range answers {
		b := inst.ItemBounds(i)
		c := b.Min
		if high {
			c = b.Max
		}
		answers[i] = valueFor(inst, i, c)
	}
	return answers
}

// vectorForTotal fills items in order until the raw item total equals
// target. It only applies to item totals with multiplier 1.
func vectorForTotal(inst *domain.Instrument, target int) []int {
	answers := extreme(inst, false)
	remaining := target - sumItems(contributions(inst, answers), inst.TotalItemIndices())
	for _, i := range inst.TotalItemIndices() {
		if remaining == 0 || !inst.IsScored(i) {
			continue
		}
		b := inst.ItemBounds(i)
		c := b.Min + remaining
		if c > b.Max {
			c = b.Max
		}
		remaining -= c - b.Min
		answers[i] = valueFor(inst, i, c)
	}
	return answers
}

func rangeErrors(err error) []*domain.RangeError {
	var out []*domain.RangeError
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var re *domain.RangeError
			if errors.As(e, &re) {
				out = append(out, re)
			}
		}
		return out
	}
	var re *domain.RangeError
	if errors.As(err, &re) {
		out = append(out, re)
	}
	return out
}

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
