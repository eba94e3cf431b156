package engine

import (
	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Reverse returns a copy of answers with every reverse-scored item replaced
// by (min + max) - v for that item's bounds. The input is never modified.
func Reverse(inst *domain.Instrument, answers []int) []int {
	out := append([]int(nil), answers...)
	for _, i := range inst.Scoring.Reverse {
		b := inst.ItemBounds(i)
		out[i] = b.Min + b.Max - out[i]
	}
	return out
}

// contributions returns the value each item adds to aggregates: reversed
// where declared, zero for non-scored items.
func contributions(inst *domain.Instrument, answers []int) []int {
	out := Reverse(inst, answers)
	for i := range out {
		if !inst.IsScored(i) {
			out[i] = 0
		}
	}
	return out
}

func sumItems(values []int, items []int) int {
	total := 0
	for _, i := range items {
		total += values[i]
	}
	return total
}
