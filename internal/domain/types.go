// Package domain contains the core entities shared by the questionnaire
// scoring engine: instrument schemas, score results and the error taxonomy.
//
// Instruments are static data. They are loaded once, validated once and never
// mutated afterwards, so every type here is safe to share across goroutines
// as long as callers treat loaded values as read-only.
package domain

import (
	"errors"
)

// ScoringMethod selects the structural algorithm used for an instrument.
// Each method maps to exactly one scoring strategy in the engine.
type ScoringMethod string

const (
	// MethodSum sums (optionally reverse-transformed) item values.
	MethodSum ScoringMethod = "sum"
	// MethodSubscale partitions items into subscales and derives the total
	// from items or from a subset of subscales.
	MethodSubscale ScoringMethod = "subscale"
	// MethodAverage reports per-subscale averages and no total.
	MethodAverage ScoringMethod = "average"
	// MethodRuleBased evaluates named boolean criteria into an outcome.
	MethodRuleBased ScoringMethod = "rule-based"
	// MethodComponent buckets groups of items into components and sums them.
	MethodComponent ScoringMethod = "component"
)

// Aggregation is how a subscale combines its items.
type Aggregation string

const (
	AggregateSum     Aggregation = "sum"
	AggregateAverage Aggregation = "average"
)

// Condition is the comparison applied by escalation rules and criteria.
type Condition string

const (
	ConditionGTE   Condition = "gte"
	ConditionLTE   Condition = "lte"
	ConditionEQ    Condition = "eq"
	ConditionAnyEQ Condition = "any_eq"
)

// TargetKind names the value an escalation rule watches.
type TargetKind string

const (
	TargetItem     TargetKind = "item"
	TargetItems    TargetKind = "items"
	TargetTotal    TargetKind = "total"
	TargetSubscale TargetKind = "subscale"
	TargetSeverity TargetKind = "severity"
	TargetOutcome  TargetKind = "outcome"
)

// BasisKind names the axis an instrument's headline band is classified on.
type BasisKind string

const (
	BasisTotal         BasisKind = "total"
	BasisSubscale      BasisKind = "subscale"
	BasisWorstSubscale BasisKind = "worst_subscale"
	BasisOutcome       BasisKind = "outcome"
	BasisNone          BasisKind = "none"
)

// TotalKind names where an instrument total comes from.
type TotalKind string

const (
	TotalItems      TotalKind = "items"
	TotalSubscales  TotalKind = "subscales"
	TotalComponents TotalKind = "components"
	TotalNone       TotalKind = "none"
)

// NotApplicableBand is the sentinel band label reported by instruments
// that define no total. Callers must check TotalApplicable rather than
// infer meaning from a zero total.
const NotApplicableBand = "N/A"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidMethod     = errors.New("invalid scoring method")
	ErrInvalidCondition  = errors.New("invalid escalation condition")
	ErrInvalidTarget     = errors.New("invalid escalation target")
	ErrInvalidBasis      = errors.New("invalid band basis")
	ErrInvalidAggregate  = errors.New("invalid subscale aggregation")
	ErrSessionIncomplete = errors.New("session is not complete")
)

// IsValid reports whether the method is one of the supported algorithms.
func (m ScoringMethod) IsValid() bool {
	switch m {
	case MethodSum, MethodSubscale, MethodAverage, MethodRuleBased, MethodComponent:
		return true
	default:
		return false
	}
}

func (m ScoringMethod) String() string {
	return string(m)
}

// IsValid reports whether the aggregation is supported.
func (a Aggregation) IsValid() bool {
	switch a {
	case AggregateSum, AggregateAverage:
		return true
	default:
		return false
	}
}

// IsValid reports whether the condition is supported.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGTE, ConditionLTE, ConditionEQ, ConditionAnyEQ:
		return true
	default:
		return false
	}
}

// Holds applies the comparison to a single value.
func (c Condition) Holds(value, threshold float64) bool {
	switch c {
	case ConditionGTE:
		return value >= threshold
	case ConditionLTE:
		return value <= threshold
	case ConditionEQ, ConditionAnyEQ:
		return value == threshold
	default:
		return false
	}
}

// IsValid reports whether the target kind is supported.
func (k TargetKind) IsValid() bool {
	switch k {
	case TargetItem, TargetItems, TargetTotal, TargetSubscale, TargetSeverity, TargetOutcome:
		return true
	default:
		return false
	}
}

// IsValid reports whether the basis kind is supported.
func (k BasisKind) IsValid() bool {
	switch k {
	case BasisTotal, BasisSubscale, BasisWorstSubscale, BasisOutcome, BasisNone:
		return true
	default:
		return false
	}
}

// IsValid reports whether the total kind is supported.
func (k TotalKind) IsValid() bool {
	switch k {
	case TotalItems, TotalSubscales, TotalComponents, TotalNone:
		return true
	default:
		return false
	}
}
