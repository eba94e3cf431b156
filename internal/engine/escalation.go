package engine

import (
	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Evaluate applies every escalation rule of the instrument. It never short
// circuits: reasons are returned in declaration order for every rule that
// fires, and escalate is true when any firing rule is marked Escalate.
// Item targets read raw answers, never reversed contributions.
func Evaluate(inst *domain.Instrument, raw []int, b *Derived) (reasons []string, escalate bool) {
	reasons = []string{}
	for _, r := range inst.EscalationRules {
		if !ruleFires(inst, r, raw, b) {
			continue
		}
		reasons = append(reasons, r.Message)
		if r.Escalate {
			escalate = true
		}
	}
	return reasons, escalate
}

func ruleFires(inst *domain.Instrument, r domain.EscalationRule, raw []int, b *Derived) bool {
	switch r.Target.Kind {
	case domain.TargetItem:
		return r.Condition.Holds(float64(raw[r.Target.Item]), r.Threshold)
	case domain.TargetItems:
		if r.Condition == domain.ConditionAnyEQ {
			for _, i := range r.Target.Items {
				if float64(raw[i]) == r.Threshold {
					return true
				}
			}
			return false
		}
		return r.Condition.Holds(float64(sumItems(raw, r.Target.Items)), r.Threshold)
	case domain.TargetTotal:
		return inst.HasTotal() && r.Condition.Holds(float64(b.Total), r.Threshold)
	case domain.TargetSubscale:
		v, ok := b.Values[r.Target.Subscale]
		return ok && r.Condition.Holds(v, r.Threshold)
	case domain.TargetSeverity:
		return inst.BasisKind() != domain.BasisNone && r.Condition.Holds(b.Basis, r.Threshold)
	case domain.TargetOutcome:
		matched := 0.0
		if b.Outcome != nil && b.Outcome.ID == r.Target.Outcome {
			matched = 1
		}
		return r.Condition.Holds(matched, r.Threshold)
	default:
		return false
	}
}
