package engine

import (
	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Derived holds the scores one strategy derives from one answer vector.
// Escalation rules are evaluated against it.
type Derived struct {
	Total     int
	Subscales map[string]domain.SubscaleScore
	// Values holds subscale and component scores by id.
	Values  map[string]float64
	Band    *domain.Band
	Outcome *domain.Outcome
	// Basis is the value the headline band was classified on.
	Basis float64
}

func newDerived() *Derived {
	return &Derived{
		Subscales: make(map[string]domain.SubscaleScore),
		Values:    make(map[string]float64),
	}
}

// strategy implements one structural scoring pattern. raw is the validated
// input, scored the per-item contributions after reversal.
type strategy interface {
	score(inst *domain.Instrument, raw, scored []int) *Derived
}

var strategies = map[domain.ScoringMethod]strategy{
	domain.MethodSum:       sumStrategy{},
	domain.MethodSubscale:  subscaleStrategy{},
	domain.MethodAverage:   averageStrategy{},
	domain.MethodRuleBased: ruleStrategy{},
	domain.MethodComponent: componentStrategy{},
}

// sumStrategy sums item contributions into the total and bands it.
type sumStrategy struct{}

func (sumStrategy) score(inst *domain.Instrument, _, scored []int) *Derived {
	b := newDerived()
	scoreSubscales(inst, scored, b)
	b.Total = itemTotal(inst, scored)
	classifyBasis(inst, b)
	return b
}

// subscaleStrategy scores every subscale and derives the total from items
// or from a subset of subscales.
type subscaleStrategy struct{}

func (subscaleStrategy) score(inst *domain.Instrument, _, scored []int) *Derived {
	b := newDerived()
	scoreSubscales(inst, scored, b)
	switch inst.TotalKind() {
	case domain.TotalItems:
		b.Total = itemTotal(inst, scored)
	case domain.TotalSubscales:
		for _, id := range inst.Scoring.Total.Subscales {
			b.Total += int(b.Values[id])
		}
		b.Total *= inst.Multiplier()
	}
	classifyBasis(inst, b)
	return b
}

// averageStrategy reports subscale averages only.
type averageStrategy struct{}

func (averageStrategy) score(inst *domain.Instrument, _, scored []int) *Derived {
	b := newDerived()
	scoreSubscales(inst, scored, b)
	return b
}

// ruleStrategy evaluates named criteria and picks the first matching outcome.
type ruleStrategy struct{}

func (ruleStrategy) score(inst *domain.Instrument, raw, scored []int) *Derived {
	b := newDerived()
	scoreSubscales(inst, scored, b)
	if inst.HasTotal() {
		b.Total = itemTotal(inst, scored)
	}

	held := make(map[string]bool, len(inst.Scoring.Criteria))
	for _, c := range inst.Scoring.Criteria {
		held[c.ID] = criterionHolds(c, raw)
	}
	for i := range inst.Scoring.Outcomes {
		o := &inst.Scoring.Outcomes[i]
		if outcomeMatches(o, held) {
			b.Outcome = o
			b.Basis = float64(o.Severity)
			break
		}
	}
	return b
}

func criterionHolds(c domain.Criterion, raw []int) bool {
	if c.Condition == domain.ConditionAnyEQ {
		for _, i := range c.Items {
			if float64(raw[i]) == c.Threshold {
				return true
			}
		}
		return false
	}
	return c.Condition.Holds(float64(sumItems(raw, c.Items)), c.Threshold)
}

func outcomeMatches(o *domain.Outcome, held map[string]bool) bool {
	for _, id := range o.All {
		if !held[id] {
			return false
		}
	}
	if len(o.Any) == 0 {
		return true
	}
	for _, id := range o.Any {
		if held[id] {
			return true
		}
	}
	return false
}

// componentStrategy buckets item groups into components and sums them.
type componentStrategy struct{}

func (componentStrategy) score(inst *domain.Instrument, _, scored []int) *Derived {
	b := newDerived()
	scoreSubscales(inst, scored, b)
	for _, c := range inst.Scoring.Components {
		v := bucket(c, sumItems(scored, c.Items))
		b.Values[c.ID] = float64(v)
		b.Subscales[c.ID] = domain.SubscaleScore{Score: float64(v)}
		b.Total += v
	}
	b.Total *= inst.Multiplier()
	classifyBasis(inst, b)
	return b
}

func bucket(c domain.Component, input int) int {
	if len(c.Buckets) == 0 {
		return input
	}
	for _, bk := range c.Buckets {
		if input >= bk.Min && input <= bk.Max {
			return bk.Value
		}
	}
	// Buckets cover the input range; validated at load time.
	panic(domain.NewConfigError("", "components["+c.ID+"].buckets", "no bucket contains %d", input))
}

func itemTotal(inst *domain.Instrument, scored []int) int {
	return sumItems(scored, inst.TotalItemIndices()) * inst.Multiplier()
}

func scoreSubscales(inst *domain.Instrument, scored []int, b *Derived) {
	for i := range inst.Scoring.Subscales {
		s := &inst.Scoring.Subscales[i]
		sum := sumItems(scored, s.Items)
		value := float64(sum)
		if s.Method == domain.AggregateAverage {
			value = domain.RoundHundredths(float64(sum) / float64(len(s.Items)))
		}
		entry := domain.SubscaleScore{Score: value}
		if len(s.Bands) > 0 {
			entry.Band = MustClassify(inst.ID, value, s.Bands).Label
		}
		b.Values[s.ID] = value
		b.Subscales[s.ID] = entry
	}
}

// classifyBasis sets the headline band from the instrument's band basis.
func classifyBasis(inst *domain.Instrument, b *Derived) {
	switch inst.BasisKind() {
	case domain.BasisTotal:
		b.Basis = float64(b.Total)
		band := MustClassify(inst.ID, b.Basis, inst.Scoring.Bands)
		b.Band = &band
	case domain.BasisSubscale:
		s, _ := inst.Subscale(inst.Scoring.Basis.Subscale)
		b.Basis = b.Values[s.ID]
		band := MustClassify(inst.ID, b.Basis, s.Bands)
		b.Band = &band
	case domain.BasisWorstSubscale:
		worst := 0
		for _, id := range inst.WorstSubscaleIDs() {
			s, _ := inst.Subscale(id)
			if sev := MustClassify(inst.ID, b.Values[id], s.Bands).Severity; sev > worst {
				worst = sev
			}
		}
		b.Basis = float64(worst)
		band := MustClassify(inst.ID, b.Basis, inst.Scoring.Bands)
		b.Band = &band
	}
}
