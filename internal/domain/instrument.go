package domain

import (
	"math"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether v lies within the closed interval.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// ResponseOption is one labelled answer choice.
type ResponseOption struct {
	Value int    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// ResponseScale is the instrument-wide answer range.
type ResponseScale struct {
	Min    int            `json:"min" yaml:"min"`
	Max    int            `json:"max" yaml:"max"`
	Labels map[int]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Question is a single item of an instrument. Range overrides the global
// scale for this item only; a NonScored item still has to pass validation
// but contributes nothing to any score.
type Question struct {
	ID        string           `json:"id" yaml:"id"`
	Index     int              `json:"index" yaml:"index"`
	Text      string           `json:"text" yaml:"text"`
	Subscale  string           `json:"subscale,omitempty" yaml:"subscale,omitempty"`
	HighRisk  bool             `json:"is_high_risk,omitempty" yaml:"is_high_risk,omitempty"`
	Options   []ResponseOption `json:"options,omitempty" yaml:"options,omitempty"`
	Range     *Range           `json:"range,omitempty" yaml:"range,omitempty"`
	NonScored bool             `json:"non_scored,omitempty" yaml:"non_scored,omitempty"`
}

// Band is a labelled closed range on one score axis. Severity ranks bands
// of the same axis, 0 being the least concerning.
type Band struct {
	Label       string  `json:"label" yaml:"label"`
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	Severity    int     `json:"severity" yaml:"severity"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string  `json:"action,omitempty" yaml:"action,omitempty"`
}

// Contains reports whether the score falls inside the band.
func (b Band) Contains(score float64) bool {
	return score >= b.Min-epsilon && score <= b.Max+epsilon
}

// Subscale aggregates a subset of items independently of the total.
// HigherIsWorse defaults to true; a subscale where a low raw score means high
// severity sets it to false and orders its band severities accordingly.
type Subscale struct {
	ID            string      `json:"id" yaml:"id"`
	Label         string      `json:"label" yaml:"label"`
	Items         []int       `json:"items" yaml:"items"`
	Method        Aggregation `json:"method" yaml:"method"`
	Range         *Range      `json:"range,omitempty" yaml:"range,omitempty"`
	Bands         []Band      `json:"bands,omitempty" yaml:"bands,omitempty"`
	HigherIsWorse *bool       `json:"higher_is_worse,omitempty" yaml:"higher_is_worse,omitempty"`
}

// Worse reports the subscale's severity direction.
func (s Subscale) Worse() bool {
	return s.HigherIsWorse == nil || *s.HigherIsWorse
}

// Bucket maps a closed input range onto a component value.
type Bucket struct {
	Min   int `json:"min" yaml:"min"`
	Max   int `json:"max" yaml:"max"`
	Value int `json:"value" yaml:"value"`
}

// Component is an independently bucketed sub-score. Without buckets the
// component value is the plain sum of its items.
type Component struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Items   []int    `json:"items" yaml:"items"`
	Buckets []Bucket `json:"buckets,omitempty" yaml:"buckets,omitempty"`
}

// Criterion is a named boolean test over a set of items. For gte, lte and
// eq the item values are summed first; any_eq holds when any single item
// equals the threshold.
type Criterion struct {
	ID        string    `json:"id" yaml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	Items     []int     `json:"items" yaml:"items"`
	Condition Condition `json:"condition" yaml:"condition"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
}

// Outcome is one entry of a rule-based instrument's result set. Outcomes are
// tried in order; an outcome matches when every criterion in All holds and,
// if Any is non-empty, at least one criterion in Any holds. The last outcome
// must be unconditional.
type Outcome struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    int      `json:"severity" yaml:"severity"`
	All         []string `json:"all,omitempty" yaml:"all,omitempty"`
	Any         []string `json:"any,omitempty" yaml:"any,omitempty"`
}

// Unconditional reports whether the outcome always matches.
func (o Outcome) Unconditional() bool {
	return len(o.All) == 0 && len(o.Any) == 0
}

// Target is what an escalation rule watches. Item is only read for
// TargetItem, Items for TargetItems, Subscale for TargetSubscale (component
// ids are accepted too) and Outcome for TargetOutcome.
type Target struct {
	Kind     TargetKind `json:"kind" yaml:"kind"`
	Item     int        `json:"item,omitempty" yaml:"item,omitempty"`
	Items    []int      `json:"items,omitempty" yaml:"items,omitempty"`
	Subscale string     `json:"subscale,omitempty" yaml:"subscale,omitempty"`
	Outcome  string     `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// EscalationRule flags answers that warrant crisis resources or a
// follow-up instrument. Only rules with Escalate set raise
// RequiresEscalation; the others contribute recommendation reasons.
type EscalationRule struct {
	ID        string    `json:"id" yaml:"id"`
	Target    Target    `json:"target" yaml:"target"`
	Condition Condition `json:"condition" yaml:"condition"`
	Threshold float64   `json:"threshold" yaml:"threshold"`
	Escalate  bool      `json:"escalate" yaml:"escalate"`
	Action    string    `json:"action,omitempty" yaml:"action,omitempty"`
	Message   string    `json:"message" yaml:"message"`
}

// TotalSpec declares where the instrument total comes from.
type TotalSpec struct {
	Kind       TotalKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Items      []int     `json:"items,omitempty" yaml:"items,omitempty"`
	Subscales  []string  `json:"subscales,omitempty" yaml:"subscales,omitempty"`
	Multiplier int       `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// BandBasis declares the axis the headline band is classified on.
type BandBasis struct {
	Kind      BasisKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Subscale  string    `json:"subscale,omitempty" yaml:"subscale,omitempty"`
	Subscales []string  `json:"subscales,omitempty" yaml:"subscales,omitempty"`
}

// Scoring holds everything the engine needs besides the questions.
type Scoring struct {
	Method        ScoringMethod `json:"method" yaml:"method"`
	Reverse       []int         `json:"reverse_items,omitempty" yaml:"reverse_items,omitempty"`
	Total         TotalSpec     `json:"total,omitempty" yaml:"total,omitempty"`
	Basis         BandBasis     `json:"basis,omitempty" yaml:"basis,omitempty"`
	HigherIsWorse *bool         `json:"higher_is_worse,omitempty" yaml:"higher_is_worse,omitempty"`
	Bands         []Band        `json:"bands,omitempty" yaml:"bands,omitempty"`
	Subscales     []Subscale    `json:"subscales,omitempty" yaml:"subscales,omitempty"`
	Components    []Component   `json:"components,omitempty" yaml:"components,omitempty"`
	Criteria      []Criterion   `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Outcomes      []Outcome     `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	// NotApplicableDescription is reported as the band description when the
	// instrument has no band basis.
	NotApplicableDescription string `json:"not_applicable_description,omitempty" yaml:"not_applicable_description,omitempty"`
}

// Instrument is the static schema of one questionnaire.
type Instrument struct {
	ID                 string              `json:"id" yaml:"id"`
	Title              string              `json:"title" yaml:"title"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	Timeframe          string              `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	Instruction        string              `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Questions          []Question          `json:"questions" yaml:"questions"`
	Scale              ResponseScale       `json:"response_scale" yaml:"response_scale"`
	Scoring            Scoring             `json:"scoring" yaml:"scoring"`
	EscalationRules    []EscalationRule    `json:"escalation_rules,omitempty" yaml:"escalation_rules,omitempty"`
	RecommendedActions map[string][]string `json:"recommended_actions,omitempty" yaml:"recommended_actions,omitempty"`
	SafetyNotes        []string            `json:"safety_notes,omitempty" yaml:"safety_notes,omitempty"`
	RestrictedTerms    []string            `json:"restricted_terms,omitempty" yaml:"restricted_terms,omitempty"`
	Disclaimer         string              `json:"non_diagnostic_disclaimer" yaml:"non_diagnostic_disclaimer"`
}

const epsilon = 1e-9

// AverageStep is the resolution of averaged subscale axes.
const AverageStep = 0.01

// QuestionCount is the exact answer vector length the instrument accepts.
func (inst *Instrument) QuestionCount() int {
	return len(inst.Questions)
}

// ItemBounds returns the valid answer range of the item at index i.
func (inst *Instrument) ItemBounds(i int) Range {
	if i >= 0 && i < len(inst.Questions) && inst.Questions[i].Range != nil {
		return *inst.Questions[i].Range
	}
	return Range{Min: inst.Scale.Min, Max: inst.Scale.Max}
}

// IsScored reports whether the item at index i contributes to scores.
func (inst *Instrument) IsScored(i int) bool {
	return i >= 0 && i < len(inst.Questions) && !inst.Questions[i].NonScored
}

// IsReverse reports whether the item at index i is reverse-scored.
func (inst *Instrument) IsReverse(i int) bool {
	for _, r := range inst.Scoring.Reverse {
		if r == i {
			return true
		}
	}
	return false
}

// ScoredBounds is the range an item contributes after transformation.
// Reversal maps [min, max] onto itself; non-scored items contribute zero.
func (inst *Instrument) ScoredBounds(i int) Range {
	if !inst.IsScored(i) {
		return Range{}
	}
	return inst.ItemBounds(i)
}

// TotalKind resolves the declared total source, applying method defaults.
func (inst *Instrument) TotalKind() TotalKind {
	if inst.Scoring.Total.Kind != "" {
		return inst.Scoring.Total.Kind
	}
	switch inst.Scoring.Method {
	case MethodAverage:
		return TotalNone
	case MethodComponent:
		return TotalComponents
	default:
		return TotalItems
	}
}

// BasisKind resolves the declared band basis, applying method defaults.
func (inst *Instrument) BasisKind() BasisKind {
	if inst.Scoring.Basis.Kind != "" {
		return inst.Scoring.Basis.Kind
	}
	switch inst.Scoring.Method {
	case MethodAverage:
		return BasisNone
	case MethodRuleBased:
		return BasisOutcome
	default:
		if inst.TotalKind() == TotalNone {
			return BasisNone
		}
		return BasisTotal
	}
}

// HasTotal reports whether the instrument reports a meaningful total.
func (inst *Instrument) HasTotal() bool {
	return inst.TotalKind() != TotalNone
}

// TotalItemIndices returns the item indices summed into an items-kind total.
func (inst *Instrument) TotalItemIndices() []int {
	if len(inst.Scoring.Total.Items) > 0 {
		return inst.Scoring.Total.Items
	}
	all := make([]int, len(inst.Questions))
	for i := range all {
		all[i] = i
	}
	return all
}

// Multiplier returns the total multiplier, defaulting to 1.
func (inst *Instrument) Multiplier() int {
	if inst.Scoring.Total.Multiplier == 0 {
		return 1
	}
	return inst.Scoring.Total.Multiplier
}

// Worse reports the severity direction of the headline axis.
func (inst *Instrument) Worse() bool {
	return inst.Scoring.HigherIsWorse == nil || *inst.Scoring.HigherIsWorse
}

// Subscale looks up a subscale definition by id.
func (inst *Instrument) Subscale(id string) (*Subscale, bool) {
	for i := range inst.Scoring.Subscales {
		if inst.Scoring.Subscales[i].ID == id {
			return &inst.Scoring.Subscales[i], true
		}
	}
	return nil, false
}

// Component looks up a component definition by id.
func (inst *Instrument) Component(id string) (*Component, bool) {
	for i := range inst.Scoring.Components {
		if inst.Scoring.Components[i].ID == id {
			return &inst.Scoring.Components[i], true
		}
	}
	return nil, false
}

// Outcome looks up a rule-based outcome by id.
func (inst *Instrument) Outcome(id string) (*Outcome, bool) {
	for i := range inst.Scoring.Outcomes {
		if inst.Scoring.Outcomes[i].ID == id {
			return &inst.Scoring.Outcomes[i], true
		}
	}
	return nil, false
}

// SubscaleRange derives the legal score axis of a subscale.
func (inst *Instrument) SubscaleRange(s *Subscale) (lo, hi float64) {
	var sumMin, sumMax int
	for _, i := range s.Items {
		b := inst.ScoredBounds(i)
		sumMin += b.Min
		sumMax += b.Max
	}
	if s.Method == AggregateAverage && len(s.Items) > 0 {
		n := float64(len(s.Items))
		return RoundHundredths(float64(sumMin) / n), RoundHundredths(float64(sumMax) / n)
	}
	return float64(sumMin), float64(sumMax)
}

// SubscaleStep is the score resolution of a subscale axis.
func SubscaleStep(s *Subscale) float64 {
	if s.Method == AggregateAverage {
		return AverageStep
	}
	return 1
}

// ComponentInputRange is the range of the summed items feeding a component.
func (inst *Instrument) ComponentInputRange(c *Component) Range {
	var r Range
	for _, i := range c.Items {
		b := inst.ScoredBounds(i)
		r.Min += b.Min
		r.Max += b.Max
	}
	return r
}

// ComponentRange is the range of a component's output value.
func (inst *Instrument) ComponentRange(c *Component) Range {
	if len(c.Buckets) == 0 {
		return inst.ComponentInputRange(c)
	}
	r := Range{Min: c.Buckets[0].Value, Max: c.Buckets[0].Value}
	for _, b := range c.Buckets[1:] {
		if b.Value < r.Min {
			r.Min = b.Value
		}
		if b.Value > r.Max {
			r.Max = b.Value
		}
	}
	return r
}

// TotalRange derives the legal axis of the instrument total.
func (inst *Instrument) TotalRange() Range {
	var r Range
	switch inst.TotalKind() {
	case TotalItems:
		for _, i := range inst.TotalItemIndices() {
			b := inst.ScoredBounds(i)
			r.Min += b.Min
			r.Max += b.Max
		}
	case TotalSubscales:
		for _, id := range inst.Scoring.Total.Subscales {
			if s, ok := inst.Subscale(id); ok {
				lo, hi := inst.SubscaleRange(s)
				r.Min += int(lo)
				r.Max += int(hi)
			}
		}
	case TotalComponents:
		for i := range inst.Scoring.Components {
			cr := inst.ComponentRange(&inst.Scoring.Components[i])
			r.Min += cr.Min
			r.Max += cr.Max
		}
	}
	m := inst.Multiplier()
	r.Min *= m
	r.Max *= m
	return r
}

// RoundHundredths rounds half away from zero to two decimal places.
func RoundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}
