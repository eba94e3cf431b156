package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate checks every configuration invariant of the instrument. It runs
// once at load time so misconfiguration is never discovered while scoring a
// particular answer vector. All violations are reported together.
func (inst *Instrument) Validate() error {
	v := &validator{inst: inst}

	v.checkIdentity()
	v.checkQuestions()
	v.checkReverse()
	v.checkSubscales()
	v.checkComponents()
	v.checkTotal()
	v.checkBasis()
	v.checkRuleBased()
	v.checkEscalationRules()
	v.checkRestrictedTerms()

	return errors.Join(v.errs...)
}

type validator struct {
	inst *Instrument
	errs []error
}

func (v *validator) fail(field, format string, args ...any) {
	v.errs = append(v.errs, NewConfigError(v.inst.ID, field, format, args...))
}

func (v *validator) checkIdentity() {
	if v.inst.ID == "" {
		v.fail("id", "instrument id is required")
	}
	if !v.inst.Scoring.Method.IsValid() {
		v.fail("scoring.method", "%v: %q", ErrInvalidMethod, v.inst.Scoring.Method)
	}
}

func (v *validator) checkQuestions() {
	inst := v.inst
	if len(inst.Questions) == 0 {
		v.fail("questions", "at least one question is required")
	}
	if inst.Scale.Min > inst.Scale.Max {
		v.fail("response_scale", "min %d exceeds max %d", inst.Scale.Min, inst.Scale.Max)
	}
	seen := make(map[string]bool, len(inst.Questions))
	for i, q := range inst.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if q.Index != i {
			v.fail(field, "index %d does not match position %d", q.Index, i)
		}
		if q.ID == "" {
			v.fail(field, "question id is required")
		} else if seen[q.ID] {
			v.fail(field, "duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if q.Range != nil && q.Range.Min > q.Range.Max {
			v.fail(field+".range", "min %d exceeds max %d", q.Range.Min, q.Range.Max)
		}
		bounds := inst.ItemBounds(i)
		for _, opt := range q.Options {
			if !bounds.Contains(opt.Value) {
				v.fail(field+".options", "option value %d outside %d–%d", opt.Value, bounds.Min, bounds.Max)
			}
		}
		if q.Subscale != "" {
			if _, ok := inst.Subscale(q.Subscale); !ok {
				v.fail(field+".subscale", "unknown subscale %q", q.Subscale)
			}
		}
	}
}

// checkItems validates a list of item indices used for aggregation.
func (v *validator) checkItems(field string, items []int, requireScored bool) {
	if len(items) == 0 {
		v.fail(field, "at least one item is required")
		return
	}
	seen := make(map[int]bool, len(items))
	for _, i := range items {
		if i < 0 || i >= len(v.inst.Questions) {
			v.fail(field, "item index %d out of range 0–%d", i, len(v.inst.Questions)-1)
			continue
		}
		if seen[i] {
			v.fail(field, "item index %d listed twice", i)
		}
		seen[i] = true
		if requireScored && !v.inst.IsScored(i) {
			v.fail(field, "item index %d is non-scored", i)
		}
	}
}

func (v *validator) checkReverse() {
	if len(v.inst.Scoring.Reverse) == 0 {
		return
	}
	v.checkItems("scoring.reverse_items", v.inst.Scoring.Reverse, true)
}

func (v *validator) checkSubscales() {
	seen := make(map[string]bool)
	for i := range v.inst.Scoring.Subscales {
		s := &v.inst.Scoring.Subscales[i]
		field := fmt.Sprintf("scoring.subscales[%s]", s.ID)
		if s.ID == "" {
			v.fail(field, "subscale id is required")
		} else if seen[s.ID] {
			v.fail(field, "duplicate subscale id")
		}
		seen[s.ID] = true
		if !s.Method.IsValid() {
			v.fail(field+".method", "%v: %q", ErrInvalidAggregate, s.Method)
		}
		v.checkItems(field+".items", s.Items, true)
		lo, hi := v.inst.SubscaleRange(s)
		if s.Range != nil && (!near(float64(s.Range.Min), lo) || !near(float64(s.Range.Max), hi)) {
			v.fail(field+".range", "declared %d–%d but items span %g–%g", s.Range.Min, s.Range.Max, lo, hi)
		}
		if len(s.Bands) > 0 {
			v.checkPartition(field+".bands", s.Bands, lo, hi, SubscaleStep(s), s.Worse())
		}
	}
}

func (v *validator) checkComponents() {
	inst := v.inst
	if inst.Scoring.Method == MethodComponent && len(inst.Scoring.Components) == 0 {
		v.fail("scoring.components", "component scoring requires components")
	}
	seen := make(map[string]bool)
	for i := range inst.Scoring.Components {
		c := &inst.Scoring.Components[i]
		field := fmt.Sprintf("scoring.components[%s]", c.ID)
		if c.ID == "" {
			v.fail(field, "component id is required")
		} else if seen[c.ID] {
			v.fail(field, "duplicate component id")
		}
		seen[c.ID] = true
		if _, clash := inst.Subscale(c.ID); clash {
			v.fail(field, "component id collides with a subscale id")
		}
		v.checkItems(field+".items", c.Items, true)
		if len(c.Buckets) == 0 {
			continue
		}
		in := inst.ComponentInputRange(c)
		if c.Buckets[0].Min != in.Min {
			v.fail(field+".buckets", "first bucket starts at %d, input starts at %d", c.Buckets[0].Min, in.Min)
		}
		if last := c.Buckets[len(c.Buckets)-1]; last.Max != in.Max {
			v.fail(field+".buckets", "last bucket ends at %d, input ends at %d", last.Max, in.Max)
		}
		for j, b := range c.Buckets {
			if b.Min > b.Max {
				v.fail(field+".buckets", "bucket %d has min %d above max %d", j, b.Min, b.Max)
			}
			if j > 0 && b.Min != c.Buckets[j-1].Max+1 {
				v.fail(field+".buckets", "bucket %d starts at %d, expected %d", j, b.Min, c.Buckets[j-1].Max+1)
			}
		}
	}
}

func (v *validator) checkTotal() {
	inst := v.inst
	spec := inst.Scoring.Total
	kind := inst.TotalKind()
	if !kind.IsValid() {
		v.fail("scoring.total.kind", "invalid total kind %q", kind)
		return
	}
	if spec.Multiplier < 0 {
		v.fail("scoring.total.multiplier", "multiplier must not be negative")
	}
	switch kind {
	case TotalItems:
		if len(spec.Items) > 0 {
			v.checkItems("scoring.total.items", spec.Items, true)
		}
	case TotalSubscales:
		if len(spec.Subscales) == 0 {
			v.fail("scoring.total.subscales", "a subscale total needs at least one subscale")
		}
		for _, id := range spec.Subscales {
			s, ok := inst.Subscale(id)
			if !ok {
				v.fail("scoring.total.subscales", "unknown subscale %q", id)
				continue
			}
			if s.Method != AggregateSum {
				v.fail("scoring.total.subscales", "subscale %q is averaged; totals are exact integer sums", id)
			}
		}
	case TotalComponents:
		if len(inst.Scoring.Components) == 0 {
			v.fail("scoring.total", "component total without components")
		}
	case TotalNone:
		if inst.Scoring.Method == MethodSum || inst.Scoring.Method == MethodComponent {
			v.fail("scoring.total", "%s scoring needs a total", inst.Scoring.Method)
		}
	}
}

func (v *validator) checkBasis() {
	inst := v.inst
	basis := inst.BasisKind()
	if !basis.IsValid() {
		v.fail("scoring.basis.kind", "%v: %q", ErrInvalidBasis, basis)
		return
	}
	bands := inst.Scoring.Bands
	switch basis {
	case BasisTotal:
		if !inst.HasTotal() {
			v.fail("scoring.basis", "total basis on an instrument without a total")
			return
		}
		r := inst.TotalRange()
		v.checkPartition("scoring.bands", bands, float64(r.Min), float64(r.Max), 1, inst.Worse())
	case BasisSubscale:
		s, ok := inst.Subscale(inst.Scoring.Basis.Subscale)
		if !ok {
			v.fail("scoring.basis.subscale", "unknown subscale %q", inst.Scoring.Basis.Subscale)
			return
		}
		if len(s.Bands) == 0 {
			v.fail("scoring.basis.subscale", "subscale %q has no bands to classify on", s.ID)
		}
		if len(bands) > 0 {
			v.fail("scoring.bands", "subscale basis reuses the subscale bands; instrument bands must be empty")
		}
	case BasisWorstSubscale:
		ids := inst.WorstSubscaleIDs()
		if len(ids) == 0 {
			v.fail("scoring.basis", "worst_subscale basis needs banded subscales")
			return
		}
		for _, id := range ids {
			s, ok := inst.Subscale(id)
			if !ok {
				v.fail("scoring.basis.subscales", "unknown subscale %q", id)
				return
			}
			if len(s.Bands) == 0 {
				v.fail("scoring.basis.subscales", "subscale %q has no bands", id)
				return
			}
		}
		v.checkPartition("scoring.bands", bands, 0, float64(inst.MaxSubscaleSeverity()), 1, true)
	case BasisOutcome:
		if inst.Scoring.Method != MethodRuleBased {
			v.fail("scoring.basis", "outcome basis requires rule-based scoring")
		}
		if len(bands) > 0 {
			v.fail("scoring.bands", "rule-based instruments band through outcomes; bands must be empty")
		}
	case BasisNone:
		if len(bands) > 0 {
			v.fail("scoring.bands", "bands declared but the instrument has no band basis")
		}
	}
}

func (v *validator) checkRuleBased() {
	inst := v.inst
	criteria := make(map[string]bool)
	for _, c := range inst.Scoring.Criteria {
		field := fmt.Sprintf("scoring.criteria[%s]", c.ID)
		if c.ID == "" {
			v.fail(field, "criterion id is required")
		} else if criteria[c.ID] {
			v.fail(field, "duplicate criterion id")
		}
		criteria[c.ID] = true
		if !c.Condition.IsValid() {
			v.fail(field+".condition", "%v: %q", ErrInvalidCondition, c.Condition)
		}
		v.checkItems(field+".items", c.Items, false)
	}

	outcomes := inst.Scoring.Outcomes
	if inst.Scoring.Method != MethodRuleBased {
		if len(outcomes) > 0 || len(inst.Scoring.Criteria) > 0 {
			v.fail("scoring.outcomes", "criteria and outcomes are only read by rule-based scoring")
		}
		return
	}
	if len(outcomes) == 0 {
		v.fail("scoring.outcomes", "rule-based scoring requires outcomes")
		return
	}
	seen := make(map[string]bool)
	for i, o := range outcomes {
		field := fmt.Sprintf("scoring.outcomes[%s]", o.ID)
		if o.ID == "" || o.Label == "" {
			v.fail(field, "outcome id and label are required")
		}
		if seen[o.ID] {
			v.fail(field, "duplicate outcome id")
		}
		seen[o.ID] = true
		last := i == len(outcomes)-1
		if last && !o.Unconditional() {
			v.fail(field, "the last outcome must be unconditional")
		}
		if !last && o.Unconditional() {
			v.fail(field, "unconditional outcome shadows the outcomes after it")
		}
		for _, ref := range append(append([]string{}, o.All...), o.Any...) {
			if !criteria[ref] {
				v.fail(field, "unknown criterion %q", ref)
			}
		}
	}
}

func (v *validator) checkEscalationRules() {
	inst := v.inst
	for i, r := range inst.EscalationRules {
		field := fmt.Sprintf("escalation_rules[%d]", i)
		if r.Message == "" {
			v.fail(field+".message", "message is required")
		}
		if !r.Condition.IsValid() {
			v.fail(field+".condition", "%v: %q", ErrInvalidCondition, r.Condition)
		}
		if !r.Target.Kind.IsValid() {
			v.fail(field+".target", "%v: %q", ErrInvalidTarget, r.Target.Kind)
			continue
		}
		if r.Condition == ConditionAnyEQ && r.Target.Kind != TargetItems {
			v.fail(field+".condition", "any_eq only applies to an items target")
		}
		switch r.Target.Kind {
		case TargetItem:
			if r.Target.Item < 0 || r.Target.Item >= len(inst.Questions) {
				v.fail(field+".target.item", "item index %d out of range", r.Target.Item)
			}
		case TargetItems:
			v.checkItems(field+".target.items", r.Target.Items, false)
		case TargetTotal:
			if !inst.HasTotal() {
				v.fail(field+".target", "total target on an instrument without a total")
			}
		case TargetSubscale:
			_, isSub := inst.Subscale(r.Target.Subscale)
			_, isComp := inst.Component(r.Target.Subscale)
			if !isSub && !isComp {
				v.fail(field+".target.subscale", "unknown subscale or component %q", r.Target.Subscale)
			}
		case TargetSeverity:
			if inst.BasisKind() == BasisNone {
				v.fail(field+".target", "severity target on an instrument without a band basis")
			}
		case TargetOutcome:
			if _, ok := inst.Outcome(r.Target.Outcome); !ok {
				v.fail(field+".target.outcome", "unknown outcome %q", r.Target.Outcome)
			}
		}
	}
}

// checkRestrictedTerms enforces wording constraints on every user-facing
// template. The engine never filters text at run time.
func (v *validator) checkRestrictedTerms() {
	terms := v.inst.RestrictedTerms
	if len(terms) == 0 {
		return
	}
	check := func(field, text string) {
		if t, found := containsTerm(text, terms); found {
			v.fail(field, "user-facing text contains restricted term %q", t)
		}
	}
	for i, r := range v.inst.EscalationRules {
		check(fmt.Sprintf("escalation_rules[%d].message", i), r.Message)
	}
	for _, o := range v.inst.Scoring.Outcomes {
		check("scoring.outcomes["+o.ID+"]", o.Label+" "+o.Description)
	}
	for _, b := range v.inst.Scoring.Bands {
		check("scoring.bands", b.Label+" "+b.Description)
	}
	for _, s := range v.inst.Scoring.Subscales {
		for _, b := range s.Bands {
			check("scoring.subscales["+s.ID+"].bands", b.Label+" "+b.Description)
		}
	}
	check("non_diagnostic_disclaimer", v.inst.Disclaimer)
}

// checkPartition verifies that bands are ordered, contiguous at the given
// step, non-overlapping, cover [lo, hi] exactly and rank severity in the
// declared direction.
func (v *validator) checkPartition(field string, bands []Band, lo, hi, step float64, worse bool) {
	if len(bands) == 0 {
		v.fail(field, "no bands cover the axis %g–%g", lo, hi)
		return
	}
	if !near(bands[0].Min, lo) {
		v.fail(field, "first band %q starts at %g, axis starts at %g", bands[0].Label, bands[0].Min, lo)
	}
	if last := bands[len(bands)-1]; !near(last.Max, hi) {
		v.fail(field, "last band %q ends at %g, axis ends at %g", last.Label, last.Max, hi)
	}
	for i, b := range bands {
		if b.Label == "" {
			v.fail(field, "band %d has no label", i)
		}
		if b.Min > b.Max {
			v.fail(field, "band %q has min %g above max %g", b.Label, b.Min, b.Max)
		}
		if step == 1 && (b.Min != math.Trunc(b.Min) || b.Max != math.Trunc(b.Max)) {
			v.fail(field, "band %q has fractional bounds on an integer axis", b.Label)
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1]
		if !near(b.Min, prev.Max+step) {
			v.fail(field, "band %q starts at %g, expected %g after %q", b.Label, b.Min, prev.Max+step, prev.Label)
		}
		if worse && b.Severity < prev.Severity {
			v.fail(field, "band %q is less severe than lower band %q on a higher-is-worse axis", b.Label, prev.Label)
		}
		if !worse && b.Severity > prev.Severity {
			v.fail(field, "band %q is more severe than lower band %q on a higher-is-better axis", b.Label, prev.Label)
		}
	}
}

// WorstSubscaleIDs lists the subscales a worst_subscale basis ranks over:
// the declared ones, or every banded subscale.
func (inst *Instrument) WorstSubscaleIDs() []string {
	if len(inst.Scoring.Basis.Subscales) > 0 {
		return inst.Scoring.Basis.Subscales
	}
	var ids []string
	for _, s := range inst.Scoring.Subscales {
		if len(s.Bands) > 0 {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// MaxSubscaleSeverity is the highest severity rank among the subscales a
// worst_subscale basis ranks over.
func (inst *Instrument) MaxSubscaleSeverity() int {
	maxSeverity := 0
	for _, id := range inst.WorstSubscaleIDs() {
		s, ok := inst.Subscale(id)
		if !ok {
			continue
		}
		for _, b := range s.Bands {
			if b.Severity > maxSeverity {
				maxSeverity = b.Severity
			}
		}
	}
	return maxSeverity
}

func containsTerm(text string, terms []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return t, true
		}
	}
	return "", false
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
