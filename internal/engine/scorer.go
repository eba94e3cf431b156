package engine

import (
	"fmt"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Scorer is the compiled, immutable scorer for one validated instrument.
type Scorer struct {
	inst     *domain.Instrument
	strategy strategy
}

// NewScorer validates the instrument and selects its scoring strategy.
func NewScorer(inst *domain.Instrument) (*Scorer, error) {
	if inst == nil {
		return nil, fmt.Errorf("instrument is nil")
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s, ok := strategies[inst.Scoring.Method]
	if !ok {
		return nil, domain.NewConfigError(inst.ID, "scoring.method", "%v: %q", domain.ErrInvalidMethod, inst.Scoring.Method)
	}
	return &Scorer{inst: inst, strategy: s}, nil
}

// Instrument returns the scorer's instrument. Callers must not modify it.
func (s *Scorer) Instrument() *domain.Instrument {
	return s.inst
}

// Parse converts transport-level numbers into a validated answer vector.
func (s *Scorer) Parse(values []float64) ([]int, error) {
	return ParseAnswers(s.inst, values)
}

// Score validates answers and produces a new result. The result never
// shares memory with answers.
func (s *Scorer) Score(answers []int) (*domain.ScoreResult, error) {
	if err := Validate(s.inst, answers); err != nil {
		return nil, err
	}
	raw := append([]int(nil), answers...)
	derived := s.strategy.score(s.inst, raw, contributions(s.inst, raw))
	reasons, escalate := Evaluate(s.inst, raw, derived)

	result := &domain.ScoreResult{
		InstrumentID:       s.inst.ID,
		TotalApplicable:    s.inst.HasTotal(),
		Band:               domain.NotApplicableBand,
		BandDescription:    s.inst.Scoring.NotApplicableDescription,
		RequiresEscalation: escalate,
		EscalationReasons:  reasons,
		RawAnswers:         raw,
	}
	if result.TotalApplicable {
		result.TotalScore = derived.Total
	}
	switch {
	case derived.Band != nil:
		result.Band = derived.Band.Label
		result.BandDescription = derived.Band.Description
		result.Severity = derived.Band.Severity
	case derived.Outcome != nil:
		result.Band = derived.Outcome.Label
		result.BandDescription = derived.Outcome.Description
		result.Severity = derived.Outcome.Severity
	}
	if len(derived.Subscales) > 0 {
		result.SubscaleScores = derived.Subscales
	}
	return result, nil
}
