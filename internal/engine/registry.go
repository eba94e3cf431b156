package engine

import (
	"errors"
	"sort"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Registry maps instrument ids to compiled scorers. It is built once and
// never modified, so it is safe for concurrent use without locking.
type Registry struct {
	scorers map[string]*Scorer
	ids     []string
}

// NewRegistry compiles every instrument. Any configuration error or
// duplicate id fails construction.
func NewRegistry(instruments ...*domain.Instrument) (*Registry, error) {
	r := &Registry{scorers: make(map[string]*Scorer, len(instruments))}
	var errs []error
	for _, inst := range instruments {
		s, err := NewScorer(inst)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.scorers[inst.ID]; dup {
			errs = append(errs, domain.NewConfigError(inst.ID, "id", "instrument registered twice"))
			continue
		}
		r.scorers[inst.ID] = s
		r.ids = append(r.ids, inst.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(r.ids)
	return r, nil
}

// Lookup returns the scorer for id or an UnknownInstrumentError.
func (r *Registry) Lookup(id string) (*Scorer, error) {
	s, ok := r.scorers[id]
	if !ok {
		return nil, &domain.UnknownInstrumentError{InstrumentID: id}
	}
	return s, nil
}

// Score looks up the instrument and scores answers against it.
func (r *Registry) Score(id string, answers []int) (*domain.ScoreResult, error) {
	s, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Score(answers)
}

// Instrument returns the definition registered under id.
func (r *Registry) Instrument(id string) (*domain.Instrument, error) {
	s, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Instrument(), nil
}

// IDs lists registered instrument ids in sorted order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

var _ domain.Scorer = (*Registry)(nil)
