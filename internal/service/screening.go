package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/engine"
	"github.com/rishicodesforfun/menta-question/internal/session"
)

// ScreeningService composes the scoring registry with the session store.
// It is the only layer that logs scoring outcomes.
type ScreeningService struct {
	logger *logrus.Logger
	scorer domain.Scorer
	store  session.Store
}

// NewScreeningService creates a new screening service. store may be nil
// when only stateless scoring is needed.
func NewScreeningService(logger *logrus.Logger, scorer domain.Scorer, store session.Store) *ScreeningService {
	return &ScreeningService{
		logger: logger,
		scorer: scorer,
		store:  store,
	}
}

// Store returns the session store, nil for a stateless service.
func (s *ScreeningService) Store() session.Store {
	return s.store
}

// InstrumentSummary is the catalog listing entry for one instrument.
type InstrumentSummary struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	Timeframe     string               `json:"timeframe,omitempty"`
	QuestionCount int                  `json:"question_count"`
	Method        domain.ScoringMethod `json:"method"`
	HasTotal      bool                 `json:"has_total"`
	TotalRange    *domain.Range        `json:"total_range,omitempty"`
}

// ListInstruments summarizes every registered instrument in id order.
func (s *ScreeningService) ListInstruments() []InstrumentSummary {
	ids := s.scorer.IDs()
	out := make([]InstrumentSummary, 0, len(ids))
	for _, id := range ids {
		inst, err := s.scorer.Instrument(id)
		if err != nil {
			continue
		}
		summary := InstrumentSummary{
			ID:            inst.ID,
			Title:         inst.Title,
			Description:   inst.Description,
			Timeframe:     inst.Timeframe,
			QuestionCount: inst.QuestionCount(),
			Method:        inst.Scoring.Method,
			HasTotal:      inst.HasTotal(),
		}
		if summary.HasTotal {
			r := inst.TotalRange()
			summary.TotalRange = &r
		}
		out = append(out, summary)
	}
	return out
}

// DescribeInstrument returns the full definition of one instrument.
func (s *ScreeningService) DescribeInstrument(id string) (*domain.Instrument, error) {
	return s.scorer.Instrument(id)
}

// Score scores a complete answer vector.
func (s *ScreeningService) Score(ctx context.Context, id string, answers []int) (*domain.ScoreResult, error) {
	start := time.Now()
	result, err := s.scorer.Score(id, answers)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"instrument_id": id,
			"error":         err.Error(),
		}).Debug("Scoring rejected")
		return nil, err
	}
	s.logScored(result, start)
	return result, nil
}

// ScoreValues parses transport-level numbers and scores them. Non-integers
// are reported as RangeErrors.
func (s *ScreeningService) ScoreValues(ctx context.Context, id string, values []float64) (*domain.ScoreResult, error) {
	inst, err := s.scorer.Instrument(id)
	if err != nil {
		return nil, err
	}
	answers, err := engine.ParseAnswers(inst, values)
	if err != nil {
		return nil, err
	}
	return s.Score(ctx, id, answers)
}

func (s *ScreeningService) logScored(result *domain.ScoreResult, start time.Time) {
	entry := s.logger.WithFields(result.LogFields()).WithField("processing_time", time.Since(start))
	if result.RequiresEscalation {
		entry.Warn("Instrument scored, escalation required")
		return
	}
	entry.Info("Instrument scored")
}

func (s *ScreeningService) sessions() (session.Store, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no session backend configured", session.ErrUnavailable)
	}
	return s.store, nil
}

// CreateSession starts an empty session for an instrument.
func (s *ScreeningService) CreateSession(ctx context.Context, instrumentID string) (*session.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	inst, err := s.scorer.Instrument(instrumentID)
	if err != nil {
		return nil, err
	}

	sess := session.New(inst.ID, inst.QuestionCount())
	if err := store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":    sess.ID,
		"instrument_id": sess.InstrumentID,
	}).Info("Session created")
	return sess, nil
}

// GetSession returns a stored session.
func (s *ScreeningService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// SubmitAnswers merges answers into the session. The slice must cover every
// question; nil entries leave the stored answer unchanged. Each given value
// is validated against its item before anything is stored.
func (s *ScreeningService) SubmitAnswers(ctx context.Context, id string, answers []*float64) (*session.Session, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inst, err := s.scorer.Instrument(sess.InstrumentID)
	if err != nil {
		return nil, err
	}

	if len(answers) != inst.QuestionCount() {
		return nil, &domain.ShapeError{InstrumentID: inst.ID, Expected: inst.QuestionCount(), Actual: len(answers)}
	}
	var errs []error
	for i, v := range answers {
		if v == nil {
			continue
		}
		if err := engine.CheckItem(inst, i, *v); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for i, v := range answers {
		if v != nil {
			a := int(*v)
			sess.Answers[i] = &a
		}
	}
	sess.Completed = sess.Answered() == len(sess.Answers)
	sess.UpdatedAt = time.Now().UTC()
	if err := store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store answers: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":    sess.ID,
		"instrument_id": sess.InstrumentID,
		"answered":      sess.Answered(),
		"completed":     sess.Completed,
	}).Debug("Answers submitted")
	return sess, nil
}

// Results scores a completed session. It fails with ErrSessionIncomplete
// while any answer is missing and records whether the result needs human
// review.
func (s *ScreeningService) Results(ctx context.Context, id string) (*domain.ScoreResult, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, ok := sess.Vector()
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d answers given", domain.ErrSessionIncomplete, sess.Answered(), len(sess.Answers))
	}

	result, err := s.Score(ctx, sess.InstrumentID, answers)
	if err != nil {
		return nil, err
	}

	if sess.RequiresHumanReview != result.RequiresEscalation {
		sess.RequiresHumanReview = result.RequiresEscalation
		sess.UpdatedAt = time.Now().UTC()
		if err := store.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to flag session for review: %w", err)
		}
	}
	return result, nil
}

// DeleteSession discards a session.
func (s *ScreeningService) DeleteSession(ctx context.Context, id string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}
