package domain

import (
	"github.com/sirupsen/logrus"
)

// SubscaleScore is one entry of a result's subscale map. Band is empty when
// the subscale defines no bands.
type SubscaleScore struct {
	Score float64 `json:"score"`
	Band  string  `json:"band,omitempty"`
}

// ScoreResult is the immutable output of scoring one answer vector.
type ScoreResult struct {
	InstrumentID       string                   `json:"instrument_id"`
	TotalScore         int                      `json:"total_score"`
	TotalApplicable    bool                     `json:"total_applicable"`
	Band               string                   `json:"band"`
	BandDescription    string                   `json:"band_description,omitempty"`
	Severity           int                      `json:"severity"`
	SubscaleScores     map[string]SubscaleScore `json:"subscale_scores,omitempty"`
	RequiresEscalation bool                     `json:"requires_escalation"`
	EscalationReasons  []string                 `json:"escalation_reasons"`
	RawAnswers         []int                    `json:"raw_answers"`
}

// LogFields returns structured logging fields for the result. Raw answers
// are never logged.
func (r *ScoreResult) LogFields() logrus.Fields {
	return logrus.Fields{
		"instrument_id":       r.InstrumentID,
		"total_score":         r.TotalScore,
		"total_applicable":    r.TotalApplicable,
		"band":                r.Band,
		"severity":            r.Severity,
		"subscale_count":      len(r.SubscaleScores),
		"requires_escalation": r.RequiresEscalation,
		"reason_count":        len(r.EscalationReasons),
	}
}

// Clone returns a deep copy of the result.
func (r *ScoreResult) Clone() *ScoreResult {
	out := *r
	if r.SubscaleScores != nil {
		out.SubscaleScores = make(map[string]SubscaleScore, len(r.SubscaleScores))
		for k, v := range r.SubscaleScores {
			out.SubscaleScores[k] = v
		}
	}
	out.EscalationReasons = append([]string{}, r.EscalationReasons...)
	out.RawAnswers = append([]int(nil), r.RawAnswers...)
	return &out
}
