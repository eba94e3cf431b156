package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// IssueSeverity grades a catalog finding.
type IssueSeverity string

const (
	IssueError   IssueSeverity = "error"
	IssueWarning IssueSeverity = "warning"
	IssueInfo    IssueSeverity = "info"
)

// ValidationIssue is one finding of the catalog checker.
type ValidationIssue struct {
	Severity IssueSeverity `json:"severity"`
	Field    string        `json:"field"`
	Message  string        `json:"message"`
}

// ValidationReport summarizes the health of one instrument definition.
type ValidationReport struct {
	InstrumentID   string            `json:"instrument_id"`
	Confidence     float64           `json:"confidence"`
	Issues         []ValidationIssue `json:"issues"`
	SuggestedFixes []string          `json:"suggested_fixes"`
	NeedsReview    bool              `json:"needs_review"`
	Timestamp      time.Time         `json:"timestamp"`
	QuestionCount  int               `json:"question_count"`
	ScaleRange     domain.Range      `json:"scale_range"`
	BandsCovered   bool              `json:"bands_covered"`
}

// Report checks an instrument and grades it. Errors are the configuration
// violations reported by Validate; warnings and info flag content gaps that
// do not stop the instrument from loading.
func Report(inst *domain.Instrument) *ValidationReport {
	report := &ValidationReport{
		InstrumentID:   inst.ID,
		Issues:         []ValidationIssue{},
		SuggestedFixes: []string{},
		Timestamp:      time.Now().UTC(),
		QuestionCount:  inst.QuestionCount(),
		ScaleRange:     domain.Range{Min: inst.Scale.Min, Max: inst.Scale.Max},
		BandsCovered:   true,
	}

	if err := inst.Validate(); err != nil {
		for _, ce := range flatten(err) {
			report.Issues = append(report.Issues, ValidationIssue{
				Severity: IssueError,
				Field:    ce.Field,
				Message:  ce.Message,
			})
			if isBandField(ce.Field) {
				report.BandsCovered = false
			}
		}
		report.SuggestedFixes = append(report.SuggestedFixes, "Fix the reported configuration errors before loading this instrument.")
	}

	if inst.Title == "" {
		report.warn("title", "title is empty", "Add a human-readable title.")
	}
	if inst.Disclaimer == "" {
		report.warn("non_diagnostic_disclaimer", "no non-diagnostic disclaimer", "Add a disclaimer stating the result is not a diagnosis.")
	}
	if inst.Timeframe == "" {
		report.info("timeframe", "no timeframe given")
	}
	for i, q := range inst.Questions {
		if q.Text == "" {
			report.warn("questions", "question "+q.ID+" has no text", "Add question text.")
		}
		if q.HighRisk && !hasItemRule(inst, i) {
			report.warn("questions", "high-risk question "+q.ID+" has no escalation rule", "Add an escalation rule watching the high-risk item.")
		}
	}
	if !inst.HasTotal() && inst.Scoring.NotApplicableDescription == "" {
		report.info("scoring.not_applicable_description", "no description shown in place of a band")
	}

	errorsFound, warnings := 0, 0
	for _, issue := range report.Issues {
		switch issue.Severity {
		case IssueError:
			errorsFound++
		case IssueWarning:
			warnings++
		}
	}
	report.Confidence = confidence(errorsFound, warnings)
	report.NeedsReview = errorsFound > 0 || warnings > 0
	return report
}

func (r *ValidationReport) warn(field, message, fix string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: IssueWarning, Field: field, Message: message})
	r.SuggestedFixes = append(r.SuggestedFixes, fix)
}

func (r *ValidationReport) info(field, message string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: IssueInfo, Field: field, Message: message})
}

// confidence starts at 1 and loses 0.25 per error and 0.05 per warning.
func confidence(errorsFound, warnings int) float64 {
	c := 1.0 - 0.25*float64(errorsFound) - 0.05*float64(warnings)
	if c < 0 {
		return 0
	}
	return domain.RoundHundredths(c)
}

func flatten(err error) []*domain.ConfigError {
	var out []*domain.ConfigError
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	var ce *domain.ConfigError
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}

func isBandField(field string) bool {
	return strings.HasSuffix(field, "bands")
}

func hasItemRule(inst *domain.Instrument, item int) bool {
	for _, r := range inst.EscalationRules {
		switch r.Target.Kind {
		case domain.TargetItem:
			if r.Target.Item == item {
				return true
			}
		case domain.TargetItems:
			for _, i := range r.Target.Items {
				if i == item {
					return true
				}
			}
		}
	}
	return false
}
