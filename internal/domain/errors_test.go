package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Range error",
			code:      ErrCodeInvalidRange,
			message:   "Answer 3 must be an integer 0–3, got 4",
			details:   "phq-9",
			requestID: "req-123",
		},
		{
			name:      "Store error",
			code:      ErrCodeStoreUnavailable,
			message:   "Session store unavailable",
			details:   "circuit breaker is open",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestShapeError(t *testing.T) {
	err := &ShapeError{InstrumentID: "phq-9", Expected: 9, Actual: 8}

	expected := "phq-9 requires exactly 9 answers, got 8"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestRangeError(t *testing.T) {
	tests := []struct {
		name     string
		err      *RangeError
		expected string
	}{
		{
			name:     "Integer bound",
			err:      &RangeError{InstrumentID: "gad-7", Item: 3, Value: 4, Min: 0, Max: 3},
			expected: "gad-7: Answer 3 must be an integer 0–3, got 4",
		},
		{
			name:     "Binary bound",
			err:      &RangeError{InstrumentID: "suicide-risk", Item: 6, Value: 2, Min: 0, Max: 1},
			expected: "suicide-risk: Answer 6 must be 0 or 1, got 2",
		},
		{
			name:     "Non-scored item with label",
			err:      &RangeError{InstrumentID: "cognitive", Item: 6, Value: 1, Min: 0, Max: 0, Label: "word_learning"},
			expected: "cognitive: Answer 6 (word_learning) must be 0 (non-scored), got 1",
		},
		{
			name:     "Fractional value",
			err:      &RangeError{InstrumentID: "phq-4", Item: 1, Value: 1.5, Min: 0, Max: 3},
			expected: "phq-4: Answer 1 must be an integer 0–3, got 1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestUnknownInstrumentError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &UnknownInstrumentError{InstrumentID: "phq-10"})

	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected errors.Is to match ErrNotFound")
	}

	var unknown *UnknownInstrumentError
	if !errors.As(err, &unknown) {
		t.Fatal("Expected errors.As to find UnknownInstrumentError")
	}
	if unknown.InstrumentID != "phq-10" {
		t.Errorf("Expected instrument phq-10, got %s", unknown.InstrumentID)
	}
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("gad-7", "scoring.bands", "band %q starts at %d", "Mild", 6)

	expected := `instrument "gad-7": scoring.bands: band "Mild" starts at 6`
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("answers", "must not be empty", nil)

	expected := "validation error for field 'answers': must not be empty"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
