package domain

import (
	"fmt"
	"strconv"
	"time"
)

// APIError represents a standardized error response for transports
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Item      int       `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidShape      = "INVALID_SHAPE"
	ErrCodeInvalidRange      = "INVALID_RANGE"
	ErrCodeUnknownInstrument = "UNKNOWN_INSTRUMENT"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodeSessionIncomplete = "SESSION_INCOMPLETE"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ShapeError reports an answer vector whose length does not match the
// instrument's question count.
type ShapeError struct {
	InstrumentID string `json:"instrument_id"`
	Expected     int    `json:"expected"`
	Actual       int    `json:"actual"`
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s requires exactly %d answers, got %d", e.InstrumentID, e.Expected, e.Actual)
}

// RangeError reports a non-integer or out-of-bounds answer. Item is 1-based
// so a UI can highlight the offending question directly.
type RangeError struct {
	InstrumentID string  `json:"instrument_id"`
	Item         int     `json:"item"`
	Value        float64 `json:"value"`
	Min          int     `json:"min"`
	Max          int     `json:"max"`
	Label        string  `json:"label,omitempty"`
}

// Error implements the error interface
func (e *RangeError) Error() string {
	subject := "Answer " + strconv.Itoa(e.Item)
	if e.Label != "" {
		subject += " (" + e.Label + ")"
	}
	return fmt.Sprintf("%s: %s must be %s, got %s",
		e.InstrumentID, subject, e.Bound(), strconv.FormatFloat(e.Value, 'f', -1, 64))
}

// Bound describes the expected value set in words.
func (e *RangeError) Bound() string {
	switch {
	case e.Min == e.Max:
		return fmt.Sprintf("%d (non-scored)", e.Min)
	case e.Min == 0 && e.Max == 1:
		return "0 or 1"
	default:
		return fmt.Sprintf("an integer %d–%d", e.Min, e.Max)
	}
}

// UnknownInstrumentError reports a registry lookup miss.
type UnknownInstrumentError struct {
	InstrumentID string `json:"instrument_id"`
}

// Error implements the error interface
func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("no scoring function registered for instrument: %q", e.InstrumentID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match lookup misses.
func (e *UnknownInstrumentError) Unwrap() error {
	return ErrNotFound
}

// ConfigError reports a violated catalog invariant. These are detected once
// when instruments are loaded and are fatal at startup.
type ConfigError struct {
	InstrumentID string `json:"instrument_id"`
	Field        string `json:"field"`
	Message      string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("instrument %q: %s: %s", e.InstrumentID, e.Field, e.Message)
}

// NewConfigError creates a ConfigError with a formatted message
func NewConfigError(instrumentID, field, format string, args ...any) *ConfigError {
	return &ConfigError{
		InstrumentID: instrumentID,
		Field:        field,
		Message:      fmt.Sprintf(format, args...),
	}
}

// ValidationError represents request validation errors at the transport layer
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
