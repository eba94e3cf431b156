package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/middleware"
	"github.com/rishicodesforfun/menta-question/internal/session"
)

// errorResponse is the error envelope. Errors lists every offending item
// when a vector fails range validation.
type errorResponse struct {
	*domain.APIError
	Errors []*domain.RangeError `json:"errors,omitempty"`
}

// classify maps an error to its HTTP status and envelope code
func classify(err error) (int, string) {
	var (
		shapeErr   *domain.ShapeError
		rangeErr   *domain.RangeError
		unknownErr *domain.UnknownInstrumentError
		invalidErr *domain.ValidationError
	)
	switch {
	case errors.As(err, &shapeErr):
		return http.StatusUnprocessableEntity, domain.ErrCodeInvalidShape
	case errors.As(err, &rangeErr):
		return http.StatusUnprocessableEntity, domain.ErrCodeInvalidRange
	case errors.As(err, &unknownErr):
		return http.StatusNotFound, domain.ErrCodeUnknownInstrument
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, domain.ErrCodeSessionNotFound
	case errors.Is(err, domain.ErrSessionIncomplete):
		return http.StatusConflict, domain.ErrCodeSessionIncomplete
	case errors.Is(err, session.ErrUnavailable):
		return http.StatusServiceUnavailable, domain.ErrCodeStoreUnavailable
	case errors.As(err, &invalidErr):
		return http.StatusBadRequest, domain.ErrCodeInvalidInput
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternalServer
	}
}

// rangeErrors flattens a joined validation error into its item errors
func rangeErrors(err error) []*domain.RangeError {
	var out []*domain.RangeError
	var walk func(error)
	walk = func(e error) {
		if re, ok := e.(*domain.RangeError); ok {
			out = append(out, re)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
		}
	}
	walk(err)
	return out
}

// writeError renders err with its mapped status. Internal errors are
// logged and their text is withheld from the client.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	requestID := middleware.GetCorrelationID(c)

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField(middleware.CorrelationIDKey, requestID).Error("Request failed")
		message = "internal server error"
	}

	resp := errorResponse{APIError: domain.NewAPIError(code, message, "", requestID)}
	if code == domain.ErrCodeInvalidRange {
		resp.Errors = rangeErrors(err)
		if len(resp.Errors) > 0 {
			resp.Item = resp.Errors[0].Item
		}
	}
	c.AbortWithStatusJSON(status, resp)
}
