package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/health"
)

// ScoreRequest is the body of POST /instruments/:id/score
type ScoreRequest struct {
	Answers []*float64 `json:"answers" binding:"required"`
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	InstrumentID string `json:"instrument_id" binding:"required"`
}

// SubmitAnswersRequest is the body of PUT /sessions/:id/answers. Null
// entries keep the stored answer.
type SubmitAnswersRequest struct {
	Answers []*float64 `json:"answers" binding:"required"`
}

// handleHealth handles health check requests. A degraded session store
// still answers 200 since stateless scoring keeps working.
func (s *Server) handleHealth(c *gin.Context) {
	status := s.health.Run(c.Request.Context())
	code := http.StatusOK
	if status.Overall == health.HealthStateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status.Overall,
		"timestamp":   status.Timestamp,
		"version":     Version,
		"instruments": len(s.screening.ListInstruments()),
		"components":  status.Components,
	})
}

func (s *Server) handleListInstruments(c *gin.Context) {
	instruments := s.screening.ListInstruments()
	c.JSON(http.StatusOK, gin.H{
		"instruments": instruments,
		"count":       len(instruments),
	})
}

func (s *Server) handleGetInstrument(c *gin.Context) {
	inst, err := s.screening.DescribeInstrument(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if !s.bind(c, &req) {
		return
	}
	values := make([]float64, len(req.Answers))
	for i, v := range req.Answers {
		if v == nil {
			s.writeError(c, domain.NewValidationError(fmt.Sprintf("answers[%d]", i), "answer is required", nil))
			return
		}
		values[i] = *v
	}

	result, err := s.screening.ScoreValues(c.Request.Context(), c.Param("id"), values)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if !s.bind(c, &req) {
		return
	}
	sess, err := s.screening.CreateSession(c.Request.Context(), req.InstrumentID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/sessions/"+sess.ID)
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.screening.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.screening.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSubmitAnswers(c *gin.Context) {
	var req SubmitAnswersRequest
	if !s.bind(c, &req) {
		return
	}
	sess, err := s.screening.SubmitAnswers(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleResults(c *gin.Context) {
	result, err := s.screening.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// bind decodes the JSON body, writing a 400 on failure
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.writeError(c, domain.NewValidationError("body", err.Error(), nil))
		return false
	}
	return true
}
