package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// DescribeInstrumentParams defines parameters for describe_instrument
type DescribeInstrumentParams struct {
	InstrumentID string `json:"instrument_id"`
}

// ScoreInstrumentParams defines parameters for score_instrument
type ScoreInstrumentParams struct {
	InstrumentID string    `json:"instrument_id"`
	Answers      []float64 `json:"answers"`
}

// parseParams decodes loosely typed tool arguments into a target struct
func parseParams(params interface{}, target interface{}) error {
	if params == nil {
		return fmt.Errorf("missing required parameters")
	}

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	if err := json.Unmarshal(paramsBytes, target); err != nil {
		return fmt.Errorf("failed to parse parameters: %w", err)
	}

	return nil
}

func (s *Server) listInstruments(context.Context) (*mcp.CallToolResult, error) {
	return jsonResult(s.screening.ListInstruments())
}

func (s *Server) describeInstrument(_ context.Context, params DescribeInstrumentParams) (*mcp.CallToolResult, error) {
	if params.InstrumentID == "" {
		return errorResult(errors.New("instrument_id is required")), nil
	}
	inst, err := s.screening.DescribeInstrument(params.InstrumentID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(inst)
}

func (s *Server) scoreInstrument(ctx context.Context, params ScoreInstrumentParams) (*mcp.CallToolResult, error) {
	if params.InstrumentID == "" {
		return errorResult(errors.New("instrument_id is required")), nil
	}
	if params.Answers == nil {
		return errorResult(errors.New("answers is required")), nil
	}
	result, err := s.screening.ScoreValues(ctx, params.InstrumentID, params.Answers)
	if err != nil {
		return errorResult(err), nil
	}

	summary := fmt.Sprintf("%s: %s", result.InstrumentID, result.Band)
	if result.TotalApplicable {
		summary = fmt.Sprintf("%s: total %d, %s", result.InstrumentID, result.TotalScore, result.Band)
	}
	if result.RequiresEscalation {
		summary += " (requires escalation)"
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

// errorResult reports a tool-level failure to the client. Validation
// failures list one line per offending item.
func errorResult(err error) *mcp.CallToolResult {
	var lines []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			lines = append(lines, e.Error())
		}
	} else {
		lines = append(lines, err.Error())
	}

	code := domain.ErrCodeInvalidInput
	var (
		shapeErr   *domain.ShapeError
		rangeErr   *domain.RangeError
		unknownErr *domain.UnknownInstrumentError
	)
	switch {
	case errors.As(err, &shapeErr):
		code = domain.ErrCodeInvalidShape
	case errors.As(err, &rangeErr):
		code = domain.ErrCodeInvalidRange
	case errors.As(err, &unknownErr):
		code = domain.ErrCodeUnknownInstrument
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: code + ": " + strings.Join(lines, "\n")},
		},
	}
}
