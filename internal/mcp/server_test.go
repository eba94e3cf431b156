package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/catalog"
	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/engine"
	"github.com/rishicodesforfun/menta-question/internal/logging"
	"github.com/rishicodesforfun/menta-question/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	instruments, err := catalog.Default()
	require.NoError(t, err)
	registry, err := engine.NewRegistry(instruments...)
	require.NoError(t, err)

	logger := logging.Discard()
	server, err := NewServer(domain.MCPConfig{}, service.NewScreeningService(logger, registry, nil), logger)
	require.NoError(t, err)
	return server
}

func text(t *testing.T, result *mcp.CallToolResult, i int) string {
	t.Helper()
	require.Greater(t, len(result.Content), i)
	tc, ok := result.Content[i].(*mcp.TextContent)
	require.True(t, ok, "content %d is %T", i, result.Content[i])
	return tc.Text
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)

	assert.Equal(t, "menta-question", server.config.ServerName)
	assert.Equal(t, "1.0.0", server.config.ServerVersion)

	names := make([]string, 0, 3)
	for _, tool := range server.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.Equal(t, []string{ToolListInstruments, ToolDescribeInstrument, ToolScoreInstrument}, names)
}

func TestListInstrumentsTool(t *testing.T) {
	server := newTestServer(t)

	result, err := server.listInstruments(context.Background())
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var list []service.InstrumentSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, result, 0)), &list))
	assert.Len(t, list, 21)
}

func TestDescribeInstrumentTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, err := server.describeInstrument(ctx, DescribeInstrumentParams{InstrumentID: "who-5"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	var inst domain.Instrument
	require.NoError(t, json.Unmarshal([]byte(text(t, result, 0)), &inst))
	assert.Equal(t, "who-5", inst.ID)
	assert.Len(t, inst.Questions, 5)

	result, err = server.describeInstrument(ctx, DescribeInstrumentParams{InstrumentID: "nope"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result, 0), domain.ErrCodeUnknownInstrument)

	result, err = server.describeInstrument(ctx, DescribeInstrumentParams{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestScoreInstrumentTool(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, err := server.scoreInstrument(ctx, ScoreInstrumentParams{
		InstrumentID: "phq-9",
		Answers:      []float64{0, 0, 0, 0, 0, 0, 0, 0, 1},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "phq-9: total 1, None-minimal (requires escalation)", text(t, result, 0))

	var scored domain.ScoreResult
	require.NoError(t, json.Unmarshal([]byte(text(t, result, 1)), &scored))
	assert.True(t, scored.RequiresEscalation)
	assert.Len(t, scored.EscalationReasons, 1)

	result, err = server.scoreInstrument(ctx, ScoreInstrumentParams{
		InstrumentID: "erq",
		Answers:      []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "erq: N/A", text(t, result, 0))
}

func TestScoreInstrumentTool_Errors(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params ScoreInstrumentParams
		want   string
	}{
		{"missing id", ScoreInstrumentParams{Answers: []float64{1}}, "instrument_id is required"},
		{"missing answers", ScoreInstrumentParams{InstrumentID: "phq-4"}, "answers is required"},
		{"shape", ScoreInstrumentParams{InstrumentID: "phq-4", Answers: []float64{1, 1}}, domain.ErrCodeInvalidShape},
		{"range", ScoreInstrumentParams{InstrumentID: "phq-4", Answers: []float64{1, 1, 4, 0.5}}, domain.ErrCodeInvalidRange},
		{"unknown", ScoreInstrumentParams{InstrumentID: "nope", Answers: []float64{1}}, domain.ErrCodeUnknownInstrument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.scoreInstrument(ctx, tt.params)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, text(t, result, 0), tt.want)
		})
	}
}

func TestErrorResultListsEveryItem(t *testing.T) {
	err := errors.Join(
		&domain.RangeError{InstrumentID: "phq-4", Item: 3, Value: 4, Min: 0, Max: 3},
		&domain.RangeError{InstrumentID: "phq-4", Item: 4, Value: 0.5, Min: 0, Max: 3},
	)

	result := errorResult(err)
	assert.True(t, result.IsError)
	assert.Equal(t,
		"INVALID_RANGE: phq-4: Answer 3 must be an integer 0–3, got 4\nphq-4: Answer 4 must be an integer 0–3, got 0.5",
		text(t, result, 0))
}

func TestParseParams(t *testing.T) {
	var params ScoreInstrumentParams
	require.NoError(t, parseParams(map[string]any{
		"instrument_id": "gad-7",
		"answers":       []any{1.0, 2.0},
	}, &params))
	assert.Equal(t, "gad-7", params.InstrumentID)
	assert.Equal(t, []float64{1, 2}, params.Answers)

	require.NoError(t, parseParams(json.RawMessage(`{"instrument_id":"who-5"}`), &params))
	assert.Equal(t, "who-5", params.InstrumentID)

	assert.Error(t, parseParams(nil, &params))
	assert.Error(t, parseParams(map[string]any{"answers": "nope"}, &params))
}
