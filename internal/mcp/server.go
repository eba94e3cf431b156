// Package mcp exposes the screening service as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/service"
)

// Tool names
const (
	ToolListInstruments    = "list_instruments"
	ToolDescribeInstrument = "describe_instrument"
	ToolScoreInstrument    = "score_instrument"
)

// Server represents the MCP server implementation
type Server struct {
	config    domain.MCPConfig
	screening *service.ScreeningService
	mcpServer *mcp.Server
	tools     []*mcp.Tool
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance with every tool registered
func NewServer(cfg domain.MCPConfig, screening *service.ScreeningService, logger *logrus.Logger) (*Server, error) {
	if cfg.ServerName == "" {
		cfg.ServerName = "menta-question"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "1.0.0"
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		config:    cfg,
		screening: screening,
		mcpServer: mcp.NewServer(serverInfo, nil),
		logger:    logger,
	}

	if err := server.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return server, nil
}

// Start serves MCP over stdio until ctx is cancelled or the client hangs up
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"server_name":    s.config.ServerName,
		"server_version": s.config.ServerVersion,
		"tool_count":     len(s.tools),
	}).Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Tools returns the registered tool definitions
func (s *Server) Tools() []*mcp.Tool {
	return append([]*mcp.Tool(nil), s.tools...)
}

func (s *Server) registerTools() error {
	idSchema := &jsonschema.Schema{
		Type:        "string",
		Description: "Instrument identifier, e.g. phq-9",
	}

	s.addTool(&mcp.Tool{
		Name:        ToolListInstruments,
		Description: "List every screening instrument with its question count and total score range",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
		return s.listInstruments(ctx)
	})

	s.addTool(&mcp.Tool{
		Name:        ToolDescribeInstrument,
		Description: "Return the full definition of one instrument: questions, response scale, bands and escalation rules",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"instrument_id": idSchema},
			Required:   []string{"instrument_id"},
		},
	}, func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		var params DescribeInstrumentParams
		if err := parseParams(args, &params); err != nil {
			return errorResult(err), nil
		}
		return s.describeInstrument(ctx, params)
	})

	s.addTool(&mcp.Tool{
		Name:        ToolScoreInstrument,
		Description: "Score a complete answer vector. Answers are integers in question order; the result carries the band and any escalation reasons",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"instrument_id": idSchema,
				"answers": {
					Type:        "array",
					Description: "One answer per question, in question order",
					Items:       &jsonschema.Schema{Type: "number"},
				},
			},
			Required: []string{"instrument_id", "answers"},
		},
	}, func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		var params ScoreInstrumentParams
		if err := parseParams(args, &params); err != nil {
			return errorResult(err), nil
		}
		return s.scoreInstrument(ctx, params)
	})

	s.logger.WithField("tool_count", len(s.tools)).Debug("Registered MCP tools")
	return nil
}

type toolFunc func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// addTool registers a tool whose arguments are decoded into a map before
// reaching fn, and logs each call.
func (s *Server) addTool(tool *mcp.Tool, fn toolFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args map[string]any
		if req != nil && req.Params != nil && req.Params.Arguments != nil {
			if err := parseParams(req.Params.Arguments, &args); err != nil {
				return errorResult(err), nil
			}
		}

		result, err := fn(ctx, args)
		entry := s.logger.WithFields(logrus.Fields{
			"tool":            tool.Name,
			"processing_time": time.Since(start),
		})
		switch {
		case err != nil:
			entry.WithError(err).Error("Tool call failed")
		case result != nil && result.IsError:
			entry.Info("Tool call rejected")
		default:
			entry.Debug("Tool call completed")
		}
		return result, err
	})
}
