// Package mcp implements the Model Context Protocol server surface: the
// agent-facing entry point exposing summarize, search_feedback,
// build_dataset, and analyze_cost as MCP tools over the same engines the
// CLI drives, grounded in the teacher's own internal/mcp server shape.
package mcp

import (
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/scoreflow/hyouka/internal/analytics"
	"github.com/scoreflow/hyouka/internal/cost"
	"github.com/scoreflow/hyouka/internal/dataset"
	"github.com/scoreflow/hyouka/internal/fanout"
	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/resolve"
)

// serverInstructions is sent to every MCP client during the initialize
// handshake, describing the four tools and when to reach for each.
const serverInstructions = `You have access to hyouka, a feedback agreement analytics service.

TOOLS:
- summarize: human/AI agreement and accuracy for a scorecard (or one score
  within it). Pass scorecard="all" to fan out across every scorecard.
- search_feedback: find individual feedback records matching filters.
- build_dataset: assemble a sampled training dataset from feedback records.
- analyze_cost: LLM cost totals and statistics over a time window. Pass
  scorecard="all" to fan out and rank by total cost.

Scorecard and score inputs accept an id, externalId, key, or name/substring
match — resolution is automatic.`

// Server wraps the MCP server with hyouka's engines.
type Server struct {
	mcpServer *mcpserver.MCPServer
	resolver  *resolve.Resolver
	feedback  *feedback.Engine
	analytics *analytics.Engine
	dataset   *dataset.Builder
	cost      *cost.Aggregator
	fanout    *fanout.Orchestrator
	logger    *slog.Logger
}

// New creates and configures an MCP server exposing every tool over the
// given remote client.
func New(client remote.Client, logger *slog.Logger, version string, concurrency int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := resolve.New(client)
	fb := feedback.NewEngine(client, logger)

	s := &Server{
		resolver:  resolver,
		feedback:  fb,
		analytics: analytics.New(resolver, fb, logger),
		dataset:   dataset.New(client),
		cost:      cost.NewAggregator(client),
		fanout:    fanout.New(client, concurrency),
		logger:    logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"hyouka",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithInstructions(serverInstructions),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
