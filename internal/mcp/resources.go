package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/scoreflow/hyouka/internal/analytics"
	"github.com/scoreflow/hyouka/internal/cost"
)

func (s *Server) registerResources() {
	// hyouka://scorecard/{accountId}/{id}/summary — agreement/accuracy
	// summary for a scorecard, same computation as the summarize tool with
	// a 30-day window and every score on the scorecard.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"hyouka://scorecard/{accountId}/{id}/summary",
			"Scorecard Summary",
			mcplib.WithTemplateDescription("Agreement and accuracy summary for a scorecard over the last 30 days"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleScorecardSummaryResource,
	)

	// hyouka://scorecard/{accountId}/{id}/cost — cost totals for a
	// scorecard, same computation as the analyze_cost tool with a 7-day
	// window.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"hyouka://scorecard/{accountId}/{id}/cost",
			"Scorecard Cost",
			mcplib.WithTemplateDescription("LLM cost totals for a scorecard over the last 7 days"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleScorecardCostResource,
	)
}

// parseScorecardResourceURI extracts (accountId, scorecardId) from
// "hyouka://scorecard/{accountId}/{id}/{suffix}".
func parseScorecardResourceURI(uri, suffix string) (accountID, scorecardID string, err error) {
	const prefix = "hyouka://scorecard/"
	tail := "/" + suffix
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, tail) {
		return "", "", fmt.Errorf("mcp: invalid scorecard resource URI: %s", uri)
	}
	middle := uri[len(prefix) : len(uri)-len(tail)]
	parts := strings.SplitN(middle, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("mcp: invalid scorecard resource URI: %s", uri)
	}
	return parts[0], parts[1], nil
}

func (s *Server) handleScorecardSummaryResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	accountID, scorecardID, err := parseScorecardResourceURI(uri, "summary")
	if err != nil {
		return nil, err
	}

	scorecard, err := s.resolver.ResolveScorecard(ctx, accountID, scorecardID)
	if err != nil {
		return nil, fmt.Errorf("mcp: scorecard summary resource: resolve scorecard: %w", err)
	}

	result, err := s.analytics.Summarize(ctx, analytics.Params{
		AccountID: accountID, ScorecardInput: scorecard.ID, Days: 30,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp: scorecard summary resource: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal scorecard summary: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func (s *Server) handleScorecardCostResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	accountID, scorecardID, err := parseScorecardResourceURI(uri, "cost")
	if err != nil {
		return nil, err
	}

	scorecard, err := s.resolver.ResolveScorecard(ctx, accountID, scorecardID)
	if err != nil {
		return nil, fmt.Errorf("mcp: scorecard cost resource: resolve scorecard: %w", err)
	}

	analyzer := s.cost.Analyzer(cost.Params{AccountID: accountID, ScorecardID: scorecard.ID, Days: 7})
	summary, err := analyzer.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: scorecard cost resource: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal scorecard cost: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
