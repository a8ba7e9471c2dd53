package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// before-analysis — guides an agent through picking a scorecard/score
	// before calling summarize, search_feedback, or analyze_cost.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("before-analysis",
			mcplib.WithPromptDescription("Guide for choosing a scorecard and score before running an analysis"),
			mcplib.WithArgument("account_id",
				mcplib.ArgumentDescription("The account to analyze"),
				mcplib.RequiredArgument(),
			),
			mcplib.WithArgument("goal",
				mcplib.ArgumentDescription("What you're trying to learn, e.g. \"find disagreement hotspots\" or \"check LLM spend\""),
			),
		),
		s.handleBeforeAnalysisPrompt,
	)

	// agent-setup — full system prompt snippet explaining the tool set and
	// scorecard/score resolution rules.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("agent-setup",
			mcplib.WithPromptDescription("System prompt snippet explaining hyouka's tools and input resolution"),
		),
		s.handleAgentSetupPrompt,
	)
}

func (s *Server) handleBeforeAnalysisPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	accountID := request.Params.Arguments["account_id"]
	if accountID == "" {
		return nil, fmt.Errorf("account_id argument is required")
	}
	goal := request.Params.Arguments["goal"]
	if goal == "" {
		goal = "a general agreement and cost review"
	}

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Pick a scorecard and score for account %s before analyzing", accountID),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`You're about to analyze feedback for account %q. Goal: %s.

1. If you don't already know the scorecard, call summarize with
   scorecard="all" first — it fans out across every scorecard and ranks by
   agreement, giving you an overview before you drill into one.

2. Once you've picked a scorecard, call summarize again scoped to it
   (scorecard=<id/name>, score omitted) to see every score's agreement and
   accuracy, including any aggregate warning across scores.

3. If a score's warning or accuracy calls for closer inspection, call
   search_feedback scoped to that scorecard and score to pull the
   individual records behind the number.

4. If the goal involves cost, call analyze_cost the same way: scorecard="all"
   for an account-wide ranked view, or scoped to one scorecard/score for
   detail.

Scorecard and score inputs accept an id, externalId, key, or name/substring
match — you don't need the exact id up front.`, accountID, goal),
				},
			},
		},
	}, nil
}

func (s *Server) handleAgentSetupPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "hyouka feedback agreement analytics — tool overview",
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: serverInstructions,
				},
			},
		},
	}, nil
}
