package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/scoreflow/hyouka/internal/analytics"
	"github.com/scoreflow/hyouka/internal/cost"
	"github.com/scoreflow/hyouka/internal/dataset"
	"github.com/scoreflow/hyouka/internal/fanout"
	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/model"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool("summarize",
			mcplib.WithDescription(`Summarize human/AI agreement and accuracy for a scorecard, or one score within it.

Pass scorecard="all" to fan out across every scorecard for the account,
ranked by agreement (AC1) descending.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("account_id", mcplib.Description("Account to query"), mcplib.Required()),
			mcplib.WithString("scorecard", mcplib.Description(`Scorecard id, externalId, key, or name. "all" fans out across every scorecard.`), mcplib.Required()),
			mcplib.WithString("score", mcplib.Description("Score id, name, key, or externalId. Omit to summarize every score on the scorecard.")),
			mcplib.WithNumber("days", mcplib.Description("Lookback window in days"), mcplib.DefaultNumber(30)),
			mcplib.WithString("initial_value", mcplib.Description("Filter to a specific initial (AI) answer value")),
			mcplib.WithString("final_value", mcplib.Description("Filter to a specific final (reviewer) answer value")),
		),
		s.handleSummarize,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("search_feedback",
			mcplib.WithDescription("Find individual feedback records for a scorecard/score matching filters."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("account_id", mcplib.Description("Account to query"), mcplib.Required()),
			mcplib.WithString("scorecard", mcplib.Description("Scorecard id, externalId, key, or name"), mcplib.Required()),
			mcplib.WithString("score", mcplib.Description("Score id, name, key, or externalId"), mcplib.Required()),
			mcplib.WithNumber("days", mcplib.Description("Lookback window in days"), mcplib.DefaultNumber(30)),
			mcplib.WithString("initial_value", mcplib.Description("Filter to a specific initial (AI) answer value")),
			mcplib.WithString("final_value", mcplib.Description("Filter to a specific final (reviewer) answer value")),
			mcplib.WithNumber("limit", mcplib.Description("Maximum records to return"), mcplib.DefaultNumber(20)),
		),
		s.handleSearchFeedback,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("build_dataset",
			mcplib.WithDescription("Assemble a sampled training dataset (rows keyed by content, feedback item, and score value) from feedback records."),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithString("account_id", mcplib.Description("Account to query"), mcplib.Required()),
			mcplib.WithString("scorecard", mcplib.Description("Scorecard id, externalId, key, or name"), mcplib.Required()),
			mcplib.WithString("score", mcplib.Description("Score id, name, key, or externalId"), mcplib.Required()),
			mcplib.WithNumber("days", mcplib.Description("Lookback window in days"), mcplib.DefaultNumber(30)),
			mcplib.WithNumber("limit", mcplib.Description("Global row cap after sampling")),
			mcplib.WithNumber("limit_per_cell", mcplib.Description("Row cap per (initial, final) answer cell")),
			mcplib.WithString("feedback_id", mcplib.Description("Build a single-row dataset from exactly this feedback record")),
		),
		s.handleBuildDataset,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("analyze_cost",
			mcplib.WithDescription(`LLM cost totals and statistics over a time window.

Pass scorecard="all" to fan out across every scorecard for the account,
ranked by total cost descending.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("account_id", mcplib.Description("Account to query"), mcplib.Required()),
			mcplib.WithString("scorecard", mcplib.Description(`Scorecard id. "all" fans out across every scorecard.`)),
			mcplib.WithString("score", mcplib.Description("Score id, scoped to the given scorecard")),
			mcplib.WithNumber("days", mcplib.Description("Lookback window in days"), mcplib.DefaultNumber(7)),
			mcplib.WithNumber("hours", mcplib.Description("Lookback window in hours, takes precedence over days")),
			mcplib.WithString("group_by", mcplib.Description(`One of "", "scorecard", "score", "scorecard_score"`)),
		),
		s.handleAnalyzeCost,
	)
}

func (s *Server) handleSummarize(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	accountID := request.GetString("account_id", "")
	scorecardInput := request.GetString("scorecard", "")
	if accountID == "" || scorecardInput == "" {
		return errorResult("account_id and scorecard are required"), nil
	}
	scoreInput := request.GetString("score", "")
	days := request.GetInt("days", 30)
	initialValue := optionalString(request, "initial_value")
	finalValue := optionalString(request, "final_value")

	if scorecardInput == "all" {
		summary, err := s.fanout.RankDescending(true).Run(ctx, accountID, func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
			result, err := s.analytics.Summarize(ctx, analytics.Params{
				AccountID: accountID, ScorecardInput: sc.ID, ScoreInput: scoreInput,
				Days: days, InitialValue: initialValue, FinalValue: finalValue,
			})
			if err != nil {
				return fanout.Result{}, err
			}
			return fanout.Result{
				ScorecardID: sc.ID, ScorecardName: sc.Name,
				TotalItems: result.Context.Total, Rank: rankFromAnalysis(result),
				Value: result,
			}, nil
		})
		if err != nil {
			return errorResult(fmt.Sprintf("summarize: %v", err)), nil
		}
		summary.DateRange = fmt.Sprintf("last %d days", days)
		return marshalResult(summary)
	}

	result, err := s.analytics.Summarize(ctx, analytics.Params{
		AccountID: accountID, ScorecardInput: scorecardInput, ScoreInput: scoreInput,
		Days: days, InitialValue: initialValue, FinalValue: finalValue,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("summarize: %v", err)), nil
	}
	return marshalResult(result)
}

// rankFromAnalysis picks the AC1 to rank a scorecard-level fan-out entry
// by: the single score's AC1 when one score was requested, otherwise the
// mean AC1 across the scores that have one.
func rankFromAnalysis(result model.SummaryResult) *float64 {
	if result.Analysis.AC1 != nil {
		v := *result.Analysis.AC1
		return &v
	}
	var sum float64
	var n int
	for _, entry := range result.Scores {
		if entry.Analysis.AC1 != nil {
			sum += *entry.Analysis.AC1
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func (s *Server) handleSearchFeedback(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	accountID := request.GetString("account_id", "")
	scorecardInput := request.GetString("scorecard", "")
	scoreInput := request.GetString("score", "")
	if accountID == "" || scorecardInput == "" || scoreInput == "" {
		return errorResult("account_id, scorecard, and score are required"), nil
	}
	days := request.GetInt("days", 30)
	limit := request.GetInt("limit", 20)
	initialValue := optionalString(request, "initial_value")
	finalValue := optionalString(request, "final_value")

	scorecard, err := s.resolver.ResolveScorecard(ctx, accountID, scorecardInput)
	if err != nil {
		return errorResult(fmt.Sprintf("resolve scorecard: %v", err)), nil
	}
	score, err := s.resolver.ResolveScore(scorecard, scoreInput)
	if err != nil {
		return errorResult(fmt.Sprintf("resolve score: %v", err)), nil
	}

	items, err := s.feedback.Find(ctx, feedback.FindParams{
		AccountID: accountID, ScorecardID: scorecard.ID, ScoreID: score.ID,
		Days: days, InitialValue: initialValue, FinalValue: finalValue,
		Limit: limit, PrioritizeEditComments: true,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("search_feedback: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"scorecard_id": scorecard.ID,
		"score_id":     score.ID,
		"total":        len(items),
		"items":        items,
	})
}

func (s *Server) handleBuildDataset(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	accountID := request.GetString("account_id", "")
	scorecardInput := request.GetString("scorecard", "")
	scoreInput := request.GetString("score", "")
	if accountID == "" || scorecardInput == "" || scoreInput == "" {
		return errorResult("account_id, scorecard, and score are required"), nil
	}

	frame, err := s.dataset.Build(ctx, dataset.Params{
		AccountID: accountID, ScorecardInput: scorecardInput, ScoreInput: scoreInput,
		Days:         request.GetInt("days", 30),
		Limit:        request.GetInt("limit", 0),
		LimitPerCell: request.GetInt("limit_per_cell", 0),
		FeedbackID:   request.GetString("feedback_id", ""),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("build_dataset: %v", err)), nil
	}
	return marshalResult(frame)
}

func (s *Server) handleAnalyzeCost(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	accountID := request.GetString("account_id", "")
	if accountID == "" {
		return errorResult("account_id is required"), nil
	}
	scorecardInput := request.GetString("scorecard", "")
	scoreInput := request.GetString("score", "")
	days := request.GetInt("days", 7)
	var hours *int
	if request.GetInt("hours", 0) > 0 {
		h := request.GetInt("hours", 0)
		hours = &h
	}
	groupBy := cost.GroupBy(request.GetString("group_by", ""))

	if scorecardInput == "all" {
		summary, err := s.fanout.RankDescending(true).Run(ctx, accountID, func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
			analyzer := s.cost.Analyzer(cost.Params{AccountID: accountID, ScorecardID: sc.ID, Days: days, Hours: hours})
			result, err := analyzer.Summarize(ctx)
			if err != nil {
				return fanout.Result{}, err
			}
			rank, _ := result.Totals.TotalCost.Float64()
			return fanout.Result{
				ScorecardID: sc.ID, ScorecardName: sc.Name,
				TotalItems: result.Totals.Count, Rank: &rank, Value: result,
			}, nil
		})
		if err != nil {
			return errorResult(fmt.Sprintf("analyze_cost: %v", err)), nil
		}
		if hours != nil {
			summary.DateRange = fmt.Sprintf("last %d hours", *hours)
		} else {
			summary.DateRange = fmt.Sprintf("last %d days", days)
		}
		return marshalResult(summary)
	}

	analyzer := s.cost.Analyzer(cost.Params{AccountID: accountID, ScorecardID: scorecardInput, ScoreID: scoreInput, Days: days, Hours: hours})
	analysis, err := analyzer.Analyze(ctx, groupBy)
	if err != nil {
		return errorResult(fmt.Sprintf("analyze_cost: %v", err)), nil
	}
	return marshalResult(analysis)
}

func optionalString(request mcplib.CallToolRequest, key string) *string {
	v := request.GetString(key, "")
	if v == "" {
		return nil
	}
	return &v
}

func marshalResult(v any) (*mcplib.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return textResult(string(b)), nil
}
