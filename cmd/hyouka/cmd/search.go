package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/output"
	"github.com/scoreflow/hyouka/internal/resolve"
)

type searchOptions struct {
	scorecard    string
	score        string
	days         int
	initialValue string
	finalValue   string
	limit        int
	format       string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find individual feedback records matching filters",
		RunE: func(c *cobra.Command, args []string) error {
			return runSearch(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scorecard, "scorecard", "", "Scorecard id, externalId, key, or name")
	cmd.Flags().StringVar(&opts.score, "score", "", "Score id, name, key, or externalId")
	cmd.Flags().IntVar(&opts.days, "days", 30, "Lookback window in days")
	cmd.Flags().StringVar(&opts.initialValue, "initial-value", "", "Filter to a specific initial (AI) answer value")
	cmd.Flags().StringVar(&opts.finalValue, "final-value", "", "Filter to a specific final (reviewer) answer value")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum records to return")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, yaml")
	_ = cmd.MarkFlagRequired("scorecard")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func runSearch(c *cobra.Command, opts searchOptions) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	resolver := resolve.New(client)
	scorecard, err := resolver.ResolveScorecard(c.Context(), cfg.AccountID, opts.scorecard)
	if err != nil {
		return fmt.Errorf("resolve scorecard: %w", err)
	}
	score, err := resolver.ResolveScore(scorecard, opts.score)
	if err != nil {
		return fmt.Errorf("resolve score: %w", err)
	}

	fb := feedback.NewEngine(client, nil)
	items, err := fb.Find(c.Context(), feedback.FindParams{
		AccountID:              cfg.AccountID,
		ScorecardID:            scorecard.ID,
		ScoreID:                score.ID,
		Days:                   opts.days,
		InitialValue:           optional(opts.initialValue),
		FinalValue:             optional(opts.finalValue),
		Limit:                  opts.limit,
		PrioritizeEditComments: true,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	result := map[string]any{
		"scorecard_id": scorecard.ID,
		"score_id":     score.ID,
		"total":        len(items),
		"items":        items,
	}
	return render(c, result, opts.format, output.Header{
		Title:       "Feedback search",
		AccountID:   cfg.AccountID,
		ScorecardID: scorecard.ID,
		ScoreID:     score.ID,
	})
}
