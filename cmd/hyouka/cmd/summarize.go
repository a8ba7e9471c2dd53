package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/analytics"
	"github.com/scoreflow/hyouka/internal/fanout"
	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/output"
	"github.com/scoreflow/hyouka/internal/resolve"
)

type summarizeOptions struct {
	scorecard    string
	score        string
	days         int
	initialValue string
	finalValue   string
	format       string
}

func newSummarizeCmd() *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize human/AI agreement and accuracy for a scorecard or score",
		Long: `Summarize human/AI agreement and accuracy for a scorecard, or one score
within it. Pass --scorecard all to fan out across every scorecard for the
account, ranked by agreement (AC1) descending.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runSummarize(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scorecard, "scorecard", "", `Scorecard id, externalId, key, or name. "all" fans out across every scorecard`)
	cmd.Flags().StringVar(&opts.score, "score", "", "Score id, name, key, or externalId (omit to summarize every score)")
	cmd.Flags().IntVar(&opts.days, "days", 30, "Lookback window in days")
	cmd.Flags().StringVar(&opts.initialValue, "initial-value", "", "Filter to a specific initial (AI) answer value")
	cmd.Flags().StringVar(&opts.finalValue, "final-value", "", "Filter to a specific final (reviewer) answer value")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, yaml")
	_ = cmd.MarkFlagRequired("scorecard")

	return cmd
}

func runSummarize(c *cobra.Command, opts summarizeOptions) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	resolver := resolve.New(client)
	fb := feedback.NewEngine(client, nil)
	engine := analytics.New(resolver, fb, nil)

	base := analytics.Params{
		AccountID:    cfg.AccountID,
		ScoreInput:   opts.score,
		Days:         opts.days,
		InitialValue: optional(opts.initialValue),
		FinalValue:   optional(opts.finalValue),
	}

	var result any
	if opts.scorecard == "all" {
		orch := fanout.New(client, cfg.Concurrency).RankDescending(true)
		summary, err := orch.Run(c.Context(), cfg.AccountID, func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
			p := base
			p.ScorecardInput = sc.ID
			res, err := engine.Summarize(ctx, p)
			if err != nil {
				return fanout.Result{}, err
			}
			return fanout.Result{
				ScorecardID:   sc.ID,
				ScorecardName: sc.Name,
				TotalItems:    res.Context.Total,
				Rank:          rankFromSummary(res),
				Value:         res,
			}, nil
		})
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
		summary.DateRange = fmt.Sprintf("last %d days", opts.days)
		result = summary
	} else {
		p := base
		p.ScorecardInput = opts.scorecard
		res, err := engine.Summarize(c.Context(), p)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
		result = res
	}

	return render(c, result, opts.format, output.Header{
		Title:     "Agreement summary",
		AccountID: cfg.AccountID,
	})
}

// rankFromSummary picks the AC1 to rank a scorecard-level fan-out entry by:
// the single score's AC1 when one score was requested, otherwise the mean
// AC1 across the scores that have one.
func rankFromSummary(result model.SummaryResult) *float64 {
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

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
