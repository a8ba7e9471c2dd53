package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/cost"
	"github.com/scoreflow/hyouka/internal/fanout"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/output"
)

type costOptions struct {
	scorecard string
	score     string
	days      int
	hours     int
	groupBy   string
	format    string
}

func newCostCmd() *cobra.Command {
	var opts costOptions

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "LLM cost totals and statistics over a time window",
		Long: `LLM cost totals and statistics over a time window. Pass --scorecard all
to fan out across every scorecard for the account, ranked by total cost
descending.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runCost(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scorecard, "scorecard", "", `Scorecard id. "all" fans out across every scorecard`)
	cmd.Flags().StringVar(&opts.score, "score", "", "Score id, scoped to the given scorecard")
	cmd.Flags().IntVar(&opts.days, "days", 7, "Lookback window in days")
	cmd.Flags().IntVar(&opts.hours, "hours", 0, "Lookback window in hours, takes precedence over days")
	cmd.Flags().StringVar(&opts.groupBy, "group-by", "", `One of "", "scorecard", "score", "scorecard_score"`)
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, yaml")

	return cmd
}

func runCost(c *cobra.Command, opts costOptions) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	aggregator := cost.NewAggregator(client)
	var hours *int
	if opts.hours > 0 {
		h := opts.hours
		hours = &h
	}

	var result any
	if opts.scorecard == "all" {
		orch := fanout.New(client, cfg.Concurrency).RankDescending(true)
		summary, err := orch.Run(c.Context(), cfg.AccountID, func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
			analyzer := aggregator.Analyzer(cost.Params{AccountID: cfg.AccountID, ScorecardID: sc.ID, Days: opts.days, Hours: hours})
			res, err := analyzer.Summarize(ctx)
			if err != nil {
				return fanout.Result{}, err
			}
			rank, _ := res.Totals.TotalCost.Float64()
			return fanout.Result{
				ScorecardID:   sc.ID,
				ScorecardName: sc.Name,
				TotalItems:    res.Totals.Count,
				Rank:          &rank,
				Value:         res,
			}, nil
		})
		if err != nil {
			return fmt.Errorf("cost: %w", err)
		}
		if hours != nil {
			summary.DateRange = fmt.Sprintf("last %d hours", *hours)
		} else {
			summary.DateRange = fmt.Sprintf("last %d days", opts.days)
		}
		result = summary
	} else {
		analyzer := aggregator.Analyzer(cost.Params{AccountID: cfg.AccountID, ScorecardID: opts.scorecard, ScoreID: opts.score, Days: opts.days, Hours: hours})
		analysis, err := analyzer.Analyze(c.Context(), cost.GroupBy(opts.groupBy))
		if err != nil {
			return fmt.Errorf("cost: %w", err)
		}
		result = analysis
	}

	return render(c, result, opts.format, output.Header{
		Title:     "Cost summary",
		AccountID: cfg.AccountID,
	})
}
