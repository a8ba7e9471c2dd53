package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scoreflow/hyouka/internal/dataset"
	"github.com/scoreflow/hyouka/internal/output"
)

type buildDatasetOptions struct {
	scorecard    string
	score        string
	days         int
	limit        int
	limitPerCell int
	feedbackID   string
	format       string
}

func newBuildDatasetCmd() *cobra.Command {
	var opts buildDatasetOptions

	cmd := &cobra.Command{
		Use:   "build-dataset",
		Short: "Assemble a sampled training dataset from feedback records",
		RunE: func(c *cobra.Command, args []string) error {
			return runBuildDataset(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scorecard, "scorecard", "", "Scorecard id, externalId, key, or name")
	cmd.Flags().StringVar(&opts.score, "score", "", "Score id, name, key, or externalId")
	cmd.Flags().IntVar(&opts.days, "days", 30, "Lookback window in days")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Global row cap after sampling")
	cmd.Flags().IntVar(&opts.limitPerCell, "limit-per-cell", 0, "Row cap per (initial, final) answer cell")
	cmd.Flags().StringVar(&opts.feedbackID, "feedback-id", "", "Build a single-row dataset from exactly this feedback record")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json, yaml")
	_ = cmd.MarkFlagRequired("scorecard")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func runBuildDataset(c *cobra.Command, opts buildDatasetOptions) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	builder := dataset.New(client)
	frame, err := builder.Build(c.Context(), dataset.Params{
		AccountID:      cfg.AccountID,
		ScorecardInput: opts.scorecard,
		ScoreInput:     opts.score,
		Days:           opts.days,
		Limit:          opts.limit,
		LimitPerCell:   opts.limitPerCell,
		FeedbackID:     opts.feedbackID,
		ColumnMappings: cfg.ColumnMappings,
	})
	if err != nil {
		return fmt.Errorf("build-dataset: %w", err)
	}

	return render(c, frame, opts.format, output.Header{
		Title:     "Dataset",
		AccountID: cfg.AccountID,
	})
}
