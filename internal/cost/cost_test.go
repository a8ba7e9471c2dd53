package cost_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/cost"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
)

func costResult(id, scorecardID, scoreID, scoreName string, totalCost float64, calls int, updatedAt time.Time) model.ScoreResult {
	return model.ScoreResult{
		ID:          id,
		AccountID:   "acct-1",
		ScorecardID: scorecardID,
		ScoreID:     scoreID,
		ScoreName:   scoreName,
		UpdatedAt:   updatedAt,
		Cost: model.NewJSONValueFromAny(map[string]any{
			"total_cost":   totalCost,
			"input_cost":   totalCost * 0.6,
			"output_cost":  totalCost * 0.4,
			"llm_calls":    float64(calls),
			"prompt_tokens": float64(100),
		}),
	}
}

func TestAnalyzer_Summarize_GroupsByScorecardAndScore(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScoreResults(
		costResult("1", "sc-1", "score-1", "Greeting", 1.0, 2, now),
		costResult("2", "sc-1", "score-1", "Greeting", 2.0, 3, now),
		costResult("3", "sc-1", "score-2", "Closing", 0.5, 1, now),
	)

	agg := cost.NewAggregator(fake)
	analyzer := agg.Analyzer(cost.Params{AccountID: "acct-1", Days: 7}).WithClock(func() time.Time { return now })
	summary, err := analyzer.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Totals.Count)
	require.Len(t, summary.Groups, 2)
	assert.True(t, summary.Totals.TotalCost.Equal(summary.Groups[0].TotalCost.Add(summary.Groups[1].TotalCost)))
}

func TestAnalyzer_Analyze_HeadlineStatsIncludeMedianAndQuartiles(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScoreResults(
		costResult("1", "sc-1", "score-1", "A", 1.0, 1, now),
		costResult("2", "sc-1", "score-1", "A", 2.0, 2, now),
		costResult("3", "sc-1", "score-1", "A", 3.0, 3, now),
		costResult("4", "sc-1", "score-1", "A", 4.0, 4, now),
	)

	agg := cost.NewAggregator(fake)
	analyzer := agg.Analyzer(cost.Params{AccountID: "acct-1", Days: 7}).WithClock(func() time.Time { return now })
	analysis, err := analyzer.Analyze(context.Background(), cost.GroupByNone)
	require.NoError(t, err)

	assert.Equal(t, 4, analysis.HeadlineCost.Count)
	assert.True(t, analysis.HeadlineCost.Median.GreaterThan(analysis.HeadlineCost.Q1))
	assert.True(t, analysis.HeadlineCost.Q3.GreaterThan(analysis.HeadlineCost.Median))
}

func TestAnalyzer_Load_UsesSingleEntryCacheOnRepeatedCall(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScoreResults(costResult("1", "sc-1", "score-1", "A", 1.0, 1, now))

	agg := cost.NewAggregator(fake)
	params := cost.Params{AccountID: "acct-1", Days: 7}
	a1 := agg.Analyzer(params).WithClock(func() time.Time { return now })
	require.NoError(t, a1.Load(context.Background()))

	fake.AddScoreResults(costResult("2", "sc-1", "score-1", "A", 9.0, 1, now))

	a2 := agg.Analyzer(params).WithClock(func() time.Time { return now })
	require.NoError(t, a2.Load(context.Background()))
	summary, err := a2.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Count, "second analyzer should reuse the cached single-entry result, not re-fetch")
}

func TestAnalyzer_Summarize_AverageCostPerItemOverDistinctItemIDs(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	withItem := func(sr model.ScoreResult, itemID string) model.ScoreResult {
		sr.ItemID = &itemID
		return sr
	}
	fake.AddScoreResults(
		withItem(costResult("1", "sc-1", "score-1", "Greeting", 1.0, 1, now), "item-1"),
		withItem(costResult("2", "sc-1", "score-1", "Greeting", 3.0, 1, now), "item-1"),
		withItem(costResult("3", "sc-1", "score-1", "Greeting", 2.0, 1, now), "item-2"),
		costResult("4", "sc-1", "score-2", "Closing", 10.0, 1, now), // no itemId: excluded from the distinct-item count
	)

	agg := cost.NewAggregator(fake)
	analyzer := agg.Analyzer(cost.Params{AccountID: "acct-1", Days: 7}).WithClock(func() time.Time { return now })
	summary, err := analyzer.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Totals.DistinctItems)
	require.NotNil(t, summary.Totals.AverageCostPerItem)
	assert.True(t, summary.Totals.AverageCostPerItem.Equal(summary.Totals.TotalCost.Div(decimal.NewFromInt(2))))

	require.Len(t, summary.Groups, 2)
	group1 := summary.Groups[0]
	assert.Equal(t, "score-1", group1.ScoreID)
	assert.Equal(t, 2, group1.DistinctItems)
	require.NotNil(t, group1.AverageCostPerItem)
	assert.True(t, group1.AverageCostPerItem.Equal(group1.TotalCost.Div(decimal.NewFromInt(2))))

	group2 := summary.Groups[1]
	assert.Equal(t, "score-2", group2.ScoreID)
	assert.Equal(t, 0, group2.DistinctItems)
	assert.Nil(t, group2.AverageCostPerItem)
}

func TestAnalyzer_Analyze_GroupedByScorecardScore(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScoreResults(
		costResult("1", "sc-1", "score-1", "A", 1.0, 1, now),
		costResult("2", "sc-2", "score-9", "B", 5.0, 5, now),
	)

	agg := cost.NewAggregator(fake)
	analyzer := agg.Analyzer(cost.Params{AccountID: "acct-1", Days: 7}).WithClock(func() time.Time { return now })
	analysis, err := analyzer.Analyze(context.Background(), cost.GroupByScorecardScore)
	require.NoError(t, err)
	assert.Len(t, analysis.Groups, 2)
}
