package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/analytics"
	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
	"github.com/scoreflow/hyouka/internal/resolve"
)

func strp(s string) *string { return &s }

// TestEngine_Summarize_BalancedBinary exercises spec §8 scenario 1: 10 pairs,
// 7 (Yes,Yes) + 3 (Yes,No): accuracy=70, all final values "Yes" so the
// balance check reports single-class despite two answer labels existing.
func TestEngine_Summarize_BalancedBinary(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(model.Scorecard{
		ID: "sc-1", AccountID: "acct-1", Name: "Support QA",
		Sections: []model.Section{{Scores: []model.Score{{ID: "score-1", Name: "Greeting", ExternalID: strp("ext-1")}}}},
	})

	for i := 0; i < 7; i++ {
		fake.AddFeedback(model.FeedbackItem{
			ID: idOf(i), AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
			InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
		})
	}
	for i := 7; i < 10; i++ {
		fake.AddFeedback(model.FeedbackItem{
			ID: idOf(i), AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
			InitialAnswerValue: strp("No"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
		})
	}
	// All final values are "Yes" (7 agreements + 3 disagreements where the
	// reviewer corrected "No" to "Yes"), matching spec §8 scenario 1 exactly.

	eng := analytics.New(resolve.New(fake), feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now }), nil)
	result, err := eng.Summarize(context.Background(), analytics.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1", Days: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Analysis.TotalItems)
	assert.Equal(t, 7, result.Analysis.Agreements)
	assert.Equal(t, 3, result.Analysis.Disagreements)
	assert.InDelta(t, 70.0, result.Analysis.Accuracy, 0.001)
	assert.Equal(t, []string{"No", "Yes"}, result.Analysis.ConfusionMatrix.Labels)
	assert.Contains(t, result.Analysis.Warnings, "Single class (Yes)")
	require.NotNil(t, result.Analysis.AC1)
	assert.Greater(t, *result.Analysis.AC1, 0.0)
}

func idOf(i int) string {
	return "fb-" + string(rune('a'+i))
}

func TestEngine_Summarize_EmptyPopulationYieldsNoDataMessage(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(model.Scorecard{
		ID: "sc-1", AccountID: "acct-1", Name: "Support QA",
		Sections: []model.Section{{Scores: []model.Score{{ID: "score-1", Name: "Greeting", ExternalID: strp("ext-1")}}}},
	})

	eng := analytics.New(resolve.New(fake), feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now }), nil)
	result, err := eng.Summarize(context.Background(), analytics.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1", Days: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Analysis.TotalItems)
	assert.Equal(t, "No data", result.Message)
	assert.Contains(t, result.Analysis.Warnings, "No feedback items found")
	assert.Nil(t, result.Analysis.AC1)
}

// TestEngine_Summarize_AllScoresAggregatesWarning exercises the scorecard-
// level fan-out (no specific score given): two scores, one with data, one
// without, producing a combined warning mentioning "no data".
func TestEngine_Summarize_AllScoresAggregatesWarning(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(model.Scorecard{
		ID: "sc-1", AccountID: "acct-1", Name: "Support QA",
		Sections: []model.Section{{Scores: []model.Score{
			{ID: "score-1", Name: "Greeting", ExternalID: strp("ext-1")},
			{ID: "score-2", Name: "Closing", ExternalID: strp("ext-2")},
		}}},
	})
	fake.AddFeedback(model.FeedbackItem{
		ID: "fb-1", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
		InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
	})
	fake.AddFeedback(model.FeedbackItem{
		ID: "fb-2", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
		InitialAnswerValue: strp("No"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
	})

	eng := analytics.New(resolve.New(fake), feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now }), nil)
	result, err := eng.Summarize(context.Background(), analytics.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", Days: 30,
	})
	require.NoError(t, err)

	require.Len(t, result.Scores, 2)
	assert.Contains(t, result.Warning, "no data")
}

// TestEngine_Summarize_AggregateWarningMultiKindExactFormat pins the exact
// ground-truth phrasing of `_generate_summary_warning`: 5 scores, 3 with
// systematic disagreement, 1 with imbalanced classes, 1 clean. 4 of 5
// scores carry a warning (neither "All scores" nor "1 score"), and exactly
// two distinct kinds are present, so the expected phrasing is "N scores
// with A and B." under one shared prefix, not one line per kind.
func TestEngine_Summarize_AggregateWarningMultiKindExactFormat(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var scores []model.Score
	for i := 1; i <= 5; i++ {
		scores = append(scores, model.Score{
			ID: fmt.Sprintf("score-%d", i), Name: fmt.Sprintf("Score %d", i),
			ExternalID: strp(fmt.Sprintf("ext-%d", i)),
		})
	}
	fake.AddScorecard(model.Scorecard{
		ID: "sc-1", AccountID: "acct-1", Name: "Support QA",
		Sections: []model.Section{{Scores: scores}},
	})

	// score-1..3: systematic disagreement (AC1 < 0, balanced distribution).
	for i := 1; i <= 3; i++ {
		scoreID := fmt.Sprintf("score-%d", i)
		fake.AddFeedback(model.FeedbackItem{
			ID: scoreID + "-a", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: scoreID,
			InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
		})
		fake.AddFeedback(model.FeedbackItem{
			ID: scoreID + "-b", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: scoreID,
			InitialAnswerValue: strp("No"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
		})
	}

	// score-4: imbalanced classes (9 agreements on "Yes", 1 disagreement on
	// "No"; high positive AC1, no systematic-disagreement/random-chance
	// warning, final distribution 9/1 exceeds the balance tolerance).
	for i := 0; i < 9; i++ {
		fake.AddFeedback(model.FeedbackItem{
			ID: fmt.Sprintf("score-4-%d", i), AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-4",
			InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
		})
	}
	fake.AddFeedback(model.FeedbackItem{
		ID: "score-4-9", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-4",
		InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
	})

	// score-5: clean, balanced, full agreement.
	for _, v := range []string{"Yes", "No"} {
		fake.AddFeedback(model.FeedbackItem{
			ID: "score-5-" + v, AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-5",
			InitialAnswerValue: strp(v), FinalAnswerValue: strp(v), UpdatedAt: now,
		})
	}

	eng := analytics.New(resolve.New(fake), feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now }), nil)
	result, err := eng.Summarize(context.Background(), analytics.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", Days: 30,
	})
	require.NoError(t, err)

	require.Len(t, result.Scores, 5)
	assert.Equal(t, "4 scores with disagreement and imbalanced.", result.Warning)
}
