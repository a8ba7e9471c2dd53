package dataset_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/dataset"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
)

func strp(s string) *string { return &s }

func baseScorecard() model.Scorecard {
	return model.Scorecard{
		ID: "sc-1", AccountID: "acct-1", Name: "Support QA",
		Sections: []model.Section{{Scores: []model.Score{
			{ID: "score-1", Name: "Greeting", ExternalID: strp("ext-1")},
		}}},
	}
}

func seedItem(fake *remotetest.Fake, id, text string) model.Item {
	item := model.Item{ID: id, AccountID: "acct-1", Text: text}
	fake.AddItem(item)
	return item
}

// TestBuilder_Build_SamplesAcrossCellsWithLimitPerCell exercises spec §8
// scenario 2: multiple (initial, final) cells, limit_per_cell keeps the
// result bounded per cell.
func TestBuilder_Build_SamplesAcrossCellsWithLimitPerCell(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(baseScorecard())
	seedItem(fake, "item-1", "transcript one")

	for i := 0; i < 5; i++ {
		fake.AddFeedback(model.FeedbackItem{
			ID: "fb-yes-no-" + string(rune('a'+i)), ItemID: "item-1",
			AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
			InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
		})
	}
	for i := 0; i < 5; i++ {
		fake.AddFeedback(model.FeedbackItem{
			ID: "fb-yes-yes-" + string(rune('a'+i)), ItemID: "item-1",
			AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
			InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
		})
	}

	b := dataset.NewWithRand(fake, rand.New(rand.NewSource(42)))
	frame, err := b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		Range: remote.TimeRange{Start: now.AddDate(0, 0, -30), End: now}, LimitPerCell: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, frame.Len(), "two cells, limit_per_cell=2 each")
	assert.Equal(t, []string{
		"content_id", "feedback_item_id", "IDs", "metadata", "text", "call_date",
		"Greeting", "Greeting comment", "Greeting edit comment",
	}, frame.Columns)
	for _, row := range frame.Rows {
		assert.Equal(t, "item-1", row["content_id"])
		assert.Equal(t, "transcript one", row["text"])
	}
}

// TestBuilder_Build_SingleItemModeValidatesScorecardAndScore exercises the
// feedback_id single-item path, including the scorecard/score mismatch
// rejection.
func TestBuilder_Build_SingleItemModeValidatesScorecardAndScore(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(baseScorecard())
	seedItem(fake, "item-1", "transcript one")
	fake.AddFeedback(model.FeedbackItem{
		ID: "fb-1", ItemID: "item-1", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
		InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
	})

	b := dataset.New(fake)
	frame, err := b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		FeedbackID: "fb-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.Equal(t, "No", frame.Rows[0]["Greeting"])

	_, err = b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		FeedbackID: "does-not-exist",
	})
	assert.Error(t, err)
}

// TestBuilder_Build_ScoreCommentPrecedence exercises the five-branch
// "<score> comment" derivation rule.
func TestBuilder_Build_ScoreCommentPrecedence(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(baseScorecard())
	seedItem(fake, "item-1", "t")

	cases := []struct {
		name     string
		initial  *string
		final    *string
		edit     *string
		expected string
	}{
		{"edit agree and no final comment falls back to initial", strp("init"), nil, strp("agree"), "init"},
		{"final agree falls back to initial", strp("init"), strp("Agree"), strp("whatever"), "init"},
		{"edit present and not agree wins", strp("init"), strp("final"), strp("edit text"), "edit text"},
		{"final present and not agree wins when no edit", strp("init"), strp("final text"), nil, "final text"},
		{"default falls back to initial", nil, nil, nil, ""},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := "fb-comment-" + string(rune('a'+i))
			fake.AddFeedback(model.FeedbackItem{
				ID: id, ItemID: "item-1", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
				InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("Yes"), UpdatedAt: now,
				InitialCommentValue: tc.initial, FinalCommentValue: tc.final, EditCommentValue: tc.edit,
			})

			b := dataset.New(fake)
			frame, err := b.Build(context.Background(), dataset.Params{
				AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
				FeedbackID: id,
			})
			require.NoError(t, err)
			require.Equal(t, 1, frame.Len())
			assert.Equal(t, tc.expected, frame.Rows[0]["Greeting comment"])
		})
	}
}

// TestBuilder_Build_ColumnMappingRenamesScoreColumns verifies the score
// column (and its comment/edit-comment companions) are renamed when a
// mapping is supplied.
func TestBuilder_Build_ColumnMappingRenamesScoreColumns(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(baseScorecard())
	seedItem(fake, "item-1", "t")
	fake.AddFeedback(model.FeedbackItem{
		ID: "fb-1", ItemID: "item-1", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
		InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
	})

	b := dataset.New(fake)
	frame, err := b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		FeedbackID:     "fb-1",
		ColumnMappings: map[string]string{"Greeting": "opening_line"},
	})
	require.NoError(t, err)
	assert.Contains(t, frame.Columns, "opening_line")
	assert.Contains(t, frame.Columns, "opening_line comment")
	assert.Equal(t, "No", frame.Rows[0]["opening_line"])
}

// TestBuilder_Reload_RefreshesValueColumnsInPlace exercises spec §8
// scenario 5: a previously built Frame is reloaded, preserving row
// identity/order while one row's answer value changes upstream.
func TestBuilder_Reload_RefreshesValueColumnsInPlace(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fake.AddScorecard(baseScorecard())
	seedItem(fake, "item-1", "original text")
	fake.AddFeedback(model.FeedbackItem{
		ID: "fb-1", ItemID: "item-1", AccountID: "acct-1", ScorecardID: "sc-1", ScoreID: "score-1",
		InitialAnswerValue: strp("Yes"), FinalAnswerValue: strp("No"), UpdatedAt: now,
	})

	b := dataset.New(fake)
	original, err := b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		FeedbackID: "fb-1",
	})
	require.NoError(t, err)

	// Simulate the upstream record being corrected after the frame was
	// built.
	for i := range fake.Feedback {
		if fake.Feedback[i].ID == "fb-1" {
			fake.Feedback[i].FinalAnswerValue = strp("Yes")
		}
	}

	reloaded, err := b.Build(context.Background(), dataset.Params{
		AccountID: "acct-1", ScorecardInput: "sc-1", ScoreInput: "score-1",
		Reload:   true,
		Existing: original,
	})
	require.NoError(t, err)

	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, "fb-1", reloaded.Rows[0]["feedback_item_id"])
	assert.Equal(t, "Yes", reloaded.Rows[0]["Greeting"], "value column refreshed from the corrected record")
}

