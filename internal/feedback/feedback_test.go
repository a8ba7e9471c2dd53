package feedback_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
)

func seedFeedback(fake *remotetest.Fake, n int, base time.Time) {
	for i := 0; i < n; i++ {
		yes, no := "yes", "no"
		fake.AddFeedback(model.FeedbackItem{
			ID:                 idOf(i),
			AccountID:          "acct-1",
			ScorecardID:        "sc-1",
			ScoreID:            "score-1",
			InitialAnswerValue: &yes,
			FinalAnswerValue:   &no,
			UpdatedAt:          base.Add(-time.Duration(i) * time.Hour),
		})
	}
}

func idOf(i int) string {
	return "fb-" + string(rune('a'+i))
}

func TestEngine_Find_FiltersByValueAndIgnoresLimitWhenUnderPopulation(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedFeedback(fake, 5, now)

	eng := feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now })
	got, err := eng.Find(context.Background(), feedback.FindParams{
		AccountID:   "acct-1",
		ScorecardID: "sc-1",
		ScoreID:     "score-1",
		Days:        30,
	})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestEngine_Find_ValueFilterIsCaseAndWhitespaceInsensitive(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedFeedback(fake, 3, now)

	eng := feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now })
	wanted := "  YES  "
	got, err := eng.Find(context.Background(), feedback.FindParams{
		AccountID:    "acct-1",
		ScorecardID:  "sc-1",
		ScoreID:      "score-1",
		Days:         30,
		InitialValue: &wanted,
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestEngine_Find_FallsBackOnSchemaMismatch(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedFeedback(fake, 4, now)
	fake.FailIndexOnce = true

	eng := feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now })
	got, err := eng.Find(context.Background(), feedback.FindParams{
		AccountID:   "acct-1",
		ScorecardID: "sc-1",
		ScoreID:     "score-1",
		Days:        30,
	})
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.False(t, fake.FailIndexOnce, "one-shot toggle should have reset itself")
}

func TestEngine_Find_EmptyResultIsEmptySliceNotError(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := feedback.NewEngine(fake, nil).WithClock(func() time.Time { return now })
	got, err := eng.Find(context.Background(), feedback.FindParams{
		AccountID:   "acct-1",
		ScorecardID: "sc-1",
		ScoreID:     "score-1",
		Days:        30,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_Find_LimitWithPrioritization(t *testing.T) {
	fake := remotetest.NewFake()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedFeedback(fake, 10, now)

	eng := feedback.NewEngine(fake, nil).
		WithClock(func() time.Time { return now }).
		WithRand(rand.New(rand.NewSource(9)))
	got, err := eng.Find(context.Background(), feedback.FindParams{
		AccountID:              "acct-1",
		ScorecardID:            "sc-1",
		ScoreID:                "score-1",
		Days:                   30,
		Limit:                  4,
		PrioritizeEditComments: true,
	})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
