package fanout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/fanout"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
)

func f(v float64) *float64 { return &v }

// TestOrchestrator_Run_RanksFiltersAndContinuesOnFailure exercises spec §8
// scenario 6: one scorecard fails, the batch still completes, ranking is
// computed only over the data-bearing survivors.
func TestOrchestrator_Run_RanksFiltersAndContinuesOnFailure(t *testing.T) {
	fake := remotetest.NewFake()
	for i := 1; i <= 5; i++ {
		fake.AddScorecard(model.Scorecard{ID: idFor(i), AccountID: "acct-1", Name: "Scorecard " + idFor(i)})
	}

	o := fanout.New(fake, 2)
	summary, err := o.Run(context.Background(), "acct-1", func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
		switch sc.ID {
		case "sc-3":
			return fanout.Result{}, errors.New("transport failure")
		case "sc-5":
			return fanout.Result{ScorecardID: sc.ID, ScorecardName: sc.Name, TotalItems: 0}, nil
		default:
			rank := map[string]float64{"sc-1": 0.2, "sc-2": 0.9, "sc-4": 0.5}[sc.ID]
			return fanout.Result{ScorecardID: sc.ID, ScorecardName: sc.Name, TotalItems: 10, Rank: f(rank)}, nil
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalAnalyzed)
	assert.Equal(t, 3, summary.WithData)
	assert.Equal(t, 2, summary.WithoutData)
	require.Len(t, summary.Scorecards, 5)

	// The three data-bearing entries come first, ranked AC1-descending.
	assert.Equal(t, "sc-2", summary.Scorecards[0].ScorecardID)
	assert.Equal(t, "sc-4", summary.Scorecards[1].ScorecardID)
	assert.Equal(t, "sc-1", summary.Scorecards[2].ScorecardID)

	var failed *fanout.Result
	for i := range summary.Scorecards {
		if summary.Scorecards[i].ScorecardID == "sc-3" {
			failed = &summary.Scorecards[i]
		}
	}
	require.NotNil(t, failed)
	assert.Error(t, failed.Err)
}

func TestOrchestrator_Run_NoScorecardsYieldsEmptyMessage(t *testing.T) {
	fake := remotetest.NewFake()
	o := fanout.New(fake, 0)
	summary, err := o.Run(context.Background(), "acct-1", func(ctx context.Context, sc model.Scorecard) (fanout.Result, error) {
		return fanout.Result{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalAnalyzed)
	assert.Equal(t, "No scorecards found", summary.Message)
}

func idFor(i int) string { return "sc-" + string(rune('0'+i)) }
