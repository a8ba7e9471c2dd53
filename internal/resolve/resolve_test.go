package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote/remotetest"
	"github.com/scoreflow/hyouka/internal/resolve"
)

func key(s string) *string { return &s }

func fixtureScorecard() model.Scorecard {
	return model.Scorecard{
		ID:         "11111111-1111-1111-1111-111111111111",
		AccountID:  "acct-1",
		ExternalID: key("ext-42"),
		Key:        key("support-qa"),
		Name:       "Support QA",
		Sections: []model.Section{
			{
				ID:   "sec-1",
				Name: "Compliance",
				Scores: []model.Score{
					{ID: "score-1", Name: "Greeting", Key: key("greeting"), ExternalID: key("score-ext-1")},
					{ID: "score-2", Name: "Closing Statement"},
				},
			},
		},
	}
}

func newResolver(t *testing.T) (*resolve.Resolver, model.Scorecard) {
	t.Helper()
	fake := remotetest.NewFake()
	sc := fixtureScorecard()
	fake.AddScorecard(sc)
	return resolve.New(fake), sc
}

func TestResolveScorecard_ByID(t *testing.T) {
	r, sc := newResolver(t)
	got, err := r.ResolveScorecard(context.Background(), "acct-1", sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
}

func TestResolveScorecard_ByExternalID(t *testing.T) {
	r, sc := newResolver(t)
	got, err := r.ResolveScorecard(context.Background(), "acct-1", *sc.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
}

func TestResolveScorecard_ByKey(t *testing.T) {
	r, sc := newResolver(t)
	got, err := r.ResolveScorecard(context.Background(), "acct-1", *sc.Key)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
}

func TestResolveScorecard_ByNameSubstring(t *testing.T) {
	r, sc := newResolver(t)
	got, err := r.ResolveScorecard(context.Background(), "acct-1", "support")
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
}

func TestResolveScorecard_NotFound(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.ResolveScorecard(context.Background(), "acct-1", "does-not-exist")
	require.Error(t, err)
	var nf *resolve.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.True(t, errors.Is(err, resolve.ErrNotFound))
}

func TestResolveScore_OrderOfPrecedence(t *testing.T) {
	r := resolve.New(remotetest.NewFake())
	sc := fixtureScorecard()

	got, err := r.ResolveScore(sc, "score-1")
	require.NoError(t, err)
	assert.Equal(t, "score-1", got.ID)

	got, err = r.ResolveScore(sc, "Greeting")
	require.NoError(t, err)
	assert.Equal(t, "score-1", got.ID)

	got, err = r.ResolveScore(sc, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "score-1", got.ID)

	got, err = r.ResolveScore(sc, "score-ext-1")
	require.NoError(t, err)
	assert.Equal(t, "score-1", got.ID)

	got, err = r.ResolveScore(sc, "closing")
	require.NoError(t, err)
	assert.Equal(t, "score-2", got.ID)

	_, err = r.ResolveScore(sc, "nope")
	require.Error(t, err)
}

func TestEnumerateScores_OnlyNonEmptyExternalID(t *testing.T) {
	r := resolve.New(remotetest.NewFake())
	sc := fixtureScorecard()
	got := r.EnumerateScores(sc)
	require.Len(t, got, 1)
	assert.Equal(t, "score-1", got[0].ID)
}
