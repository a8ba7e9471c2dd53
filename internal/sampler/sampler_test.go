package sampler_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/sampler"
)

func item(id, initial, final string) model.FeedbackItem {
	return model.FeedbackItem{ID: id, InitialAnswerValue: &initial, FinalAnswerValue: &final}
}

func TestCells_GroupsByInitialFinalPair(t *testing.T) {
	items := []model.FeedbackItem{
		item("1", "yes", "yes"),
		item("2", "yes", "no"),
		item("3", "yes", "yes"),
	}
	cells := sampler.Cells(items)
	require.Len(t, cells, 2)
	total := 0
	for _, c := range cells {
		total += len(c.Items)
	}
	assert.Equal(t, 3, total)
}

func TestSample_RespectsPerCellAndGlobalCaps(t *testing.T) {
	var items []model.FeedbackItem
	for i := 0; i < 10; i++ {
		items = append(items, item("yes-yes", "yes", "yes"))
	}
	for i := 0; i < 10; i++ {
		items = append(items, item("yes-no", "yes", "no"))
	}
	s := sampler.New(rand.New(rand.NewSource(5)))
	got := s.Sample(items, 3, 4)
	assert.LessOrEqual(t, len(got), 4)
}

func TestSample_NoCapsReturnsEverything(t *testing.T) {
	items := []model.FeedbackItem{item("1", "yes", "no"), item("2", "no", "yes")}
	s := sampler.New(rand.New(rand.NewSource(1)))
	got := s.Sample(items, 0, 0)
	assert.Len(t, got, 2)
}
