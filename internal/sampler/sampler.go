// Package sampler implements the confusion-cell sampler used by the
// dataset builder: it groups feedback items by their (initial, final)
// answer pair and draws a prioritized sample from each cell, then again
// globally (spec §4.7).
package sampler

import (
	"math/rand"
	"sort"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/prioritize"
)

// Cell is one observed (initial, final) answer pair and its items.
type Cell struct {
	Initial string
	Final   string
	Items   []model.FeedbackItem
}

// Sampler draws cell-then-global prioritized samples. Rng is injected so
// output is reproducible in tests.
type Sampler struct {
	Rng *rand.Rand
}

// New builds a Sampler with the given random source.
func New(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Sampler{Rng: rng}
}

// Cells groups items by their (initial, final) answer pair, in a
// deterministic order (sorted by initial then final) so repeated runs over
// the same population enumerate cells identically.
func Cells(items []model.FeedbackItem) []Cell {
	index := map[string]*Cell{}
	var order []string
	for _, it := range items {
		key := it.InitialAnswer() + "\x00" + it.FinalAnswer()
		c, ok := index[key]
		if !ok {
			c = &Cell{Initial: it.InitialAnswer(), Final: it.FinalAnswer()}
			index[key] = c
			order = append(order, key)
		}
		c.Items = append(c.Items, it)
	}
	sort.Strings(order)
	out := make([]Cell, 0, len(order))
	for _, key := range order {
		out = append(out, *index[key])
	}
	return out
}

// Sample draws at most limitPerCell items per (initial, final) cell, then
// applies globalLimit across the concatenated result — both caps go
// through prioritize.Limit so commented items are favored at both stages
// (spec §4.7). limitPerCell <= 0 means no per-cell cap; globalLimit <= 0
// means no global cap.
func (s *Sampler) Sample(items []model.FeedbackItem, limitPerCell, globalLimit int) []model.FeedbackItem {
	var concatenated []model.FeedbackItem
	for _, cell := range Cells(items) {
		perCell := limitPerCell
		if perCell <= 0 || perCell > len(cell.Items) {
			perCell = len(cell.Items)
		}
		concatenated = append(concatenated, prioritize.Limit(cell.Items, perCell, s.Rng)...)
	}
	if globalLimit <= 0 || globalLimit >= len(concatenated) {
		return concatenated
	}
	return prioritize.Limit(concatenated, globalLimit, s.Rng)
}
