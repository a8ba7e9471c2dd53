// Package prioritize implements edit-comment prioritization: when a
// population of feedback items must be cut down to a limit, items carrying
// reviewer prose in their edit comment are favored over commentless ones.
package prioritize

import (
	"math/rand"

	"github.com/scoreflow/hyouka/internal/model"
)

// Limit returns at most limit items from items, preferring ones with a
// non-empty edit comment (spec §4.6):
//
//   - |items| <= limit: return items unchanged.
//   - Partition into W (has edit comment) and the rest.
//   - Shuffle W and the rest independently using rng.
//   - If |W| <= limit: shuffled W followed by enough of the shuffled rest
//     to reach limit.
//   - Else: the first limit items of shuffled W.
//
// rng is injected rather than using the global math/rand source so tests
// can assert on deterministic output.
func Limit(items []model.FeedbackItem, limit int, rng *rand.Rand) []model.FeedbackItem {
	if limit <= 0 || len(items) <= limit {
		out := make([]model.FeedbackItem, len(items))
		copy(out, items)
		return out
	}

	var withComment, without []model.FeedbackItem
	for _, it := range items {
		if it.HasEditComment() {
			withComment = append(withComment, it)
		} else {
			without = append(without, it)
		}
	}

	shuffle(withComment, rng)
	shuffle(without, rng)

	if len(withComment) <= limit {
		remaining := limit - len(withComment)
		if remaining > len(without) {
			remaining = len(without)
		}
		out := make([]model.FeedbackItem, 0, limit)
		out = append(out, withComment...)
		out = append(out, without[:remaining]...)
		return out
	}

	out := make([]model.FeedbackItem, limit)
	copy(out, withComment[:limit])
	return out
}

func shuffle(items []model.FeedbackItem, rng *rand.Rand) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
