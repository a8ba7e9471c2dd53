package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/prioritize"
	"github.com/scoreflow/hyouka/internal/remote"
)

// FindParams parametrizes Engine.Find (spec §4.3).
type FindParams struct {
	AccountID   string
	ScorecardID string
	ScoreID     string

	// Exactly one of Days or an explicit Range should be set; Days takes
	// precedence when both are zero-valued ambiguously (Days > 0).
	Days  int
	Range remote.TimeRange

	InitialValue *string
	FinalValue   *string

	Limit                  int
	PrioritizeEditComments bool

	WithItem bool
}

// resolvedRange computes [start, end] from Days (UTC now minus N days) or
// from the explicit Range (spec §4.3 step 1).
func (p FindParams) resolvedRange(now time.Time) remote.TimeRange {
	if p.Days > 0 {
		end := now.UTC()
		start := end.AddDate(0, 0, -p.Days)
		return remote.TimeRange{Start: start, End: end}
	}
	return p.Range
}

// Engine is the feedback retrieval engine (C3): the single seam other
// components use to fetch feedback, mirroring the teacher's
// service/decisions.Service single-entry-point shape.
type Engine struct {
	paginator *Paginator
	logger    *slog.Logger
	now       func() time.Time
	rng       *rand.Rand
}

// NewEngine builds an Engine over client.
func NewEngine(client remote.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		paginator: NewPaginator(client, logger),
		logger:    logger,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand overrides the engine's random source, for deterministic tests of
// prioritized limiting.
func (e *Engine) WithRand(rng *rand.Rand) *Engine {
	e.rng = rng
	return e
}

// WithClock overrides the engine's clock, for deterministic tests of
// day-window resolution.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Find implements the C3 algorithm: paginate, value-filter, then apply a
// prioritized limit (spec §4.3). An empty result is returned as an empty
// slice, never an error; transport/auth failures propagate.
func (e *Engine) Find(ctx context.Context, p FindParams) ([]model.FeedbackItem, error) {
	rng := p.resolvedRange(e.now())

	params := remote.ListFeedbackParams{
		AccountID:   p.AccountID,
		ScorecardID: p.ScorecardID,
		ScoreID:     p.ScoreID,
		Range:       rng,
		WithItem:    p.WithItem,
	}

	var out []model.FeedbackItem
	for item, err := range e.paginator.All(ctx, params) {
		if err != nil {
			return nil, fmt.Errorf("feedback: find: %w", err)
		}
		if !matchesValueFilter(item, p.InitialValue, p.FinalValue) {
			continue
		}
		out = append(out, item)
	}

	if p.Limit > 0 && len(out) > p.Limit {
		limit := p.Limit
		if !p.PrioritizeEditComments {
			if limit > len(out) {
				limit = len(out)
			}
			out = out[:limit]
		} else {
			out = prioritize.Limit(out, limit, e.rng)
		}
	}

	return out, nil
}

func matchesValueFilter(item model.FeedbackItem, initialValue, finalValue *string) bool {
	if initialValue != nil && normalize(item.InitialAnswer()) != normalize(*initialValue) {
		return false
	}
	if finalValue != nil && normalize(item.FinalAnswer()) != normalize(*finalValue) {
		return false
	}
	return true
}
