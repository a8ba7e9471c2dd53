// Package feedback implements the feedback query layer (C2) and retrieval
// engine (C3): paginated fetch against the remote data service, then
// normalize + filter + prioritized limiting.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
)

// Paginator drives remote.Client's feedback list queries, preferring the
// composite-index path and falling back to the generic filter query on a
// schema mismatch (spec §4.2).
type Paginator struct {
	client remote.Client
	logger *slog.Logger
}

// NewPaginator builds a Paginator. A nil logger defaults to slog.Default().
func NewPaginator(client remote.Client, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{client: client, logger: logger}
}

// All returns a pull-based iterator over every feedback item matching p,
// across as many pages as the remote service returns, transparently
// falling back to the generic filter query if the primary composite-index
// query reports a schema mismatch.
//
// Cancellation: the sequence stops early if ctx is canceled or the caller
// stops ranging (spec §4.2 "Cancellation").
func (p *Paginator) All(ctx context.Context, params remote.ListFeedbackParams) func(yield func(model.FeedbackItem, error) bool) {
	return func(yield func(model.FeedbackItem, error) bool) {
		fetch := p.client.ListFeedbackByIndex
		usedFallback := false

		next := params
		for {
			if err := ctx.Err(); err != nil {
				yield(model.FeedbackItem{}, err)
				return
			}

			page, err := fetch(ctx, next)
			if err != nil {
				var mismatch *remote.SchemaMismatchError
				if !usedFallback && errors.As(err, &mismatch) {
					p.logger.WarnContext(ctx, "feedback: primary index query rejected, falling back to generic filter query",
						"error", err, "accountId", params.AccountID, "scorecardId", params.ScorecardID, "scoreId", params.ScoreID)
					usedFallback = true
					fetch = p.client.ListFeedbackFallback
					next = params
					next.PageSize = fallbackPageSize(params.PageSize)
					continue
				}
				yield(model.FeedbackItem{}, fmt.Errorf("feedback: paginate: %w", err))
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			if page.NextToken == nil {
				return
			}
			next.NextToken = page.NextToken
		}
	}
}

func fallbackPageSize(requested int) int {
	if requested > 0 {
		return requested
	}
	return 1000
}

// normalize lowercases and trims s — the shared normalization used both by
// value filtering (spec §4.3) and cache-key derivation (spec §3 invariant).
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize exports normalize for callers outside this package;
// model.CacheKeyFor applies the same lowercase-and-trim rule to cache keys.
func Normalize(s string) string { return normalize(s) }
