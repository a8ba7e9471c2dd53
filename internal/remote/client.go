// Package remote defines the thin client contract the core engines consume
// to reach the external feedback data service (spec §6). The core never
// depends on a concrete transport — only on the Client interface below.
package remote

import (
	"context"
	"time"

	"github.com/scoreflow/hyouka/internal/model"
)

// TimeRange bounds a between-query on updatedAt.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// ListFeedbackParams parametrizes both the primary (composite-index) and
// fallback (generic filter) feedback list queries (spec §4.2).
type ListFeedbackParams struct {
	AccountID   string
	ScorecardID string
	ScoreID     string
	Range       TimeRange
	PageSize    int // default 100 on the primary path, 1000 on fallback
	NextToken   *string
	// WithItem requests the nested Item be fetched in the same request
	// (Design Note "Lazy relationship loading" — no ad-hoc per-item fetch).
	WithItem bool
}

// FeedbackPage is one page of a feedback list query.
type FeedbackPage struct {
	Items     []model.FeedbackItem
	NextToken *string
}

// ListScoreResultParams parametrizes the cost aggregator's index-optimized
// pagination (spec §4.10). Exactly one of ScoreID/ScorecardID should be set
// to select the narrowest index; both empty selects the account-scoped
// index.
type ListScoreResultParams struct {
	AccountID   string
	ScorecardID string
	ScoreID     string
	Range       TimeRange
	PageSize    int
	NextToken   *string
}

// ScoreResultPage is one page of a score-result list query.
type ScoreResultPage struct {
	Items     []model.ScoreResult
	NextToken *string
}

// SchemaMismatchError marks an error as the primary-index "SchemaMismatch"
// case from spec §7: implementations of Client return this (wrapped) from
// ListFeedbackByIndex when the server rejects the composite-index query, so
// callers know to fall back rather than surface the failure.
type SchemaMismatchError struct {
	Err error
}

func (e *SchemaMismatchError) Error() string { return "schema mismatch: " + e.Err.Error() }
func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// Client is the thin contract between the core engines and the external
// feedback data service (spec §6). A real implementation lives in
// internal/remote/httpclient; an in-memory fake for tests lives in
// internal/remote/remotetest.
type Client interface {
	// ListFeedbackByIndex issues the composite-index query keyed by
	// (accountId, scorecardId, scoreId, updatedAt) sorted DESCENDING by
	// updatedAt (spec §4.2 primary path).
	ListFeedbackByIndex(ctx context.Context, p ListFeedbackParams) (FeedbackPage, error)
	// ListFeedbackFallback issues the generic equality+ge filter query with
	// no server-side sort guarantee (spec §4.2 fallback path).
	ListFeedbackFallback(ctx context.Context, p ListFeedbackParams) (FeedbackPage, error)
	// GetFeedbackItem fetches exactly one feedback record by id (used by
	// C9 single-item mode and reload mode, spec §4.9).
	GetFeedbackItem(ctx context.Context, accountID, id string) (model.FeedbackItem, error)

	// ListScoreResultsByIndex issues the cost aggregator's index-optimized
	// pagination (spec §4.10).
	ListScoreResultsByIndex(ctx context.Context, p ListScoreResultParams) (ScoreResultPage, error)

	// LookupIdentifier looks up the Identifier secondary index by value,
	// scoped to accountID (spec §4.8 step 1/2/3). Returns (nil, nil) on a
	// clean miss.
	LookupIdentifier(ctx context.Context, accountID, value string) (*model.Identifier, error)
	// GetItem fetches an Item by id.
	GetItem(ctx context.Context, accountID, itemID string) (model.Item, error)
	// CreateItem creates a new Item (spec §4.8 "No hit -> create").
	CreateItem(ctx context.Context, item model.Item) (model.Item, error)
	// UpdateItem merges non-null fields into an existing Item (spec §4.8
	// "On update, merge non-null fields only").
	UpdateItem(ctx context.Context, item model.Item) (model.Item, error)
	// CreateIdentifier materializes one standalone Identifier row.
	CreateIdentifier(ctx context.Context, ident model.Identifier) error
	// LookupItemByExternalID is the step-4 fallback of spec §4.8.
	LookupItemByExternalID(ctx context.Context, accountID, externalID string) (*model.Item, error)

	// GetScorecard fetches one scorecard (with sections/scores) by id.
	GetScorecard(ctx context.Context, accountID, id string) (model.Scorecard, error)
	// ListScorecardsByExternalID looks up scorecards by externalId.
	ListScorecardsByExternalID(ctx context.Context, accountID, externalID string) ([]model.Scorecard, error)
	// ListScorecardsByKey looks up scorecards by key.
	ListScorecardsByKey(ctx context.Context, accountID, key string) ([]model.Scorecard, error)
	// ListScorecardsByNameMatch looks up scorecards by exact or substring
	// name match.
	ListScorecardsByNameMatch(ctx context.Context, accountID, name string) ([]model.Scorecard, error)
	// ListAllScorecards enumerates every scorecard for an account (spec
	// §4.11 "all" mode).
	ListAllScorecards(ctx context.Context, accountID string) ([]model.Scorecard, error)
}
