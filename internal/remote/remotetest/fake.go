// Package remotetest provides an in-memory fake implementing remote.Client,
// the target every other package's tests are written against (the teacher
// leans on hand-written fakes the same way alongside its
// testcontainers-backed integration tests).
package remotetest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
)

// Fake is an in-memory remote.Client. Build one with NewFake: the zero
// value's Items and Scorecards maps are nil, so adding an item or scorecard
// to it panics.
type Fake struct {
	mu sync.Mutex

	Feedback    []model.FeedbackItem
	Items       map[string]model.Item
	Identifiers []model.Identifier
	Scorecards  map[string]model.Scorecard
	ScoreResults []model.ScoreResult

	// FailIndexOnce, when true, makes the next ListFeedbackByIndex call
	// return a SchemaMismatchError, then resets itself — used to exercise
	// the C2 fallback path (spec §4.2).
	FailIndexOnce bool

	// IndexAlwaysFails makes every ListFeedbackByIndex call fail.
	IndexAlwaysFails bool

	nextItemSeq int
}

// NewFake returns an empty Fake ready for fixtures to be appended.
func NewFake() *Fake {
	return &Fake{
		Items:      map[string]model.Item{},
		Scorecards: map[string]model.Scorecard{},
	}
}

func (f *Fake) ListFeedbackByIndex(ctx context.Context, p remote.ListFeedbackParams) (remote.FeedbackPage, error) {
	if err := ctx.Err(); err != nil {
		return remote.FeedbackPage{}, err
	}
	f.mu.Lock()
	fail := f.FailIndexOnce || f.IndexAlwaysFails
	if f.FailIndexOnce {
		f.FailIndexOnce = false
	}
	f.mu.Unlock()
	if fail {
		return remote.FeedbackPage{}, &remote.SchemaMismatchError{Err: errPrimaryIndexRejected}
	}

	matched := f.filterFeedback(p)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return paginateFeedback(matched, p)
}

func (f *Fake) ListFeedbackFallback(ctx context.Context, p remote.ListFeedbackParams) (remote.FeedbackPage, error) {
	if err := ctx.Err(); err != nil {
		return remote.FeedbackPage{}, err
	}
	matched := f.filterFeedback(p)
	// The fallback makes no server-side sort guarantee (spec §4.2); the
	// fake deliberately does not sort here so callers that depend on order
	// from this path are exercised honestly.
	if p.PageSize == 0 {
		p.PageSize = 1000
	}
	return paginateFeedback(matched, p)
}

func (f *Fake) filterFeedback(p remote.ListFeedbackParams) []model.FeedbackItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FeedbackItem
	for _, item := range f.Feedback {
		if item.AccountID != p.AccountID {
			continue
		}
		if p.ScorecardID != "" && item.ScorecardID != p.ScorecardID {
			continue
		}
		if p.ScoreID != "" && item.ScoreID != p.ScoreID {
			continue
		}
		if !p.Range.Start.IsZero() && item.UpdatedAt.Before(p.Range.Start) {
			continue
		}
		if !p.Range.End.IsZero() && item.UpdatedAt.After(p.Range.End) {
			continue
		}
		copied := item
		if p.WithItem && copied.Item == nil {
			if it, ok := f.Items[copied.ItemID]; ok {
				itemCopy := it
				copied.Item = &itemCopy
			}
		}
		out = append(out, copied)
	}
	return out
}

func paginateFeedback(items []model.FeedbackItem, p remote.ListFeedbackParams) (remote.FeedbackPage, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	start := 0
	if p.NextToken != nil {
		var err error
		start, err = decodeToken(*p.NextToken)
		if err != nil {
			return remote.FeedbackPage{}, err
		}
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	page := items[start:end]
	var next *string
	if end < len(items) {
		tok := encodeToken(end)
		next = &tok
	}
	return remote.FeedbackPage{Items: page, NextToken: next}, nil
}

func (f *Fake) GetFeedbackItem(ctx context.Context, accountID, id string) (model.FeedbackItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.Feedback {
		if item.AccountID == accountID && item.ID == id {
			return item, nil
		}
	}
	return model.FeedbackItem{}, errNotFoundLocal
}

func (f *Fake) ListScoreResultsByIndex(ctx context.Context, p remote.ListScoreResultParams) (remote.ScoreResultPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ScoreResult
	for _, sr := range f.ScoreResults {
		if sr.AccountID != p.AccountID {
			continue
		}
		if p.ScoreID != "" && sr.ScoreID != p.ScoreID {
			continue
		}
		if p.ScorecardID != "" && sr.ScorecardID != p.ScorecardID {
			continue
		}
		if !p.Range.Start.IsZero() && sr.UpdatedAt.Before(p.Range.Start) {
			continue
		}
		if !p.Range.End.IsZero() && sr.UpdatedAt.After(p.Range.End) {
			continue
		}
		out = append(out, sr)
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	start := 0
	if p.NextToken != nil {
		var err error
		start, err = decodeToken(*p.NextToken)
		if err != nil {
			return remote.ScoreResultPage{}, err
		}
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	if start > len(out) {
		start = len(out)
	}
	page := out[start:end]
	var next *string
	if end < len(out) {
		tok := encodeToken(end)
		next = &tok
	}
	return remote.ScoreResultPage{Items: page, NextToken: next}, nil
}

func (f *Fake) LookupIdentifier(ctx context.Context, accountID, value string) (*model.Identifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.Identifier
	for i := range f.Identifiers {
		id := f.Identifiers[i]
		if id.AccountID == accountID && id.Value == value {
			if found == nil {
				c := id
				found = &c
			}
			// duplicates: first match wins, per spec §5 shared-state note.
		}
	}
	return found, nil
}

func (f *Fake) GetItem(ctx context.Context, accountID, itemID string) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.Items[itemID]
	if !ok || it.AccountID != accountID {
		return model.Item{}, errNotFoundLocal
	}
	return it, nil
}

func (f *Fake) CreateItem(ctx context.Context, item model.Item) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		f.nextItemSeq++
		item.ID = syntheticItemID(f.nextItemSeq)
	}
	f.Items[item.ID] = item
	return item, nil
}

func (f *Fake) UpdateItem(ctx context.Context, item model.Item) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.Items[item.ID]
	if !ok {
		return model.Item{}, errNotFoundLocal
	}
	merged := mergeItem(existing, item)
	f.Items[item.ID] = merged
	return merged, nil
}

// mergeItem merges non-null fields from patch into base, per spec §4.8 "On
// update, merge non-null fields only".
func mergeItem(base, patch model.Item) model.Item {
	out := base
	if patch.ExternalID != nil {
		out.ExternalID = patch.ExternalID
	}
	if patch.EvaluationID != nil {
		out.EvaluationID = patch.EvaluationID
	}
	if patch.Text != "" {
		out.Text = patch.Text
	}
	if !patch.Metadata.IsEmpty() {
		out.Metadata = patch.Metadata
	}
	if len(patch.AttachedFiles) > 0 {
		out.AttachedFiles = patch.AttachedFiles
	}
	if len(patch.Identifiers) > 0 {
		out.Identifiers = append(out.Identifiers, patch.Identifiers...)
	}
	if len(patch.LegacyIdentifiers) > 0 {
		out.LegacyIdentifiers = append(out.LegacyIdentifiers, patch.LegacyIdentifiers...)
	}
	return out
}

func (f *Fake) CreateIdentifier(ctx context.Context, ident model.Identifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Identifiers = append(f.Identifiers, ident)
	return nil
}

func (f *Fake) LookupItemByExternalID(ctx context.Context, accountID, externalID string) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.Items {
		if it.AccountID == accountID && it.ExternalID != nil && *it.ExternalID == externalID {
			c := it
			return &c, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetScorecard(ctx context.Context, accountID, id string) (model.Scorecard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.Scorecards[id]
	if !ok || sc.AccountID != accountID {
		return model.Scorecard{}, errNotFoundLocal
	}
	return sc, nil
}

func (f *Fake) ListScorecardsByExternalID(ctx context.Context, accountID, externalID string) ([]model.Scorecard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Scorecard
	for _, sc := range f.Scorecards {
		if sc.AccountID == accountID && sc.ExternalID != nil && *sc.ExternalID == externalID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *Fake) ListScorecardsByKey(ctx context.Context, accountID, key string) ([]model.Scorecard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Scorecard
	for _, sc := range f.Scorecards {
		if sc.AccountID == accountID && sc.Key != nil && *sc.Key == key {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *Fake) ListScorecardsByNameMatch(ctx context.Context, accountID, name string) ([]model.Scorecard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lower := strings.ToLower(name)
	var exact, substr []model.Scorecard
	for _, sc := range f.Scorecards {
		if sc.AccountID != accountID {
			continue
		}
		scLower := strings.ToLower(sc.Name)
		if scLower == lower {
			exact = append(exact, sc)
		} else if strings.Contains(scLower, lower) {
			substr = append(substr, sc)
		}
	}
	return append(exact, substr...), nil
}

func (f *Fake) ListAllScorecards(ctx context.Context, accountID string) ([]model.Scorecard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Scorecard
	for _, sc := range f.Scorecards {
		if sc.AccountID == accountID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddScorecard is a fixture helper.
func (f *Fake) AddScorecard(sc model.Scorecard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scorecards[sc.ID] = sc
}

// AddFeedback is a fixture helper.
func (f *Fake) AddFeedback(items ...model.FeedbackItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Feedback = append(f.Feedback, items...)
}

// AddItem is a fixture helper.
func (f *Fake) AddItem(it model.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Items[it.ID] = it
}

// AddIdentifier is a fixture helper.
func (f *Fake) AddIdentifier(ident model.Identifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Identifiers = append(f.Identifiers, ident)
}

// AddScoreResults is a fixture helper.
func (f *Fake) AddScoreResults(items ...model.ScoreResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScoreResults = append(f.ScoreResults, items...)
}

func syntheticItemID(seq int) string {
	return "item-" + strconv.Itoa(seq)
}
