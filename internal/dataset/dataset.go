// Package dataset implements the Dataset Builder (C9): it drives the
// feedback retrieval engine and confusion-cell sampler, assembles Frame
// rows per the fixed column order and derivation rules, and supports a
// reload mode that refreshes value columns for an existing row set by
// stable feedback ids — ported row-by-row from the original dashboard's
// FeedbackItems/feedback_item dataset-building helpers.
package dataset

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"context"

	"github.com/scoreflow/hyouka/internal/apperr"
	"github.com/scoreflow/hyouka/internal/dedup"
	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/resolve"
	"github.com/scoreflow/hyouka/internal/sampler"
)

// Fixed column order, before score-column renaming (spec §4.9).
const (
	colContentID      = "content_id"
	colFeedbackItemID = "feedback_item_id"
	colIDs            = "IDs"
	colMetadata       = "metadata"
	colText           = "text"
	colCallDate       = "call_date"
)

// IdentifierExtractor derives client-specific handles for a feedback item,
// invoked only when the dataset is built with one configured (spec §4.9
// "IDs" derivation).
type IdentifierExtractor func(model.FeedbackItem) []model.ItemIdentifier

// Params parametrizes Builder.Build (spec §4.9).
type Params struct {
	AccountID      string
	ScorecardInput string
	ScoreInput     string

	Days  int
	Range remote.TimeRange

	Limit        int
	LimitPerCell int
	InitialValue *string
	FinalValue   *string

	// FeedbackID, when set, restricts the dataset to exactly this record
	// (single-item mode) and skips sampling.
	FeedbackID string

	IdentifierExtractor IdentifierExtractor
	ColumnMappings      map[string]string

	// Reload, when true, refreshes Existing's value columns in place
	// instead of resampling a new row set.
	Reload   bool
	Existing model.Frame
}

// idEntry is one element of the "IDs" JSON column.
type idEntry struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	URL   *string `json:"url,omitempty"`
}

// Builder drives C3 (retrieval), C7 (sampling), and C8 (dedup) to assemble
// a Frame.
type Builder struct {
	client   remote.Client
	resolver *resolve.Resolver
	feedback *feedback.Engine
	sampler  *sampler.Sampler
	dedup    *dedup.Deduplicator
}

// New builds a Builder over the given remote client.
func New(client remote.Client) *Builder {
	return NewWithRand(client, rand.New(rand.NewSource(1)))
}

// NewWithRand builds a Builder with an injected random source, for
// deterministic tests of cell/global sampling.
func NewWithRand(client remote.Client, rng *rand.Rand) *Builder {
	return &Builder{
		client:   client,
		resolver: resolve.New(client),
		feedback: feedback.NewEngine(client, nil),
		sampler:  sampler.New(rng),
		dedup:    dedup.New(client),
	}
}

// Build implements the C9 contract: resolve, retrieve-or-fetch-one,
// sample, assemble rows (spec §4.9).
func (b *Builder) Build(ctx context.Context, p Params) (model.Frame, error) {
	scorecard, err := b.resolver.ResolveScorecard(ctx, p.AccountID, p.ScorecardInput)
	if err != nil {
		return model.Frame{}, fmt.Errorf("dataset: build: %w", err)
	}
	score, err := b.resolver.ResolveScore(scorecard, p.ScoreInput)
	if err != nil {
		return model.Frame{}, fmt.Errorf("dataset: build: %w", err)
	}

	scoreColumn := columnName(score.Name, p.ColumnMappings)
	columns := rowColumns(scoreColumn)

	if p.Reload {
		return b.reload(ctx, p, scoreColumn)
	}

	frame := model.NewFrame(columns)

	var items []model.FeedbackItem
	if p.FeedbackID != "" {
		item, err := b.client.GetFeedbackItem(ctx, p.AccountID, p.FeedbackID)
		if err != nil {
			return model.Frame{}, fmt.Errorf("dataset: build: fetch feedback item: %w", err)
		}
		if item.ScorecardID != scorecard.ID || item.ScoreID != score.ID {
			return model.Frame{}, fmt.Errorf("dataset: build: %w: feedback_id %s does not belong to scorecard/score", apperr.ErrValidation, p.FeedbackID)
		}
		items = []model.FeedbackItem{item}
	} else {
		found, err := b.feedback.Find(ctx, feedback.FindParams{
			AccountID:              p.AccountID,
			ScorecardID:            scorecard.ID,
			ScoreID:                score.ID,
			Days:                   p.Days,
			Range:                  p.Range,
			InitialValue:           p.InitialValue,
			FinalValue:             p.FinalValue,
			WithItem:               true,
			PrioritizeEditComments: true,
		})
		if err != nil {
			return model.Frame{}, fmt.Errorf("dataset: build: %w", err)
		}
		items = b.sampler.Sample(found, p.LimitPerCell, p.Limit)
	}

	for _, it := range items {
		row, err := b.buildRow(ctx, it, scoreColumn, p)
		if err != nil {
			return model.Frame{}, fmt.Errorf("dataset: build: row for feedback %s: %w", it.ID, err)
		}
		frame.AppendRow(row)
	}
	return frame, nil
}

// buildRow derives one row's columns per spec §4.9.
func (b *Builder) buildRow(ctx context.Context, it model.FeedbackItem, scoreColumn string, p Params) (model.FrameRow, error) {
	item, err := b.resolveItem(ctx, it)
	if err != nil {
		return nil, err
	}

	contentID := item.ID
	var idList []idEntry

	if p.IdentifierExtractor != nil {
		handles := p.IdentifierExtractor(it)
		itemID, _, upsertErr := b.dedup.Upsert(ctx, dedup.UpsertParams{
			AccountID:   it.AccountID,
			Identifiers: handles,
			ExternalID:  item.ExternalID,
			Text:        item.Text,
			Metadata:    item.Metadata,
		})
		if upsertErr != nil {
			return nil, fmt.Errorf("identifier extractor upsert: %w", upsertErr)
		}
		contentID = itemID
		for _, h := range handles {
			idList = append(idList, idEntry{Name: h.Name, Value: h.Value, URL: h.URL})
		}
	} else {
		for _, h := range item.Identifiers {
			idList = append(idList, idEntry{Name: h.Name, Value: h.Value, URL: h.URL})
		}
	}

	if item.ExternalID != nil && *item.ExternalID != "" {
		idList = append(idList, idEntry{Name: "externalId", Value: *item.ExternalID})
	}
	idList = append(idList, idEntry{Name: "itemId", Value: contentID})

	idsJSON, err := json.Marshal(idList)
	if err != nil {
		return nil, fmt.Errorf("marshal IDs: %w", err)
	}

	metadataJSON, callDate, err := buildMetadata(it, item)
	if err != nil {
		return nil, err
	}

	row := model.FrameRow{
		colContentID:                   contentID,
		colFeedbackItemID:              it.ID,
		colIDs:                         string(idsJSON),
		colMetadata:                    metadataJSON,
		colText:                        item.Text,
		colCallDate:                    callDate,
		scoreColumn:                    it.FinalAnswer(),
		commentColumn(scoreColumn):     commentFor(it),
		editCommentColumn(scoreColumn): stringOrEmpty(it.EditCommentValue),
	}
	return row, nil
}

// resolveItem returns the FeedbackItem's Item, fetching it when the lazy
// relationship was not populated by the WithItem query (spec Design Note
// "Lazy relationship loading").
func (b *Builder) resolveItem(ctx context.Context, it model.FeedbackItem) (model.Item, error) {
	if it.Item != nil {
		return *it.Item, nil
	}
	return b.client.GetItem(ctx, it.AccountID, it.ItemID)
}

// buildMetadata merges feedback-item scalar fields, the nested item
// metadata (parsed if it arrived as a string), and derivative fields, per
// spec §4.9 "metadata" derivation. call_date is pulled from the merged
// document if present.
func buildMetadata(it model.FeedbackItem, item model.Item) (metadataJSON string, callDate string, err error) {
	merged := map[string]any{}

	if obj, ok := item.Metadata.AsObject(); ok {
		for k, v := range obj {
			merged[k] = v
		}
	}

	merged["feedback_item_id"] = it.ID
	merged["initial_answer_value"] = ifaceOrNil(it.InitialAnswerValue)
	merged["final_answer_value"] = ifaceOrNil(it.FinalAnswerValue)
	merged["is_agreement"] = it.IsAgreement
	merged["editor_name"] = ifaceOrNil(it.EditorName)
	merged["updated_at"] = it.UpdatedAt.Format(timeLayout)

	if cd, ok := merged["call_date"].(string); ok {
		callDate = cd
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return "", "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), callDate, nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func ifaceOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// commentFor implements the five-rule "<score> comment" derivation of
// spec §4.9, comparing trimmed strings case-insensitively.
func commentFor(it model.FeedbackItem) string {
	initialComment := stringOrEmpty(it.InitialCommentValue)
	final := stringOrEmpty(it.FinalCommentValue)
	edit := stringOrEmpty(it.EditCommentValue)

	switch {
	case isAgree(edit) && strings.TrimSpace(final) == "":
		return initialComment
	case isAgree(final):
		return initialComment
	case strings.TrimSpace(edit) != "" && !isAgree(edit):
		return edit
	case strings.TrimSpace(final) != "" && !isAgree(final):
		return final
	default:
		return initialComment
	}
}

func isAgree(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "agree")
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func columnName(scoreName string, mappings map[string]string) string {
	if mappings != nil {
		if mapped, ok := mappings[scoreName]; ok && mapped != "" {
			return mapped
		}
	}
	return scoreName
}

func commentColumn(scoreColumn string) string { return scoreColumn + " comment" }

func editCommentColumn(scoreColumn string) string { return scoreColumn + " edit comment" }

func rowColumns(scoreColumn string) []string {
	return []string{
		colContentID, colFeedbackItemID, colIDs, colMetadata, colText, colCallDate,
		scoreColumn, commentColumn(scoreColumn), editCommentColumn(scoreColumn),
	}
}

// reload implements reload mode (spec §4.9): re-fetch each row's feedback
// record by its stable id and refresh value columns in place, preserving
// row order and identifiers.
func (b *Builder) reload(ctx context.Context, p Params, scoreColumn string) (model.Frame, error) {
	out := model.NewFrame(p.Existing.Columns)
	for _, row := range p.Existing.Rows {
		feedbackID := row[colFeedbackItemID]
		fresh, err := b.client.GetFeedbackItem(ctx, p.AccountID, feedbackID)
		if err != nil {
			return model.Frame{}, fmt.Errorf("dataset: reload: fetch feedback %s: %w", feedbackID, err)
		}

		item, err := b.resolveItem(ctx, fresh)
		if err != nil {
			return model.Frame{}, fmt.Errorf("dataset: reload: fetch item for feedback %s: %w", feedbackID, err)
		}

		metadataJSON, callDate, err := buildMetadata(fresh, item)
		if err != nil {
			return model.Frame{}, err
		}

		newRow := model.FrameRow{}
		for k, v := range row {
			newRow[k] = v
		}
		newRow[colText] = item.Text
		newRow[colMetadata] = metadataJSON
		newRow[colCallDate] = callDate
		newRow[scoreColumn] = fresh.FinalAnswer()
		newRow[commentColumn(scoreColumn)] = commentFor(fresh)
		newRow[editCommentColumn(scoreColumn)] = stringOrEmpty(fresh.EditCommentValue)
		out.AppendRow(newRow)
	}
	return out, nil
}
