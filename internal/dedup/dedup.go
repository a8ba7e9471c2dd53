// Package dedup implements the item deduplicator (C8): a hierarchical
// lookup that prevents creating duplicate Items for the same real-world
// artifact when multiple upstream processes observe it, ported in
// semantics from upsert_by_identifiers/_lookup_item_by_identifiers/
// _validate_item_relationship/_create_identifier_records/
// _convert_identifiers_to_legacy_format in the original feedback
// dashboard's item model.
package dedup

import (
	"context"
	"fmt"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
)

// Handle names for the hierarchical lookup, in preference order at each
// step of the algorithm (spec §4.8).
const (
	HandleFormID    = "formId"
	HandleReportID  = "reportId"
	HandleSessionID = "sessionId"
)

// criticalHandles are compared for cross-contamination validation when a
// reportId/sessionId hit is found — matching the original's
// `critical_identifiers = ['reportId', 'sessionId']`.
var criticalHandles = []string{HandleReportID, HandleSessionID}

// UpsertParams is the upsert contract input (spec §4.8).
type UpsertParams struct {
	AccountID   string
	Identifiers []model.ItemIdentifier // ordered; Name is one of the Handle* constants or a custom handle
	ExternalID  *string
	Text        string
	Metadata    model.JSONValue
}

// Deduplicator implements the hierarchical item lookup/create/merge flow.
type Deduplicator struct {
	client remote.Client
}

// New builds a Deduplicator over the given remote client.
func New(client remote.Client) *Deduplicator {
	return &Deduplicator{client: client}
}

// Upsert implements the five-step hierarchical lookup and either returns
// the matched Item (merging in any new non-null fields) or creates a new
// one. Errors surface as the third return value; callers may treat them
// non-fatally (spec §4.8).
func (d *Deduplicator) Upsert(ctx context.Context, p UpsertParams) (itemID string, wasCreated bool, err error) {
	byName := indexByName(p.Identifiers)

	// Step 1: formId is the most specific handle — no further validation.
	if formID, ok := byName[HandleFormID]; ok && formID != "" {
		item, found, lookupErr := d.lookupByIdentifierValue(ctx, p.AccountID, formID)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		if found {
			return d.merge(ctx, item, p)
		}
	}

	// Step 2: reportId, then sessionId (preference order), each validated
	// against the candidate Item's stored identifiers to reject
	// cross-contaminated matches.
	for _, handle := range []string{HandleReportID, HandleSessionID} {
		value, ok := byName[handle]
		if !ok || value == "" {
			continue
		}
		item, found, lookupErr := d.lookupByIdentifierValue(ctx, p.AccountID, value)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		if found && validateRelationship(item, byName) {
			return d.merge(ctx, item, p)
		}
	}

	// Step 3: any other known handle not already tried.
	for _, ident := range p.Identifiers {
		if ident.Name == HandleFormID || ident.Name == HandleReportID || ident.Name == HandleSessionID {
			continue
		}
		if ident.Value == "" {
			continue
		}
		item, found, lookupErr := d.lookupByIdentifierValue(ctx, p.AccountID, ident.Value)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		if found {
			return d.merge(ctx, item, p)
		}
	}

	// Step 4: externalId equality fallback.
	if p.ExternalID != nil && *p.ExternalID != "" {
		item, lookupErr := d.client.LookupItemByExternalID(ctx, p.AccountID, *p.ExternalID)
		if lookupErr != nil {
			return "", false, fmt.Errorf("dedup: lookup by externalId: %w", lookupErr)
		}
		if item != nil {
			return d.merge(ctx, *item, p)
		}
	}

	// Step 5: no hit -> create.
	return d.create(ctx, p)
}

func indexByName(identifiers []model.ItemIdentifier) map[string]string {
	out := make(map[string]string, len(identifiers))
	for _, ident := range identifiers {
		out[ident.Name] = ident.Value
	}
	return out
}

func (d *Deduplicator) lookupByIdentifierValue(ctx context.Context, accountID, value string) (model.Item, bool, error) {
	ident, err := d.client.LookupIdentifier(ctx, accountID, value)
	if err != nil {
		return model.Item{}, false, fmt.Errorf("dedup: lookup identifier: %w", err)
	}
	if ident == nil {
		return model.Item{}, false, nil
	}
	item, err := d.client.GetItem(ctx, accountID, ident.ItemID)
	if err != nil {
		return model.Item{}, false, fmt.Errorf("dedup: fetch item: %w", err)
	}
	return item, true, nil
}

// validateRelationship compares critical handles (reportId, sessionId)
// between the incoming identifiers and the candidate Item's own stored
// identifiers (legacy or modern representation); any shared handle that
// mismatches rejects the candidate.
func validateRelationship(item model.Item, incoming map[string]string) bool {
	existing := map[string]string{}
	for _, li := range item.LegacyIdentifiers {
		switch li.Name {
		case "report ID":
			existing[HandleReportID] = li.ID
		case "session ID":
			existing[HandleSessionID] = li.ID
		case "form ID":
			existing[HandleFormID] = li.ID
		}
	}
	for _, mi := range item.Identifiers {
		if mi.Name == HandleReportID || mi.Name == HandleSessionID || mi.Name == HandleFormID {
			existing[mi.Name] = mi.Value
		}
	}

	for _, handle := range criticalHandles {
		existingValue, hasExisting := existing[handle]
		newValue, hasNew := incoming[handle]
		if hasExisting && hasNew && existingValue != "" && newValue != "" && existingValue != newValue {
			return false
		}
	}
	return true
}

func (d *Deduplicator) merge(ctx context.Context, existing model.Item, p UpsertParams) (string, bool, error) {
	patch := model.Item{ID: existing.ID, AccountID: existing.AccountID}
	if p.ExternalID != nil {
		patch.ExternalID = p.ExternalID
	}
	if p.Text != "" {
		patch.Text = p.Text
	}
	if !p.Metadata.IsEmpty() {
		patch.Metadata = p.Metadata
	}

	updated, err := d.client.UpdateItem(ctx, patch)
	if err != nil {
		return "", false, fmt.Errorf("dedup: update item: %w", err)
	}
	return updated.ID, false, nil
}

func (d *Deduplicator) create(ctx context.Context, p UpsertParams) (string, bool, error) {
	item := model.Item{
		AccountID:         p.AccountID,
		ExternalID:        p.ExternalID,
		Text:              p.Text,
		Metadata:          p.Metadata,
		Identifiers:       p.Identifiers,
		LegacyIdentifiers: toLegacyIdentifiers(p.Identifiers),
	}
	created, err := d.client.CreateItem(ctx, item)
	if err != nil {
		return "", false, fmt.Errorf("dedup: create item: %w", err)
	}

	for position, ident := range p.Identifiers {
		row := model.Identifier{
			ItemID:    created.ID,
			AccountID: p.AccountID,
			Name:      ident.Name,
			Value:     ident.Value,
			URL:       ident.URL,
			Position:  position,
		}
		if createErr := d.client.CreateIdentifier(ctx, row); createErr != nil {
			// Any identifier-row failure surfaces with the created item's
			// id; a duplicate row from a concurrent create race on the same
			// (itemId, name, value) is not told apart from other failures.
			return created.ID, true, fmt.Errorf("dedup: create identifier row %q: %w", ident.Name, createErr)
		}
	}

	return created.ID, true, nil
}

// toLegacyIdentifiers converts the modern ItemIdentifier list into the
// legacy `{name, id, url?}` representation stored on the Item itself, for
// backward compatibility with readers that query the Item directly
// (spec §4.8), mirroring _convert_identifiers_to_legacy_format's name
// mapping.
func toLegacyIdentifiers(identifiers []model.ItemIdentifier) []model.LegacyIdentifier {
	legacyName := map[string]string{
		HandleFormID:    "form ID",
		HandleReportID:  "report ID",
		HandleSessionID: "session ID",
	}
	out := make([]model.LegacyIdentifier, 0, len(identifiers))
	for _, ident := range identifiers {
		name := ident.Name
		if mapped, ok := legacyName[ident.Name]; ok {
			name = mapped
		}
		out = append(out, model.LegacyIdentifier{Name: name, ID: ident.Value, URL: ident.URL})
	}
	return out
}
