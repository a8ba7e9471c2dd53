package model

// Item is the underlying content an AI score was evaluated on (e.g. a call
// transcript or form). One Item may carry feedback from multiple scores.
// See spec §3.
type Item struct {
	ID           string
	AccountID    string
	ExternalID   *string
	EvaluationID *string

	Text          string
	Metadata      JSONValue
	AttachedFiles []string

	// Identifiers is the named-handle mapping {name -> value(+url)} used
	// for dedup lookup (spec §4.8). Order matters: it is the position
	// order handles were attached in.
	Identifiers []ItemIdentifier

	// LegacyIdentifiers is a second, backward-compatible serialization of
	// Identifiers carried directly on the Item for readers that query the
	// Item record without joining the Identifier table (spec §4.8).
	LegacyIdentifiers []LegacyIdentifier

	IsEvaluation   bool
	CreatedByType  string // "evaluation" | "prediction"
}

// ItemIdentifier is one named handle attached to an Item, prior to being
// materialized as a standalone Identifier row.
type ItemIdentifier struct {
	Name  string
	Value string
	URL   *string
}

// LegacyIdentifier is the backward-compatible {name, id, url} shape stored
// directly on the Item (spec §4.8).
type LegacyIdentifier struct {
	Name string
	ID   string
	URL  *string
}

// Identifier is a standalone (itemId, name, value, url, position) tuple
// enabling index lookup by value scoped to an account (spec §3).
type Identifier struct {
	ItemID    string
	AccountID string
	Name      string
	Value     string
	URL       *string
	Position  int
}
