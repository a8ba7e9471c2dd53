package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScoreResult is a produced prediction record. Only its cost substructure
// is used by the cost aggregator (spec §3, §4.10).
type ScoreResult struct {
	ID          string
	ItemID      *string
	AccountID   string
	ScorecardID string
	ScoreID     string
	ScoreName   string
	UpdatedAt   time.Time

	// Cost may arrive as a direct field or nested under Metadata["cost"];
	// both shapes are accepted (spec §3).
	Cost     JSONValue
	Metadata JSONValue
}

// CostFields is the normalized cost substructure extracted from a
// ScoreResult, regardless of which of the two accepted shapes it arrived
// in.
type CostFields struct {
	TotalCost        decimal.Decimal
	InputCost        decimal.Decimal
	OutputCost       decimal.Decimal
	PromptTokens     int
	CompletionTokens int
	CachedTokens     int
	LLMCalls         int
}
