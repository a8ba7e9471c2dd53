package model

import (
	"strings"
	"time"
)

// FeedbackItem records one reviewer correction of one AI prediction for one
// content item under one score. See spec §3.
type FeedbackItem struct {
	ID           string
	ItemID       string
	AccountID    string
	ScorecardID  string
	ScoreID      string
	CacheKey     string // "<scoreId>:<externalFormId>"

	InitialAnswerValue *string
	FinalAnswerValue   *string

	InitialCommentValue *string
	FinalCommentValue   *string
	EditCommentValue    *string

	CreatedAt time.Time
	UpdatedAt time.Time
	EditedAt  *time.Time

	EditorName  *string
	IsAgreement bool

	// Item is populated only when the caller requested WithItem on the
	// query that produced this record (see remote.ListFeedbackParams).
	Item *Item
}

// CacheKeyFor builds the FeedbackItem cache key from a score id and an
// external form id, normalizing the way value filters normalize (spec §4.3
// "the same normalization is used in cache-key generation for stable reuse").
func CacheKeyFor(scoreID, externalFormID string) string {
	return strings.ToLower(strings.TrimSpace(scoreID)) + ":" + strings.ToLower(strings.TrimSpace(externalFormID))
}

// HasBothAnswers reports whether both the initial and final answer values
// are present, the precondition for this item to contribute to agreement
// analytics (spec §3 invariant).
func (f FeedbackItem) HasBothAnswers() bool {
	return f.InitialAnswerValue != nil && f.FinalAnswerValue != nil
}

// HasEditComment reports whether this item carries reviewer edit
// commentary, the signal used for prioritization (spec §4.6).
func (f FeedbackItem) HasEditComment() bool {
	return f.EditCommentValue != nil && *f.EditCommentValue != ""
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InitialAnswer returns the initial answer value, or "" if absent.
func (f FeedbackItem) InitialAnswer() string { return stringOrEmpty(f.InitialAnswerValue) }

// FinalAnswer returns the final answer value, or "" if absent.
func (f FeedbackItem) FinalAnswer() string { return stringOrEmpty(f.FinalAnswerValue) }
