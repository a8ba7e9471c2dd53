// Package resolve translates user-provided strings (ids, external ids,
// keys, names, partial name matches) into canonical scorecard and score
// records.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scoreflow/hyouka/internal/apperr"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
)

// ErrNotFound is returned when no scorecard or score matches the given
// input, at any step of the lookup order.
var ErrNotFound = errors.New("resolve: not found")

// NotFoundError names what kind of entity and which input string failed
// to resolve.
type NotFoundError struct {
	Kind  string // "scorecard" or "score"
	Input string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolve: %s: no match for %q", e.Kind, e.Input)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Resolver resolves scorecard/score identifiers against the remote data
// service.
type Resolver struct {
	client remote.Client
}

// New builds a Resolver over the given remote client.
func New(client remote.Client) *Resolver {
	return &Resolver{client: client}
}

// looksLikeID reports whether s is shaped like an opaque id rather than a
// human-entered name: long and hyphenated.
func looksLikeID(s string) bool {
	return len(s) > 20 && strings.Contains(s, "-")
}

// ResolveScorecard resolves input against scorecards for accountID, trying
// in order: id, externalId, key, then exact/substring name match. The
// first step that yields a match wins — this order must stay stable so
// ambiguous inputs resolve the same way every time.
func (r *Resolver) ResolveScorecard(ctx context.Context, accountID, input string) (model.Scorecard, error) {
	if looksLikeID(input) {
		sc, err := r.client.GetScorecard(ctx, accountID, input)
		if err == nil {
			return sc, nil
		}
		// A transport/auth failure on the id path is not a reason to fall
		// through to the other lookups; only a clean miss falls through.
		if !errors.Is(err, apperr.ErrNotFound) {
			return model.Scorecard{}, err
		}
	}

	if sc, ok := firstOrNil(r.client.ListScorecardsByExternalID(ctx, accountID, input)); sc != nil {
		return *sc, nil
	} else if ok != nil {
		return model.Scorecard{}, ok
	}

	if sc, ok := firstOrNil(r.client.ListScorecardsByKey(ctx, accountID, input)); sc != nil {
		return *sc, nil
	} else if ok != nil {
		return model.Scorecard{}, ok
	}

	if sc, ok := firstOrNil(r.client.ListScorecardsByNameMatch(ctx, accountID, input)); sc != nil {
		return *sc, nil
	} else if ok != nil {
		return model.Scorecard{}, ok
	}

	return model.Scorecard{}, &NotFoundError{Kind: "scorecard", Input: input}
}

// ResolveScore resolves input against the scores carried by scorecard,
// trying in order: id, exact case-insensitive name, key, externalId, then
// case-insensitive name-substring match.
func (r *Resolver) ResolveScore(scorecard model.Scorecard, input string) (model.Score, error) {
	scores := scorecard.AllScores()
	lowerInput := strings.ToLower(strings.TrimSpace(input))

	for _, s := range scores {
		if s.ID == input {
			return s, nil
		}
	}
	for _, s := range scores {
		if strings.ToLower(s.Name) == lowerInput {
			return s, nil
		}
	}
	for _, s := range scores {
		if s.Key != nil && *s.Key == input {
			return s, nil
		}
	}
	for _, s := range scores {
		if s.ExternalID != nil && *s.ExternalID == input {
			return s, nil
		}
	}
	for _, s := range scores {
		if strings.Contains(strings.ToLower(s.Name), lowerInput) {
			return s, nil
		}
	}

	return model.Score{}, &NotFoundError{Kind: "score", Input: input}
}

// EnumerateScores returns scorecard's scores in section order, restricted
// to those carrying a non-empty externalId — the set addressable from
// outside the scorecard's own id space (spec §4.11 fan-out).
func (r *Resolver) EnumerateScores(scorecard model.Scorecard) []model.Score {
	var out []model.Score
	for _, s := range scorecard.AllScores() {
		if s.ExternalID != nil && *s.ExternalID != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstOrNil(scorecards []model.Scorecard, err error) (*model.Scorecard, error) {
	if err != nil {
		return nil, err
	}
	if len(scorecards) == 0 {
		return nil, nil
	}
	return &scorecards[0], nil
}

