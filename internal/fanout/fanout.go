// Package fanout implements the Scorecard Fan-Out Orchestrator (C10): when
// a caller selects the literal scorecard "all", it enumerates every
// scorecard for the account and runs a caller-supplied per-scorecard
// analysis concurrently, bounded by a configurable semaphore width, then
// ranks and filters the results. One Orchestrator serves both the
// agreement-analytics and cost-aggregation callers via the same
// func(ctx, scorecard) (Result, error) callback shape, avoiding two
// near-duplicate fan-out implementations (spec §4.11).
package fanout

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/scoreflow/hyouka/internal/model"
)

const (
	// DefaultConcurrency is used when a caller passes a non-positive width.
	DefaultConcurrency = 4
	// MaxConcurrency is the hard ceiling on fan-out width (spec §5).
	MaxConcurrency = 16
)

// Result is one scorecard's outcome from the per-scorecard callback. Rank
// is the primary ranking metric; nil means "rank last" (spec §4.11 "AC1
// descending, nulls last").
type Result struct {
	ScorecardID   string
	ScorecardName string
	TotalItems    int
	Rank          *float64
	Value         any // the caller's own analysis/cost result payload
	Err           error
}

// AnalyzeFunc runs one scorecard's analysis and reports its rank metric
// and item count alongside the caller-specific payload.
type AnalyzeFunc func(ctx context.Context, scorecard model.Scorecard) (Result, error)

// Summary is the combined object emitted for "all scorecards" mode (spec
// §4.11 step 4).
type Summary struct {
	Mode          string   `json:"mode"`
	TotalAnalyzed int      `json:"total_analyzed"`
	WithData      int      `json:"with_data"`
	WithoutData   int      `json:"without_data"`
	DateRange     string   `json:"date_range,omitempty"`
	Scorecards    []Result `json:"scorecards"`
	Message       string   `json:"message"`
}

// Orchestrator runs AnalyzeFunc across every scorecard of an account with
// bounded concurrency.
type Orchestrator struct {
	lister         scorecardLister
	concurrency    int
	rankDescending bool
}

type scorecardLister interface {
	ListAllScorecards(ctx context.Context, accountID string) ([]model.Scorecard, error)
}

// New builds an Orchestrator. concurrency <= 0 uses DefaultConcurrency;
// values above MaxConcurrency are clamped down to it.
func New(lister scorecardLister, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}
	return &Orchestrator{lister: lister, concurrency: concurrency, rankDescending: true}
}

// RankDescending controls whether Run sorts by Rank descending (the
// default, correct for AC1 and total_cost) or ascending.
func (o *Orchestrator) RankDescending(descending bool) *Orchestrator {
	o.rankDescending = descending
	return o
}

// Run implements the C10 algorithm: enumerate, fan out bounded by
// o.concurrency, collect (never cancelling the batch on a single failure),
// filter zero-item scorecards, and rank (spec §4.11).
func (o *Orchestrator) Run(ctx context.Context, accountID string, analyze AnalyzeFunc) (Summary, error) {
	scorecards, err := o.lister.ListAllScorecards(ctx, accountID)
	if err != nil {
		return Summary{}, fmt.Errorf("fanout: run: list scorecards: %w", err)
	}

	results := make([]Result, len(scorecards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, sc := range scorecards {
		i, sc := i, sc
		g.Go(func() error {
			res, analyzeErr := analyze(gctx, sc)
			if analyzeErr != nil {
				res = Result{ScorecardID: sc.ID, ScorecardName: sc.Name, Err: analyzeErr}
			}
			if res.ScorecardID == "" {
				res.ScorecardID = sc.ID
			}
			if res.ScorecardName == "" {
				res.ScorecardName = sc.Name
			}
			results[i] = res
			return nil
		})
	}
	// Failure of one scorecard must not cancel the batch (spec §4.11): the
	// inner goroutines never return a non-nil error, so g.Wait cannot fail.
	_ = g.Wait()

	totalAnalyzed := len(results)
	var withData []Result
	var withoutData int
	for _, r := range results {
		if r.Err != nil {
			withoutData++
			continue
		}
		if r.TotalItems == 0 {
			withoutData++
			continue
		}
		withData = append(withData, r)
	}

	rank(withData, o.rankDescending)

	// Failed/empty entries are still reported as placeholder entries (spec
	// §4.11 "record the error as a placeholder entry and continue"),
	// appended after the ranked data-bearing ones.
	ordered := make([]Result, 0, totalAnalyzed)
	ordered = append(ordered, withData...)
	for _, r := range results {
		if r.Err != nil || r.TotalItems == 0 {
			ordered = append(ordered, r)
		}
	}

	return Summary{
		Mode:          "all_scorecards",
		TotalAnalyzed: totalAnalyzed,
		WithData:      len(withData),
		WithoutData:   withoutData,
		Scorecards:    ordered,
		Message:       summaryMessage(totalAnalyzed, len(withData), withoutData),
	}, nil
}

// rank sorts data-bearing results by Rank, nulls last, descending unless
// descending is false (spec §4.11 "AC1 descending, nulls last; or
// total_cost descending").
func rank(results []Result, descending bool) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Rank, results[j].Rank
		if a == nil && b == nil {
			return false
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if descending {
			return *a > *b
		}
		return *a < *b
	})
}

func summaryMessage(total, withData, withoutData int) string {
	if total == 0 {
		return "No scorecards found"
	}
	if withData == 0 {
		return "No scorecards had qualifying feedback"
	}
	return fmt.Sprintf("%d of %d scorecards had qualifying feedback", withData, total)
}
