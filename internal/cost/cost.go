// Package cost implements the cost aggregator (C6): loads ScoreResult
// records over a time window via the best-available GSI, then computes
// group totals and box-plot statistics. Ported arithmetic-for-arithmetic
// from ScoreResultCostAnalyzer in the original feedback dashboard's cost
// analysis module; money uses github.com/shopspring/decimal throughout
// instead of float64 to satisfy decimal discipline.
package cost

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
)

// Params selects the time window and scope for a cost query.
type Params struct {
	AccountID   string
	ScorecardID string
	ScoreID     string
	Days        int
	Hours       *int // when set, takes precedence over Days (spec "time_window" property)
}

func (p Params) timeWindow(now time.Time) remote.TimeRange {
	end := now.UTC()
	if p.Hours != nil {
		h := *p.Hours
		if h < 1 {
			h = 1
		}
		return remote.TimeRange{Start: end.Add(-time.Duration(h) * time.Hour), End: end}
	}
	days := p.Days
	if days < 1 {
		days = 1
	}
	return remote.TimeRange{Start: end.AddDate(0, 0, -days), End: end}
}

func (p Params) cacheKey() cacheKey {
	hours := -1
	if p.Hours != nil {
		hours = *p.Hours
	}
	return cacheKey{p.AccountID, p.Days, hours, p.ScorecardID, p.ScoreID}
}

type cacheKey struct {
	accountID   string
	days        int
	hours       int
	scorecardID string
	scoreID     string
}

// GroupTotals accumulates decimal cost and token counts for one group.
// DistinctItems/AverageCostPerItem implement the optional item-level
// analysis (spec §4.10): the count of distinct itemIds among cost-bearing
// records, and total_cost / distinct_items.
type GroupTotals struct {
	Count            int
	TotalCost        decimal.Decimal
	InputCost        decimal.Decimal
	OutputCost       decimal.Decimal
	PromptTokens     int
	CompletionTokens int
	CachedTokens     int
	LLMCalls         int

	DistinctItems      int
	AverageCostPerItem *decimal.Decimal

	items map[string]struct{}
}

func (g *GroupTotals) add(c model.CostFields, itemID *string) {
	g.Count++
	g.TotalCost = g.TotalCost.Add(c.TotalCost)
	g.InputCost = g.InputCost.Add(c.InputCost)
	g.OutputCost = g.OutputCost.Add(c.OutputCost)
	g.PromptTokens += c.PromptTokens
	g.CompletionTokens += c.CompletionTokens
	g.CachedTokens += c.CachedTokens
	g.LLMCalls += c.LLMCalls
	if itemID != nil && *itemID != "" {
		if g.items == nil {
			g.items = map[string]struct{}{}
		}
		g.items[*itemID] = struct{}{}
	}
}

// finalize computes DistinctItems/AverageCostPerItem once every record has
// been added; AverageCostPerItem stays nil when no record carried an
// itemId.
func (g *GroupTotals) finalize() {
	g.DistinctItems = len(g.items)
	if g.DistinctItems == 0 {
		return
	}
	avg := g.TotalCost.Div(decimal.NewFromInt(int64(g.DistinctItems)))
	g.AverageCostPerItem = &avg
}

// GroupSummary is one (scorecardId, scoreId) group's totals, with the
// score's display name when known.
type GroupSummary struct {
	ScorecardID string
	ScoreID     string
	ScoreName   string
	GroupTotals
}

// Summary is the output of Analyzer.Summarize.
type Summary struct {
	AccountID string
	Days      int
	Hours     *int
	Totals    GroupTotals
	Groups    []GroupSummary
}

// GroupBy selects the grouping dimension for Analyzer.Analyze.
type GroupBy string

const (
	GroupByNone            GroupBy = ""
	GroupByScorecard       GroupBy = "scorecard"
	GroupByScore           GroupBy = "score"
	GroupByScorecardScore  GroupBy = "scorecard_score"
)

// Stats is a box-plot-friendly statistical summary of one decimal
// distribution: count, sum/average, population stddev, median, quartiles,
// IQR, and range.
type Stats struct {
	Count       int
	Total       decimal.Decimal
	Average     decimal.Decimal
	StdDev      decimal.Decimal
	Median      decimal.Decimal
	Q1          decimal.Decimal
	Q3          decimal.Decimal
	IQR         decimal.Decimal
	Min         decimal.Decimal
	Max         decimal.Decimal
}

// GroupKey identifies one grouped bucket in an Analysis.
type GroupKey struct {
	ScorecardID string
	ScoreID     string
}

// GroupStats pairs a GroupKey with its cost and call-count statistics.
type GroupStats struct {
	Key        GroupKey
	CostStats  Stats
	CallStats  Stats
}

// Analysis is the output of Analyzer.Analyze.
type Analysis struct {
	AccountID      string
	Days           int
	Hours          *int
	HeadlineCost   Stats
	HeadlineCalls  Stats
	Groups         []GroupStats
	ScoreNameIndex map[string]string
}

// resultCache is the single-entry cache the spec describes, owned by an
// Aggregator (not a package-global) so multiple Aggregators — e.g. in
// tests — never share state (Design Note "a shared cache across workers
// is not required").
type resultCache struct {
	mu      sync.Mutex
	key     cacheKey
	hasKey  bool
	results []model.ScoreResult
}

func (c *resultCache) get(key cacheKey) ([]model.ScoreResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasKey && c.key == key {
		out := make([]model.ScoreResult, len(c.results))
		copy(out, c.results)
		return out, true
	}
	return nil, false
}

func (c *resultCache) put(key cacheKey, results []model.ScoreResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.hasKey = true
	c.results = append([]model.ScoreResult(nil), results...)
}

// Aggregator owns the single-entry cache shared by every Analyzer it
// constructs (spec §4.10, §5 "Shared state").
type Aggregator struct {
	client remote.Client
	cache  *resultCache
}

// NewAggregator builds an Aggregator over the given remote client.
func NewAggregator(client remote.Client) *Aggregator {
	return &Aggregator{client: client, cache: &resultCache{}}
}

// Analyzer constructs a per-call Analyzer sharing this Aggregator's cache.
func (a *Aggregator) Analyzer(p Params) *Analyzer {
	return &Analyzer{client: a.client, params: p, cache: a.cache, now: time.Now}
}

// Analyzer loads ScoreResults for one set of Params and computes totals
// and statistics. Constructed per caller; safe for one-shot use.
type Analyzer struct {
	client remote.Client
	params Params
	cache  *resultCache
	now    func() time.Time

	loaded  bool
	results []model.ScoreResult
}

// WithClock overrides the analyzer's clock, for deterministic tests of
// window resolution.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Load fetches every ScoreResult in scope via the narrowest available GSI
// (score, then scorecard, then account), honoring the single-entry cache.
func (a *Analyzer) Load(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	key := a.params.cacheKey()
	if cached, ok := a.cache.get(key); ok {
		a.results = cached
		a.loaded = true
		return nil
	}

	rng := a.params.timeWindow(a.now())
	listParams := remote.ListScoreResultParams{
		AccountID:   a.params.AccountID,
		ScorecardID: a.params.ScorecardID,
		ScoreID:     a.params.ScoreID,
		Range:       rng,
		PageSize:    1000,
	}

	var results []model.ScoreResult
	for {
		page, err := a.client.ListScoreResultsByIndex(ctx, listParams)
		if err != nil {
			return fmt.Errorf("cost: load: %w", err)
		}
		results = append(results, page.Items...)
		if page.NextToken == nil {
			break
		}
		listParams.NextToken = page.NextToken
	}

	a.results = results
	a.loaded = true
	a.cache.put(key, results)
	return nil
}

// extractCostFields normalizes a ScoreResult's cost substructure,
// regardless of whether it arrived as a direct field or nested under
// metadata["cost"] (spec §3).
func extractCostFields(sr model.ScoreResult) (model.CostFields, bool) {
	if obj, ok := sr.Cost.AsObject(); ok {
		return costFieldsFromMap(obj), true
	}
	if meta, ok := sr.Metadata.AsObject(); ok {
		if nested, ok := meta["cost"].(map[string]any); ok {
			return costFieldsFromMap(nested), true
		}
	}
	return model.CostFields{}, false
}

func costFieldsFromMap(m map[string]any) model.CostFields {
	return model.CostFields{
		TotalCost:        decimalFrom(m["total_cost"]),
		InputCost:        decimalFrom(m["input_cost"]),
		OutputCost:       decimalFrom(m["output_cost"]),
		PromptTokens:     intFrom(m["prompt_tokens"]),
		CompletionTokens: intFrom(m["completion_tokens"]),
		CachedTokens:     intFrom(m["cached_tokens"]),
		LLMCalls:         intFrom(m["llm_calls"]),
	}
}

func decimalFrom(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func intFrom(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return int(t)
	case int:
		return t
	default:
		return 0
	}
}

// Summarize groups loaded results by (scorecardId, scoreId) and computes
// totals, mirroring ScoreResultCostAnalyzer.summarize.
func (a *Analyzer) Summarize(ctx context.Context) (Summary, error) {
	if err := a.Load(ctx); err != nil {
		return Summary{}, err
	}

	totals := GroupTotals{}
	groupIndex := map[GroupKey]*GroupSummary{}
	var order []GroupKey

	for _, sr := range a.results {
		fields, ok := extractCostFields(sr)
		if !ok {
			continue
		}
		totals.add(fields, sr.ItemID)

		key := GroupKey{ScorecardID: sr.ScorecardID, ScoreID: sr.ScoreID}
		g, exists := groupIndex[key]
		if !exists {
			g = &GroupSummary{ScorecardID: sr.ScorecardID, ScoreID: sr.ScoreID}
			groupIndex[key] = g
			order = append(order, key)
		}
		g.add(fields, sr.ItemID)
		if sr.ScoreName != "" {
			g.ScoreName = sr.ScoreName
		}
	}
	totals.finalize()

	sort.Slice(order, func(i, j int) bool {
		if order[i].ScorecardID != order[j].ScorecardID {
			return order[i].ScorecardID < order[j].ScorecardID
		}
		return order[i].ScoreID < order[j].ScoreID
	})

	groups := make([]GroupSummary, 0, len(order))
	for _, key := range order {
		groupIndex[key].finalize()
		groups = append(groups, *groupIndex[key])
	}

	return Summary{
		AccountID: a.params.AccountID,
		Days:      a.params.Days,
		Hours:     a.params.Hours,
		Totals:    totals,
		Groups:    groups,
	}, nil
}

// Analyze computes headline and grouped box-plot statistics, mirroring
// ScoreResultCostAnalyzer.analyze.
func (a *Analyzer) Analyze(ctx context.Context, groupBy GroupBy) (Analysis, error) {
	if err := a.Load(ctx); err != nil {
		return Analysis{}, err
	}

	var overallCost, overallCalls []decimal.Decimal
	byGroupCost := map[GroupKey][]decimal.Decimal{}
	byGroupCalls := map[GroupKey][]decimal.Decimal{}
	scoreNameIndex := map[string]string{}

	for _, sr := range a.results {
		fields, ok := extractCostFields(sr)
		if !ok {
			continue
		}
		overallCost = append(overallCost, fields.TotalCost)
		overallCalls = append(overallCalls, decimal.NewFromInt(int64(fields.LLMCalls)))

		if sr.ScoreName != "" {
			if _, seen := scoreNameIndex[sr.ScoreID]; !seen {
				scoreNameIndex[sr.ScoreID] = sr.ScoreName
			}
		}

		key := groupKeyFor(groupBy, sr)
		if key != nil {
			byGroupCost[*key] = append(byGroupCost[*key], fields.TotalCost)
			byGroupCalls[*key] = append(byGroupCalls[*key], decimal.NewFromInt(int64(fields.LLMCalls)))
		}
	}

	var keys []GroupKey
	for k := range byGroupCost {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ScorecardID != keys[j].ScorecardID {
			return keys[i].ScorecardID < keys[j].ScorecardID
		}
		return keys[i].ScoreID < keys[j].ScoreID
	})

	groups := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, GroupStats{
			Key:       k,
			CostStats: computeStats(byGroupCost[k]),
			CallStats: computeStats(byGroupCalls[k]),
		})
	}

	return Analysis{
		AccountID:      a.params.AccountID,
		Days:           a.params.Days,
		Hours:          a.params.Hours,
		HeadlineCost:   computeStats(overallCost),
		HeadlineCalls:  computeStats(overallCalls),
		Groups:         groups,
		ScoreNameIndex: scoreNameIndex,
	}, nil
}

func groupKeyFor(groupBy GroupBy, sr model.ScoreResult) *GroupKey {
	switch groupBy {
	case GroupByScorecard:
		return &GroupKey{ScorecardID: sr.ScorecardID}
	case GroupByScore:
		return &GroupKey{ScoreID: sr.ScoreID}
	case GroupByScorecardScore:
		return &GroupKey{ScorecardID: sr.ScorecardID, ScoreID: sr.ScoreID}
	default:
		return nil
	}
}

func computeStats(values []decimal.Decimal) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}
	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	avg := total.Div(decimal.NewFromInt(int64(n)))

	return Stats{
		Count:   n,
		Total:   total,
		Average: avg,
		StdDev:  populationStdDev(values, avg),
		Median:  percentile(sorted, 0.5),
		Q1:      percentile(sorted, 0.25),
		Q3:      percentile(sorted, 0.75),
		IQR:     percentile(sorted, 0.75).Sub(percentile(sorted, 0.25)),
		Min:     sorted[0],
		Max:     sorted[n-1],
	}
}

// percentile implements linear-interpolation percentile on an
// already-sorted slice: k=(n-1)*p, f=floor(k), c=f+1, result =
// sorted[f]*(c-k) + sorted[c]*(k-f).
func percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return sorted[0]
	}
	k := float64(n-1) * p
	f := int(k)
	c := f + 1
	if c >= n {
		return sorted[n-1]
	}
	fDec := decimal.NewFromFloat(k - float64(f))
	cDec := decimal.NewFromFloat(float64(c) - k)
	return sorted[f].Mul(cDec).Add(sorted[c].Mul(fDec))
}

// populationStdDev computes sqrt(mean((x-mean)^2)) via float64 fallback,
// matching the original's var.sqrt()-unsupported-then-math.sqrt path —
// decimal.Decimal has no native sqrt either.
func populationStdDev(values []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n <= 1 {
		return decimal.Zero
	}
	var variance float64
	meanF, _ := mean.Float64()
	for _, v := range values {
		vF, _ := v.Float64()
		d := vF - meanF
		variance += d * d
	}
	variance /= float64(n)
	if variance < 0 {
		variance = 0
	}
	return decimal.NewFromFloat(math.Sqrt(variance))
}
