package model

// ConfusionMatrix is labels plus per-label predicted-class counts (spec
// §4.4, GLOSSARY).
type ConfusionMatrix struct {
	Labels []string
	Rows   []ConfusionRow
}

// ConfusionRow is one row of a ConfusionMatrix: the actual (final) class
// label and the distribution of predicted (initial) labels observed
// alongside it.
type ConfusionRow struct {
	ActualClassLabel    string
	PredictedClassCounts map[string]int
}

// Distribution maps a label to its observed count.
type Distribution map[string]int

// Total sums all counts in the distribution.
func (d Distribution) Total() int {
	t := 0
	for _, c := range d {
		t += c
	}
	return t
}

// BalanceState classifies a Distribution per spec §4.4.
type BalanceState string

const (
	BalanceSingleClass BalanceState = "single_class"
	BalanceBalanced    BalanceState = "balanced"
	BalanceImbalanced  BalanceState = "imbalanced"
)

// PrecisionRecall holds macro-averaged (or binary) precision/recall as
// percentages, per spec §4.4.
type PrecisionRecall struct {
	Precision float64
	Recall    float64
	// PerClass is populated in the multiclass case; nil for binary.
	PerClass map[string]ClassPrecisionRecall
	// PositiveClass is populated in the binary case (the "first sorted
	// label" convention, spec §9 Open Question).
	PositiveClass string
	Binary        bool
}

// ClassPrecisionRecall is one class's precision/recall in the multiclass
// macro-average breakdown.
type ClassPrecisionRecall struct {
	Precision float64
	Recall    float64
}

// AnalysisResult is the per-score analytic payload computed by the
// Agreement Analytics Engine (spec §4.5).
type AnalysisResult struct {
	TotalItems    int
	Agreements    int
	Disagreements int
	Accuracy      float64 // percentage

	ConfusionMatrix ConfusionMatrix
	PrecisionRecall PrecisionRecall
	AC1             *float64 // nil when undefined (spec §9 Open Question)

	FinalDistribution   Distribution
	InitialDistribution Distribution

	Warnings []string // already composed per spec §4.5 item 5
}

// ScoreContext identifies the scorecard/score a SummaryResult covers.
type ScoreContext struct {
	ScorecardID   string
	ScorecardName string
	ScoreID       string
	ScoreName     string
}

// SummaryContext is the context block of a SummaryResult.
type SummaryContext struct {
	AccountID     string
	ScorecardID   string
	ScorecardName string
	ScoreID       string // empty for scorecard-level summaries
	ScoreName     string
	Filters       SummaryFilters
	Total         int
}

// SummaryFilters echoes the request-level filters applied.
type SummaryFilters struct {
	InitialValue *string
	FinalValue   *string
	Days         int
	StartDate    *string
	EndDate      *string
}

// ScoreSummaryEntry is one per-score entry within a scorecard-level
// SummaryResult.
type ScoreSummaryEntry struct {
	Context        ScoreContext
	Analysis       AnalysisResult
	Recommendation string
	Warning        string
}

// SummaryResult is the output of the Agreement Analytics Engine (spec
// §4.5).
type SummaryResult struct {
	Context        SummaryContext
	Analysis       AnalysisResult
	Recommendation string
	// Scores is populated only for scorecard-level (multi-score) summaries.
	Scores []ScoreSummaryEntry
	// Warning is the scorecard-level aggregated warning (spec §4.5 item 7);
	// empty for single-score summaries, which use Analysis.Warnings.
	Warning string
	Message string // set on EmptyData (spec §7)
}

// SearchResult is the output of the search (feedback retrieval) surface.
type SearchResult struct {
	Items   []FeedbackItem
	Total   int
	Message string
}
