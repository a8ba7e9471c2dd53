// Package analytics implements the Agreement Analytics Engine (C5): it
// drives the feedback retrieval engine and the metrics kernel, then
// synthesizes human-readable warnings and a rule-based recommendation,
// following the warning/recommendation logic in the original dashboard's
// feedback_analysis report block.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/scoreflow/hyouka/internal/feedback"
	"github.com/scoreflow/hyouka/internal/metrics"
	"github.com/scoreflow/hyouka/internal/model"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/resolve"
	"github.com/scoreflow/hyouka/internal/telemetry"
)

// noDataWarning is the boundary-case warning for an empty qualifying
// population (spec §8 "Boundaries").
const noDataWarning = "No feedback items found"

// Params parametrizes Engine.Summarize (spec §4.5).
type Params struct {
	AccountID      string
	ScorecardInput string // required; id/externalId/key/name, resolved via C1
	ScoreInput     string // optional; when empty, every externalId-bearing score is summarized

	Days      int
	Range     remote.TimeRange
	StartDate *string
	EndDate   *string

	InitialValue *string
	FinalValue   *string
}

// Engine is the agreement analytics engine (C5), mirroring the teacher's
// constructor-injected service-struct shape (client + logger + otel
// meter/tracer fields).
type Engine struct {
	resolver *resolve.Resolver
	feedback *feedback.Engine
	logger   *slog.Logger

	summarizeDuration metric.Float64Histogram
	tracer            trace.Tracer
}

// New builds an Engine over the given resolver and feedback retrieval
// engine.
func New(resolver *resolve.Resolver, fb *feedback.Engine, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	meter := telemetry.Meter("hyouka/analytics")
	dur, _ := meter.Float64Histogram("hyouka.summarize.duration",
		metric.WithDescription("Time to build one agreement summary (ms)"),
		metric.WithUnit("ms"),
	)
	return &Engine{
		resolver:          resolver,
		feedback:          fb,
		logger:            logger,
		summarizeDuration: dur,
		tracer:            telemetry.Tracer("hyouka/analytics"),
	}
}

// Summarize implements the C5 pipeline: resolve, enumerate, retrieve,
// compute, synthesize.
func (e *Engine) Summarize(ctx context.Context, p Params) (model.SummaryResult, error) {
	ctx, span := e.tracer.Start(ctx, "analytics.Summarize")
	defer span.End()
	start := time.Now()
	defer func() {
		e.summarizeDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()
	span.SetAttributes(attribute.String("hyouka.scorecard_input", p.ScorecardInput))

	scorecard, err := e.resolver.ResolveScorecard(ctx, p.AccountID, p.ScorecardInput)
	if err != nil {
		return model.SummaryResult{}, fmt.Errorf("analytics: summarize: %w", err)
	}

	filters := model.SummaryFilters{
		InitialValue: p.InitialValue,
		FinalValue:   p.FinalValue,
		Days:         p.Days,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
	}

	if p.ScoreInput != "" {
		score, err := e.resolver.ResolveScore(scorecard, p.ScoreInput)
		if err != nil {
			return model.SummaryResult{}, fmt.Errorf("analytics: summarize: %w", err)
		}
		entry, err := e.summarizeOne(ctx, p, scorecard, score)
		if err != nil {
			return model.SummaryResult{}, err
		}
		result := model.SummaryResult{
			Context: model.SummaryContext{
				AccountID:     p.AccountID,
				ScorecardID:   scorecard.ID,
				ScorecardName: scorecard.Name,
				ScoreID:       score.ID,
				ScoreName:     score.Name,
				Filters:       filters,
				Total:         entry.Analysis.TotalItems,
			},
			Analysis:       entry.Analysis,
			Recommendation: entry.Recommendation,
		}
		if entry.Analysis.TotalItems == 0 {
			result.Message = "No data"
		}
		return result, nil
	}

	scores := e.resolver.EnumerateScores(scorecard)
	entries := make([]model.ScoreSummaryEntry, 0, len(scores))
	total := 0
	for _, score := range scores {
		entry, err := e.summarizeOne(ctx, p, scorecard, score)
		if err != nil {
			return model.SummaryResult{}, err
		}
		entries = append(entries, entry)
		total += entry.Analysis.TotalItems
	}

	result := model.SummaryResult{
		Context: model.SummaryContext{
			AccountID:     p.AccountID,
			ScorecardID:   scorecard.ID,
			ScorecardName: scorecard.Name,
			Filters:       filters,
			Total:         total,
		},
		Scores:  entries,
		Warning: aggregateWarning(entries),
	}
	if len(entries) == 0 || total == 0 {
		result.Message = "No data"
	}
	return result, nil
}

// summarizeOne computes the per-score entry: retrieve -> filter -> compute
// -> synthesize (spec §4.5 steps 2-6).
func (e *Engine) summarizeOne(ctx context.Context, p Params, scorecard model.Scorecard, score model.Score) (model.ScoreSummaryEntry, error) {
	items, err := e.feedback.Find(ctx, feedback.FindParams{
		AccountID:              p.AccountID,
		ScorecardID:            scorecard.ID,
		ScoreID:                score.ID,
		Days:                   p.Days,
		Range:                  p.Range,
		InitialValue:           p.InitialValue,
		FinalValue:             p.FinalValue,
		PrioritizeEditComments: true,
	})
	if err != nil {
		return model.ScoreSummaryEntry{}, fmt.Errorf("analytics: summarize %s: %w", score.ID, err)
	}

	analysis := Compute(items)
	recommendation := recommendationFor(analysis)

	return model.ScoreSummaryEntry{
		Context: model.ScoreContext{
			ScorecardID:   scorecard.ID,
			ScorecardName: scorecard.Name,
			ScoreID:       score.ID,
			ScoreName:     score.Name,
		},
		Analysis:       analysis,
		Recommendation: recommendation,
		Warning:        strings.Join(analysis.Warnings, "; "),
	}, nil
}

// Compute runs the metrics kernel over the filtered population of items
// with both answers present (spec §4.5 steps 3-5).
func Compute(items []model.FeedbackItem) model.AnalysisResult {
	var reference, prediction []string
	for _, it := range items {
		if !it.HasBothAnswers() {
			continue
		}
		reference = append(reference, it.FinalAnswer())
		prediction = append(prediction, it.InitialAnswer())
	}

	total := len(reference)
	if total == 0 {
		return model.AnalysisResult{Warnings: []string{noDataWarning}}
	}

	agreements := 0
	for i := range reference {
		if reference[i] == prediction[i] {
			agreements++
		}
	}
	disagreements := total - agreements
	accuracy := float64(agreements) / float64(total) * 100

	confusion := metrics.ConfusionMatrix(reference, prediction)
	precisionRecall := metrics.PrecisionRecall(reference, prediction)
	ac1 := metrics.AC1(reference, prediction)

	finalDist := distributionOf(reference)
	initialDist := distributionOf(prediction)

	return model.AnalysisResult{
		TotalItems:          total,
		Agreements:          agreements,
		Disagreements:       disagreements,
		Accuracy:            accuracy,
		ConfusionMatrix:      confusion,
		PrecisionRecall:     precisionRecall,
		AC1:                 ac1,
		FinalDistribution:   finalDist,
		InitialDistribution: initialDist,
		Warnings:            synthesizeWarnings(finalDist, ac1),
	}
}

func distributionOf(values []string) model.Distribution {
	d := model.Distribution{}
	for _, v := range values {
		d[v]++
	}
	return d
}

// synthesizeWarnings implements spec §4.5 step 5.
func synthesizeWarnings(finalDist model.Distribution, ac1 *float64) []string {
	var warnings []string

	if ac1 != nil {
		switch {
		case *ac1 < 0:
			warnings = append(warnings, "Systematic disagreement")
		case *ac1 == 0:
			warnings = append(warnings, "Random chance agreement")
		}
	}

	switch metrics.Balanced(finalDist) {
	case model.BalanceSingleClass:
		warnings = append(warnings, fmt.Sprintf("Single class (%s)", onlyLabel(finalDist)))
	case model.BalanceImbalanced:
		warnings = append(warnings, "Imbalanced classes")
	}

	return warnings
}

func onlyLabel(d model.Distribution) string {
	for label, count := range d {
		if count > 0 {
			return label
		}
	}
	return ""
}

// recommendationFor implements spec §4.5 step 6.
func recommendationFor(a model.AnalysisResult) string {
	if a.TotalItems == 0 {
		return ""
	}

	var phrases []string
	ac1Concern := a.AC1 != nil && *a.AC1 < 0.6

	switch {
	case a.Accuracy < 70:
		phrases = append(phrases, "Low accuracy detected: "+suggestionFor(a.Warnings))
	case a.Accuracy < 85:
		phrases = append(phrases, "Moderate accuracy — review disagreement patterns")
	default:
		if !ac1Concern {
			phrases = append(phrases, "Good performance — examine edge cases")
		}
	}

	if a.AC1 != nil {
		switch {
		case *a.AC1 < 0:
			phrases = append(phrases, "Systematic disagreement requires immediate attention")
		case *a.AC1 < 0.4:
			phrases = append(phrases, "Poor agreement between AI and human reviewers")
		case *a.AC1 < 0.6:
			phrases = append(phrases, "Fair agreement — investigate borderline cases")
		}
	}

	if len(phrases) == 0 {
		return ""
	}
	return strings.Join(phrases, ". ") + "."
}

// suggestionFor picks a low-accuracy suggestion keyed to the warning kind
// already present for this score, falling back to a general suggestion.
func suggestionFor(warnings []string) string {
	joined := strings.Join(warnings, "; ")
	switch {
	case strings.Contains(joined, "Systematic disagreement"):
		return "review the scoring rubric for ambiguity"
	case strings.Contains(joined, "Random chance"):
		return "the rubric may need redefinition"
	case strings.Contains(joined, "Single class"):
		return "expand the evaluation sample for more diverse cases"
	case strings.Contains(joined, "Imbalanced"):
		return "consider balanced sampling across classes"
	default:
		return "review individual disagreements for patterns"
	}
}

// kindOrder is the fixed rendering order for the warning-type list in
// aggregateWarning (spec §4.5 step 7).
var kindOrder = []string{"disagreement", "random chance", "single class", "imbalanced", "no data"}

// kindFor returns the single warning kind a score entry counts toward,
// following the original report's elif-chain priority: a score with more
// than one warning phrase still counts toward only the first matching
// kind, never more than one (mirrors `_generate_summary_warning`'s
// warning_counts bucketing). Returns "" for a clean score.
func kindFor(entry model.ScoreSummaryEntry) string {
	if entry.Analysis.TotalItems == 0 {
		return "no data"
	}
	warning := entry.Warning
	switch {
	case strings.Contains(warning, "Systematic disagreement"):
		return "disagreement"
	case strings.Contains(warning, "Random chance"):
		return "random chance"
	case strings.Contains(warning, "Single class"):
		return "single class"
	case strings.Contains(warning, "Imbalanced classes"):
		return "imbalanced"
	default:
		return ""
	}
}

// aggregateWarning implements spec §4.5 step 7: one overall count of
// scores carrying a warning, followed by the distinct warning kinds found
// among them (mirrors `_generate_summary_warning` in the original report
// block exactly, including its "and"/"multiple issues" phrasing).
func aggregateWarning(entries []model.ScoreSummaryEntry) string {
	total := len(entries)
	if total == 0 {
		return ""
	}

	present := map[string]bool{}
	scoresWithWarnings := 0
	for _, e := range entries {
		kind := kindFor(e)
		if kind == "" {
			continue
		}
		scoresWithWarnings++
		present[kind] = true
	}
	if scoresWithWarnings == 0 {
		return ""
	}

	var scorePhrase string
	switch {
	case scoresWithWarnings == total:
		scorePhrase = "All scores"
	case scoresWithWarnings == 1:
		scorePhrase = "1 score"
	default:
		scorePhrase = fmt.Sprintf("%d scores with", scoresWithWarnings)
	}

	var warningTypes []string
	for _, kind := range kindOrder {
		if present[kind] {
			warningTypes = append(warningTypes, kind)
		}
	}

	// "All scores"/"1 score" take a colon before the kind list; the plain
	// count phrase already ends in "with" and reads on without one.
	allOrOne := scoresWithWarnings == total || scoresWithWarnings == 1

	switch {
	case len(warningTypes) == 1:
		if allOrOne {
			return fmt.Sprintf("%s: %s.", scorePhrase, warningTypes[0])
		}
		return fmt.Sprintf("%s %s.", scorePhrase, warningTypes[0])
	case len(warningTypes) == 2:
		if allOrOne {
			return fmt.Sprintf("%s: %s and %s.", scorePhrase, warningTypes[0], warningTypes[1])
		}
		return fmt.Sprintf("%s %s and %s.", scorePhrase, warningTypes[0], warningTypes[1])
	default:
		lines := make([]string, len(warningTypes))
		for i, wt := range warningTypes {
			lines[i] = " " + wt
		}
		if allOrOne {
			return fmt.Sprintf("%s with multiple issues:\n%s.", scorePhrase, strings.Join(lines, "\n"))
		}
		return fmt.Sprintf("%s multiple issues:\n%s.", scorePhrase, strings.Join(lines, "\n"))
	}
}
