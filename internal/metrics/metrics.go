// Package metrics implements the pure statistical kernel: confusion
// matrices, precision/recall, Gwet's AC1 chance-corrected agreement, and
// distribution-balance classification. No package in the surrounding
// ecosystem specializes in inter-rater agreement statistics, so this
// kernel is hand-derived arithmetic straight from the defining formulas —
// deliberately stdlib-only (sort, math).
package metrics

import (
	"sort"

	"github.com/scoreflow/hyouka/internal/model"
)

// ConfusionMatrix builds labels = sorted(unique(reference ∪ prediction))
// and one row per label counting how often each prediction label co-occurs
// with that actual (reference) label.
func ConfusionMatrix(reference, prediction []string) model.ConfusionMatrix {
	labelSet := map[string]struct{}{}
	for _, r := range reference {
		labelSet[r] = struct{}{}
	}
	for _, p := range prediction {
		labelSet[p] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	rowIndex := map[string]int{}
	rows := make([]model.ConfusionRow, len(labels))
	for i, l := range labels {
		rows[i] = model.ConfusionRow{ActualClassLabel: l, PredictedClassCounts: map[string]int{}}
		rowIndex[l] = i
	}

	n := minLen(reference, prediction)
	for i := 0; i < n; i++ {
		row := rows[rowIndex[reference[i]]]
		row.PredictedClassCounts[prediction[i]]++
	}

	return model.ConfusionMatrix{Labels: labels, Rows: rows}
}

func minLen(a, b []string) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

// PrecisionRecall computes binary (two-label, first-sorted-label-positive)
// or macro-averaged multiclass precision/recall, as percentages. Zero
// denominators yield 0, not NaN.
func PrecisionRecall(reference, prediction []string) model.PrecisionRecall {
	labels := sortedUniqueLabels(reference, prediction)
	n := minLen(reference, prediction)

	if len(labels) == 2 {
		positive := labels[0]
		var tp, fp, fn int
		for i := 0; i < n; i++ {
			actual := reference[i] == positive
			predicted := prediction[i] == positive
			switch {
			case actual && predicted:
				tp++
			case !actual && predicted:
				fp++
			case actual && !predicted:
				fn++
			}
		}
		return model.PrecisionRecall{
			Precision:     ratio(tp, tp+fp) * 100,
			Recall:        ratio(tp, tp+fn) * 100,
			PositiveClass: positive,
			Binary:        true,
		}
	}

	perClass := map[string]model.ClassPrecisionRecall{}
	var sumPrecision, sumRecall float64
	for _, label := range labels {
		var tp, fp, fn int
		for i := 0; i < n; i++ {
			actual := reference[i] == label
			predicted := prediction[i] == label
			switch {
			case actual && predicted:
				tp++
			case !actual && predicted:
				fp++
			case actual && !predicted:
				fn++
			}
		}
		precision := ratio(tp, tp+fp) * 100
		recall := ratio(tp, tp+fn) * 100
		perClass[label] = model.ClassPrecisionRecall{Precision: precision, Recall: recall}
		sumPrecision += precision
		sumRecall += recall
	}

	k := float64(len(labels))
	macroPrecision, macroRecall := 0.0, 0.0
	if k > 0 {
		macroPrecision = sumPrecision / k
		macroRecall = sumRecall / k
	}

	return model.PrecisionRecall{
		Precision: macroPrecision,
		Recall:    macroRecall,
		PerClass:  perClass,
		Binary:    false,
	}
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func sortedUniqueLabels(reference, prediction []string) []string {
	set := map[string]struct{}{}
	for _, r := range reference {
		set[r] = struct{}{}
	}
	for _, p := range prediction {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// AC1 computes Gwet's chance-corrected agreement coefficient:
//
//	AC1 = (p_a - p_e) / (1 - p_e)
//	p_e = sum_k p_k*(1-p_k) / (K-1)
//
// where p_k is each class's empirical marginal probability, averaged
// across the reference and prediction sequences (the two "raters"), and
// p_a is plain observed agreement. Returns nil when fewer than two classes
// are present (undefined).
func AC1(reference, prediction []string) *float64 {
	n := minLen(reference, prediction)
	if n == 0 {
		return nil
	}
	labels := sortedUniqueLabels(reference[:n], prediction[:n])
	k := len(labels)
	if k < 2 {
		return nil
	}

	agreements := 0
	for i := 0; i < n; i++ {
		if reference[i] == prediction[i] {
			agreements++
		}
	}
	pa := float64(agreements) / float64(n)

	total := 2 * n
	var pe float64
	for _, label := range labels {
		count := 0
		for i := 0; i < n; i++ {
			if reference[i] == label {
				count++
			}
			if prediction[i] == label {
				count++
			}
		}
		pk := float64(count) / float64(total)
		pe += pk * (1 - pk)
	}
	pe /= float64(k - 1)

	var ac1 float64
	if pe == 1 {
		ac1 = 1 // perfect agreement with zero chance-variance; avoid div-by-zero
	} else {
		ac1 = (pa - pe) / (1 - pe)
	}
	return &ac1
}

// Balanced classifies a label distribution (spec §4.4): single-class when
// only one label has any count, balanced when every label's count is
// within 20% of the even split total/K, imbalanced otherwise.
func Balanced(counts map[string]int) model.BalanceState {
	nonZero := 0
	total := 0
	for _, c := range counts {
		total += c
		if c > 0 {
			nonZero++
		}
	}
	if nonZero <= 1 {
		return model.BalanceSingleClass
	}

	k := float64(len(counts))
	even := float64(total) / k
	tolerance := 0.2 * even
	for _, c := range counts {
		if absFloat(float64(c)-even) > tolerance {
			return model.BalanceImbalanced
		}
	}
	return model.BalanceBalanced
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
