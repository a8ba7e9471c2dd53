package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/metrics"
	"github.com/scoreflow/hyouka/internal/model"
)

func TestConfusionMatrix_LabelsSortedUnionOfBoth(t *testing.T) {
	reference := []string{"yes", "no", "yes"}
	prediction := []string{"no", "no", "maybe"}
	cm := metrics.ConfusionMatrix(reference, prediction)
	assert.Equal(t, []string{"maybe", "no", "yes"}, cm.Labels)
	require.Len(t, cm.Rows, 3)
}

func TestConfusionMatrix_CountsCoOccurrence(t *testing.T) {
	reference := []string{"yes", "yes", "no"}
	prediction := []string{"yes", "no", "no"}
	cm := metrics.ConfusionMatrix(reference, prediction)
	var yesRow model.ConfusionRow
	for _, r := range cm.Rows {
		if r.ActualClassLabel == "yes" {
			yesRow = r
		}
	}
	assert.Equal(t, 1, yesRow.PredictedClassCounts["yes"])
	assert.Equal(t, 1, yesRow.PredictedClassCounts["no"])
}

func TestPrecisionRecall_BinaryUsesFirstSortedLabelAsPositive(t *testing.T) {
	// sorted labels: "no" < "yes" -> positive class is "no"
	reference := []string{"no", "no", "yes", "yes"}
	prediction := []string{"no", "yes", "yes", "yes"}
	pr := metrics.PrecisionRecall(reference, prediction)
	require.True(t, pr.Binary)
	assert.Equal(t, "no", pr.PositiveClass)
	// TP=1 (idx0), FP=0, FN=1 (idx1) -> precision 100%, recall 50%
	assert.InDelta(t, 100.0, pr.Precision, 0.001)
	assert.InDelta(t, 50.0, pr.Recall, 0.001)
}

func TestPrecisionRecall_ZeroDenominatorYieldsZeroNotNaN(t *testing.T) {
	reference := []string{"a", "a"}
	prediction := []string{"b", "b"}
	pr := metrics.PrecisionRecall(reference, prediction)
	assert.Equal(t, 0.0, pr.Precision)
	assert.Equal(t, 0.0, pr.Recall)
}

func TestPrecisionRecall_MulticlassMacroAverages(t *testing.T) {
	reference := []string{"a", "b", "c"}
	prediction := []string{"a", "b", "c"}
	pr := metrics.PrecisionRecall(reference, prediction)
	require.False(t, pr.Binary)
	assert.InDelta(t, 100.0, pr.Precision, 0.001)
	assert.InDelta(t, 100.0, pr.Recall, 0.001)
	assert.Len(t, pr.PerClass, 3)
}

func TestAC1_PerfectAgreementYieldsOne(t *testing.T) {
	reference := []string{"yes", "no", "yes", "no"}
	prediction := []string{"yes", "no", "yes", "no"}
	ac1 := metrics.AC1(reference, prediction)
	require.NotNil(t, ac1)
	assert.InDelta(t, 1.0, *ac1, 0.0001)
}

func TestAC1_SingleClassIsUndefined(t *testing.T) {
	reference := []string{"yes", "yes", "yes"}
	prediction := []string{"yes", "yes", "yes"}
	ac1 := metrics.AC1(reference, prediction)
	assert.Nil(t, ac1)
}

func TestAC1_ChanceLevelAgreementNearZero(t *testing.T) {
	// Balanced 50/50 classes, systematic disagreement on half.
	reference := []string{"yes", "yes", "no", "no"}
	prediction := []string{"no", "yes", "no", "yes"}
	ac1 := metrics.AC1(reference, prediction)
	require.NotNil(t, ac1)
	assert.True(t, *ac1 < 1.0)
}

func TestBalanced_SingleClass(t *testing.T) {
	assert.Equal(t, model.BalanceSingleClass, metrics.Balanced(map[string]int{"a": 10, "b": 0}))
}

func TestBalanced_EvenSplitIsBalanced(t *testing.T) {
	assert.Equal(t, model.BalanceBalanced, metrics.Balanced(map[string]int{"a": 50, "b": 50}))
}

func TestBalanced_SkewedIsImbalanced(t *testing.T) {
	assert.Equal(t, model.BalanceImbalanced, metrics.Balanced(map[string]int{"a": 95, "b": 5}))
}
