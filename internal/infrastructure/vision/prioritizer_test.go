package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vision-diagnostics/internal/domain/entity"
)

func TestPrioritize_NoImages(t *testing.T) {
	_, err := Prioritize(Correlation{})
	require.ErrorIs(t, err, entity.ErrNoImagesProvided)
}

func TestPrioritize_BaselineAlwaysReturned(t *testing.T) {
	plan, err := Prioritize(Correlation{ImageCount: 1})
	require.NoError(t, err)
	require.Len(t, plan, 3)

	for i, p := range plan {
		require.Equal(t, i+1, p.Priority)
		require.NotNil(t, p.AffectedIssues)
		require.Empty(t, p.AffectedIssues)
	}

	require.Equal(t, entity.CostMedium, plan[0].EstimatedCost)
	require.Equal(t, entity.HorizonImmediate, plan[0].TimeToImplement)
	require.Equal(t, 0.9, plan[0].EffectivenessScore)

	require.Equal(t, entity.CostLow, plan[1].EstimatedCost)
	require.Equal(t, entity.HorizonShortTerm, plan[1].TimeToImplement)
	require.Equal(t, 0.8, plan[1].EffectivenessScore)

	require.Equal(t, entity.CostHigh, plan[2].EstimatedCost)
	require.Equal(t, entity.HorizonLongTerm, plan[2].TimeToImplement)
	require.Equal(t, 1.0, plan[2].EffectivenessScore)
}

func TestPrioritize_AffectedIssues(t *testing.T) {
	c, err := Correlate(mixedAnalyses())
	require.NoError(t, err)

	plan, err := Prioritize(c)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	require.Equal(t, []string{CategoryMechanicalStress, "crack", "leak"}, plan[0].AffectedIssues)
	require.Equal(t, []string{CategoryEnvironmentalCorrosion, CategoryMechanicalStress, "corrosion", "wear"}, plan[1].AffectedIssues)
	require.Equal(t, []string{CategoryEnvironmentalCorrosion, CategoryMechanicalStress}, plan[2].AffectedIssues)
}
