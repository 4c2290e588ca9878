package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vision-diagnostics/internal/domain/entity"
)

func TestGridCells_Partition(t *testing.T) {
	cells := GridCells(10, 7)
	require.Len(t, cells, GridSize*GridSize)

	area := 0
	for _, c := range cells {
		require.Equal(t, 2, c.Width)
		require.Equal(t, 1, c.Height)
		area += c.Area()
	}
	require.Equal(t, entity.Rect{X: 6, Y: 3, Width: 2, Height: 1}, cells[15])
	require.Equal(t, entity.Rect{X: 2, Y: 0, Width: 2, Height: 1}, cells[1])
	require.LessOrEqual(t, area, 10*7)
	require.Equal(t, 16*2*1, area)
}

func TestImageAnalyzer_NormalImage(t *testing.T) {
	a := NewImageAnalyzer(NewClassifier(false))
	res, err := a.Analyze(grayInput("gray.png"), 0)
	require.NoError(t, err)

	require.Equal(t, "gray.png", res.FileName)
	require.Equal(t, int64(1024), res.FileSize)
	require.Len(t, res.AnalysisResults, 16)
	for _, r := range res.AnalysisResults {
		require.Equal(t, entity.AnomalyNormal, r.AnomalyType)
	}
	require.Equal(t, "Image 1 status normal: no obvious anomalies in any inspected region.", res.OverallDescription)
	require.Empty(t, res.PrimaryIssues)
	require.NotNil(t, res.Recommendations)
	require.Empty(t, res.Recommendations)
}

func TestImageAnalyzer_SingleRustyCell(t *testing.T) {
	buf := uniformBuffer(8, 8, 128, 128, 128)
	paint(buf, entity.Rect{X: 2, Y: 0, Width: 2, Height: 2}, 200, 100, 100)

	a := NewImageAnalyzer(NewClassifier(false))
	res, err := a.Analyze(entity.ImageInput{Buffer: buf, FileName: "rust.jpg"}, 2)
	require.NoError(t, err)

	require.Equal(t, entity.AnomalyCorrosion, res.AnalysisResults[1].AnomalyType)
	require.Equal(t, entity.SeverityHigh, res.AnalysisResults[1].Severity)
	require.Equal(t, entity.Rect{X: 2, Y: 0, Width: 2, Height: 2}, res.AnalysisResults[1].Region)
	require.Equal(t, []string{"Region 2: Corrosion or rust detected"}, res.PrimaryIssues)
	require.Len(t, res.Recommendations, 1)
	require.Contains(t, res.OverallDescription, "Image 3 shows severe issues: 1 high-risk regions, mainly corrosion")
}

func TestImageAnalyzer_RecommendationsDeduplicated(t *testing.T) {
	a := NewImageAnalyzer(NewClassifier(false))
	res, err := a.Analyze(rustInput("rust.jpg"), 0)
	require.NoError(t, err)
	require.Len(t, res.PrimaryIssues, 16)
	require.Len(t, res.Recommendations, 1)
}

func TestImageAnalyzer_Errors(t *testing.T) {
	a := NewImageAnalyzer(NewClassifier(false))

	_, err := a.Analyze(entity.ImageInput{FileName: "missing.jpg"}, 0)
	require.ErrorIs(t, err, entity.ErrImageDecode)

	_, err = a.Analyze(entity.ImageInput{Buffer: uniformBuffer(3, 3, 0, 0, 0), FileName: "tiny.png"}, 0)
	require.ErrorIs(t, err, entity.ErrImageTooSmall)
	require.Contains(t, err.Error(), "3x3, need at least 4x4")

	_, err = a.Analyze(entity.ImageInput{Buffer: uniformBuffer(40, 2, 0, 0, 0)}, 0)
	require.ErrorIs(t, err, entity.ErrImageTooSmall)

	res, err := a.Analyze(entity.ImageInput{Buffer: uniformBuffer(4, 4, 128, 128, 128)}, 0)
	require.NoError(t, err)
	require.Len(t, res.AnalysisResults, GridSize*GridSize)
}

func TestDescribeImage_Tiers(t *testing.T) {
	medium := []entity.RegionAnalysis{
		{AnomalyType: entity.AnomalyWear, Severity: entity.SeverityMedium},
		{AnomalyType: entity.AnomalyWear, Severity: entity.SeverityLow},
		{AnomalyType: entity.AnomalyNormal, Severity: entity.SeverityLow},
	}
	require.Equal(t,
		"Image 1 shows moderate risk: 1 regions need attention, schedule a maintenance check.",
		describeImage(medium, 0))

	low := []entity.RegionAnalysis{
		{AnomalyType: entity.AnomalyCorrosion, Severity: entity.SeverityLow},
		{AnomalyType: entity.AnomalyWear, Severity: entity.SeverityLow},
	}
	require.Equal(t,
		"Image 2 shows minor anomalies: 2 low-risk points, keep it under closer monitoring.",
		describeImage(low, 1))

	high := []entity.RegionAnalysis{
		{AnomalyType: entity.AnomalyCrack, Severity: entity.SeverityHigh},
		{AnomalyType: entity.AnomalyLeak, Severity: entity.SeverityHigh},
		{AnomalyType: entity.AnomalyCrack, Severity: entity.SeverityHigh},
	}
	require.Equal(t,
		"Image 1 shows severe issues: 3 high-risk regions, mainly crack, leak. Immediate action is required.",
		describeImage(high, 0))
}
