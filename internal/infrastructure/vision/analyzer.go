package vision

import (
	"fmt"
	"strings"

	"vision-diagnostics/internal/domain/entity"
)

// GridSize — число ячеек сетки по каждой оси.
const GridSize = 4

// ImageAnalyzer прогоняет сетку ячеек через извлечение признаков и классификатор.
type ImageAnalyzer struct {
	classifier *Classifier
}

// NewImageAnalyzer создаёт анализатор одного изображения.
func NewImageAnalyzer(classifier *Classifier) *ImageAnalyzer {
	return &ImageAnalyzer{classifier: classifier}
}

// GridCells делит w×h на GridSize×GridSize равных ячеек построчно.
// Остаток пикселей справа и снизу в сетку не попадает.
func GridCells(w, h int) []entity.Rect {
	cellW, cellH := w/GridSize, h/GridSize
	cells := make([]entity.Rect, 0, GridSize*GridSize)
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			cells = append(cells, entity.Rect{
				X:      col * cellW,
				Y:      row * cellH,
				Width:  cellW,
				Height: cellH,
			})
		}
	}
	return cells
}

// Analyze строит ImageAnalysis; index — позиция изображения в наборе, с нуля.
func (a *ImageAnalyzer) Analyze(input entity.ImageInput, index int) (*entity.ImageAnalysis, error) {
	if input.Buffer == nil {
		return nil, fmt.Errorf("image %d (%s): %w", index+1, input.FileName, entity.ErrImageDecode)
	}

	if input.Buffer.Width < GridSize || input.Buffer.Height < GridSize {
		return nil, fmt.Errorf("image %d (%s): %w: %dx%d, need at least %dx%d",
			index+1, input.FileName, entity.ErrImageTooSmall,
			input.Buffer.Width, input.Buffer.Height, GridSize, GridSize)
	}

	cells := GridCells(input.Buffer.Width, input.Buffer.Height)
	results := make([]entity.RegionAnalysis, 0, len(cells))
	issues := make([]string, 0)

	for i, cell := range cells {
		features, err := ExtractFeatures(input.Buffer, cell)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", index+1, input.FileName, err)
		}
		result := a.classifier.Classify(features)
		results = append(results, result)
		if result.IsAnomaly() {
			issues = append(issues, fmt.Sprintf("Region %d: %s", i+1, result.Description))
		}
	}

	return &entity.ImageAnalysis{
		FileName:           input.FileName,
		FileSize:           input.FileSize,
		AnalysisResults:    results,
		OverallDescription: describeImage(results, index),
		PrimaryIssues:      issues,
		Recommendations:    recommendations(results),
	}, nil
}

// describeImage выбирает шаблон сводки по самому высокому уровню риска.
func describeImage(results []entity.RegionAnalysis, index int) string {
	var anomalies, high, medium int
	var highTypes []string
	seen := make(map[entity.AnomalyType]bool)

	for _, r := range results {
		if !r.IsAnomaly() {
			continue
		}
		anomalies++
		switch r.Severity {
		case entity.SeverityHigh:
			high++
			if !seen[r.AnomalyType] {
				seen[r.AnomalyType] = true
				highTypes = append(highTypes, string(r.AnomalyType))
			}
		case entity.SeverityMedium:
			medium++
		}
	}

	n := index + 1
	switch {
	case high > 0:
		return fmt.Sprintf("Image %d shows severe issues: %d high-risk regions, mainly %s. Immediate action is required.",
			n, high, strings.Join(highTypes, ", "))
	case medium > 0:
		return fmt.Sprintf("Image %d shows moderate risk: %d regions need attention, schedule a maintenance check.", n, medium)
	case anomalies > 0:
		return fmt.Sprintf("Image %d shows minor anomalies: %d low-risk points, keep it under closer monitoring.", n, anomalies)
	default:
		return fmt.Sprintf("Image %d status normal: no obvious anomalies in any inspected region.", n)
	}
}

// recommendations возвращает уникальные решения в порядке первого появления.
func recommendations(results []entity.RegionAnalysis) []string {
	out := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range results {
		if !r.IsAnomaly() || seen[r.Solution] {
			continue
		}
		seen[r.Solution] = true
		out = append(out, r.Solution)
	}
	return out
}
