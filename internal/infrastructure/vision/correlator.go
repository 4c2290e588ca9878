package vision

import (
	"fmt"

	"vision-diagnostics/internal/domain/entity"
)

// Категории первопричин.
const (
	CategoryEnvironmentalCorrosion = "Environmental corrosion"
	CategoryMechanicalStress       = "Mechanical stress"
)

// IssueCount — сколько раз тип аномалии встретился во всех изображениях.
type IssueCount struct {
	Type  entity.AnomalyType
	Count int
}

// Correlation — результат сопоставления аномалий между изображениями.
type Correlation struct {
	ImageCount   int
	IssueCounts  []IssueCount // в порядке первого появления
	CommonIssues []string
	RootCauses   []entity.RootCause
}

// HasIssue сообщает, встречался ли тип аномалии.
func (c Correlation) HasIssue(t entity.AnomalyType) bool {
	for _, ic := range c.IssueCounts {
		if ic.Type == t {
			return true
		}
	}
	return false
}

type causeBucket struct {
	category    string
	description string
	confidence  float64
	types       map[entity.AnomalyType]bool
}

var causeBuckets = []causeBucket{
	{
		category:    CategoryEnvironmentalCorrosion,
		description: "Equipment has been exposed to humid or chemically aggressive conditions and the protective coating has failed, so the metal oxidises. Likely reasons: insufficient protection rating, failed seals, poor environmental control.",
		confidence:  0.85,
		types:       map[entity.AnomalyType]bool{entity.AnomalyCorrosion: true},
	},
	{
		category:    CategoryMechanicalStress,
		description: "Equipment carries mechanical stress beyond its design range, or poor maintenance causes progressive damage. Likely reasons: overload, excessive vibration, insufficient lubrication, installation inaccuracy.",
		confidence:  0.78,
		types: map[entity.AnomalyType]bool{
			entity.AnomalyCrack: true,
			entity.AnomalyWear:  true,
			entity.AnomalyLoose: true,
		},
	},
}

// Correlate сводит аномалии всех изображений в частоты и первопричины.
// Категории проверяются независимо, одно изображение может попасть в несколько.
func Correlate(analyses []entity.ImageAnalysis) (Correlation, error) {
	if len(analyses) == 0 {
		return Correlation{}, entity.ErrNoImagesProvided
	}

	counts := make([]IssueCount, 0)
	index := make(map[entity.AnomalyType]int)
	for i := range analyses {
		for _, r := range analyses[i].AnalysisResults {
			if !r.IsAnomaly() {
				continue
			}
			pos, ok := index[r.AnomalyType]
			if !ok {
				pos = len(counts)
				index[r.AnomalyType] = pos
				counts = append(counts, IssueCount{Type: r.AnomalyType})
			}
			counts[pos].Count++
		}
	}

	common := make([]string, 0, len(counts))
	for _, ic := range counts {
		common = append(common, fmt.Sprintf("%s occurred %d times", ic.Type, ic.Count))
	}

	causes := make([]entity.RootCause, 0, len(causeBuckets))
	for _, b := range causeBuckets {
		if cause, ok := b.match(analyses); ok {
			causes = append(causes, cause)
		}
	}

	return Correlation{
		ImageCount:   len(analyses),
		IssueCounts:  counts,
		CommonIssues: common,
		RootCauses:   causes,
	}, nil
}

func (b causeBucket) match(analyses []entity.ImageAnalysis) (entity.RootCause, bool) {
	affected := make([]int, 0)
	severity := entity.SeverityMedium

	for i := range analyses {
		hit := false
		for _, r := range analyses[i].AnalysisResults {
			if !b.types[r.AnomalyType] {
				continue
			}
			hit = true
			if r.Severity == entity.SeverityHigh {
				severity = entity.SeverityHigh
			}
		}
		if hit {
			affected = append(affected, i)
		}
	}

	if len(affected) == 0 {
		return entity.RootCause{}, false
	}
	return entity.RootCause{
		Category:       b.category,
		Description:    b.description,
		AffectedImages: affected,
		Severity:       severity,
		Confidence:     b.confidence,
	}, true
}
