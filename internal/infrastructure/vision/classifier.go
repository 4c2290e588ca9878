package vision

import (
	"fmt"
	"math"

	"vision-diagnostics/internal/domain/entity"
)

const (
	maxConfidence = 0.98

	// Контраст красного и синего каналов, ниже которого поверхность считается размытой.
	blurContrast = 50
	// Доля красных пикселей для слабого изменения цвета.
	discolorationRedRatio = 0.02
)

// Classifier сопоставляет статистике области тип аномалии, уверенность и риск.
// Правила проверяются строго по порядку, срабатывает первое подходящее.
type Classifier struct {
	// SurfaceChecks включает проверки размытия и изменения цвета перед выводом «норма».
	SurfaceChecks bool
}

// NewClassifier создаёт классификатор.
func NewClassifier(surfaceChecks bool) *Classifier {
	return &Classifier{SurfaceChecks: surfaceChecks}
}

type rule func(f entity.RegionFeatures) (entity.RegionAnalysis, bool)

// Classify возвращает результат для области; прямоугольник переносится без изменений.
func (c *Classifier) Classify(f entity.RegionFeatures) entity.RegionAnalysis {
	rules := []rule{overheatRule, corrosionRule, crackRule, looseRule, wearRule, leakRule}
	if c.SurfaceChecks {
		rules = append(rules, blurRule, discolorationRule)
	}

	for _, r := range rules {
		if a, ok := r(f); ok {
			return finalize(a, f.Region)
		}
	}
	return finalize(normalResult(), f.Region)
}

func finalize(a entity.RegionAnalysis, region entity.Rect) entity.RegionAnalysis {
	a.Region = region
	a.Confidence = clamp(a.Confidence, 0, maxConfidence)
	return a
}

func overheatRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.RedPixelRatio > 0.08 && f.AverageBrightness > 150) {
		return entity.RegionAnalysis{}, false
	}
	severity := entity.SeverityMedium
	if f.RedPixelRatio > 0.15 {
		severity = entity.SeverityHigh
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyOverheat,
		Description: "Overheating detected",
		DetailedDescription: fmt.Sprintf(
			"The region shows a red high-temperature signature: average brightness %d, red pixels %d%%. The equipment may be overheating.",
			round(f.AverageBrightness), percent(f.RedPixelRatio)),
		Confidence: 0.75,
		Severity:   severity,
		Solution:   "Check the cooling system immediately, monitor the temperature and shut down to cool if necessary",
	}, true
}

func corrosionRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.RedPixelRatio > 0.05 || (f.RedPixelRatio > 0.03 && f.DarkPixelRatio > 0.1)) {
		return entity.RegionAnalysis{}, false
	}

	severity, level := entity.SeverityLow, "slight"
	switch {
	case f.RedPixelRatio > 0.15:
		severity, level = entity.SeverityHigh, "severe"
	case f.RedPixelRatio > 0.08:
		severity, level = entity.SeverityMedium, "moderate"
	}

	solution := "Schedule maintenance soon: clean the surface rust and strengthen corrosion protection"
	if severity == entity.SeverityHigh {
		solution = "Stop for repair immediately: remove all rust, reapply the anti-corrosion coating and check the waterproof seals"
	}

	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyCorrosion,
		Description: "Corrosion or rust detected",
		DetailedDescription: fmt.Sprintf(
			"%d%% of the region is red-brown, which indicates oxidation. Corrosion is %s and is most likely caused by long exposure to a humid environment.",
			percent(f.RedPixelRatio), level),
		Confidence: math.Min(0.95, 0.65+3*f.RedPixelRatio),
		Severity:   severity,
		Solution:   solution,
	}, true
}

func crackRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.DarkPixelRatio > 0.15 && f.TextureVariationRatio > 0.08) {
		return entity.RegionAnalysis{}, false
	}
	severity := entity.SeverityMedium
	if f.DarkPixelRatio > 0.25 {
		severity = entity.SeverityHigh
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyCrack,
		Description: "Suspected crack or structural damage",
		DetailedDescription: fmt.Sprintf(
			"%d%% of the region is dark and linear with %d%% texture variation, so a crack is highly likely. This pattern usually comes from stress concentration, fatigue loading or material ageing.",
			percent(f.DarkPixelRatio), percent(f.TextureVariationRatio)),
		Confidence: math.Min(0.92, 0.55+f.DarkPixelRatio+f.TextureVariationRatio),
		Severity:   severity,
		Solution:   "Stop using the equipment, run non-destructive testing to confirm the crack extent and plan repair or replacement",
	}, true
}

func looseRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.TextureVariationRatio > 0.12 && f.MetallicRatio < 0.5) {
		return entity.RegionAnalysis{}, false
	}
	severity := entity.SeverityMedium
	if f.TextureVariationRatio > 0.2 {
		severity = entity.SeverityHigh
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyLoose,
		Description: "Connection may be loose",
		DetailedDescription: fmt.Sprintf(
			"Surface texture is irregular (%d%%) and metallic reflection is weak, which suggests a displaced or loose fastener.",
			percent(f.TextureVariationRatio)),
		Confidence: 0.7 + f.TextureVariationRatio,
		Severity:   severity,
		Solution:   "Check all fasteners and re-tighten them to the rated torque with a torque wrench",
	}, true
}

func wearRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.AverageBrightness < 120 && f.MetallicRatio > 0.3) {
		return entity.RegionAnalysis{}, false
	}
	severity := entity.SeverityLow
	switch {
	case f.AverageBrightness < 80:
		severity = entity.SeverityHigh
	case f.AverageBrightness < 100:
		severity = entity.SeverityMedium
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyWear,
		Description: "Surface wear marks",
		DetailedDescription: fmt.Sprintf(
			"Surface brightness dropped to %d while metallic features remain visible, which points to progressive wear from normal use.",
			round(f.AverageBrightness)),
		Confidence: 0.65 + (120-f.AverageBrightness)/100,
		Severity:   severity,
		Solution:   "Monitor how the wear develops and consider more lubrication or adjusted operating parameters",
	}, true
}

func leakRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if !(f.AverageBrightness > 180 && f.RedPixelRatio < 0.08) {
		return entity.RegionAnalysis{}, false
	}
	severity := entity.SeverityMedium
	if f.AverageBrightness > 220 {
		severity = entity.SeverityHigh
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyLeak,
		Description: "Abnormally bright area, possible fluid leak",
		DetailedDescription: fmt.Sprintf(
			"The region is unusually bright (brightness %d), which may be light reflected by fluid. Check for oil or other fluid leaks.",
			round(f.AverageBrightness)),
		Confidence: 0.6 + (f.AverageBrightness-180)/100,
		Severity:   severity,
		Solution:   "Inspect seals and pipe connections, locate the leak source and repair it",
	}, true
}

func blurRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if f.Contrast() >= blurContrast {
		return entity.RegionAnalysis{}, false
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyOther,
		Description: "Blurred surface",
		DetailedDescription: fmt.Sprintf(
			"Red/blue contrast is only %d, surface details are indistinct and the region cannot be assessed reliably.",
			round(f.Contrast())),
		Confidence: 0.5,
		Severity:   entity.SeverityLow,
		Solution:   "Re-capture the area in focus and under even lighting",
	}, true
}

func discolorationRule(f entity.RegionFeatures) (entity.RegionAnalysis, bool) {
	if f.RedPixelRatio <= discolorationRedRatio {
		return entity.RegionAnalysis{}, false
	}
	return entity.RegionAnalysis{
		AnomalyType: entity.AnomalyOther,
		Description: "Slight discoloration",
		DetailedDescription: fmt.Sprintf(
			"%d%% of the pixels have a reddish tint below the corrosion threshold; early oxidation or staining is possible.",
			percent(f.RedPixelRatio)),
		Confidence: 0.6,
		Severity:   entity.SeverityLow,
		Solution:   "Clean the surface and re-inspect it at the next scheduled check",
	}, true
}

func normalResult() entity.RegionAnalysis {
	return entity.RegionAnalysis{
		AnomalyType:         entity.AnomalyNormal,
		Description:         "Region is in normal condition",
		DetailedDescription: "Pixel analysis shows a smooth, evenly coloured surface without obvious anomalies.",
		Confidence:          0.8,
		Severity:            entity.SeverityLow,
		Solution:            "Continue periodic monitoring and keep the regular maintenance cycle",
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}

func round(v float64) int {
	return int(math.Round(v))
}
