package vision

import "vision-diagnostics/internal/domain/entity"

type planEntry struct {
	title         string
	description   string
	cost          entity.Cost
	horizon       entity.Horizon
	effectiveness float64
	// issueTypes — типы аномалий, которые закрывает мероприятие.
	issueTypes []entity.AnomalyType
	// causes отбирает первопричины, которые закрывает мероприятие.
	causes func(entity.RootCause) bool
}

// Базовый план из трёх мероприятий возвращается всегда, даже если
// affectedIssues у пункта оказывается пустым.
var baselinePlan = []planEntry{
	{
		title:         "Immediate safety inspection",
		description:   "Run a full safety inspection of the equipment and confirm it can keep operating safely",
		cost:          entity.CostMedium,
		horizon:       entity.HorizonImmediate,
		effectiveness: 0.9,
		issueTypes:    []entity.AnomalyType{entity.AnomalyCrack, entity.AnomalyOverheat, entity.AnomalyLeak},
		causes:        func(c entity.RootCause) bool { return c.Severity == entity.SeverityHigh },
	},
	{
		title:         "Scheduled maintenance",
		description:   "Service the equipment on a regular schedule to prevent latent failures",
		cost:          entity.CostLow,
		horizon:       entity.HorizonShortTerm,
		effectiveness: 0.8,
		issueTypes:    []entity.AnomalyType{entity.AnomalyCorrosion, entity.AnomalyWear, entity.AnomalyLoose, entity.AnomalyOther},
		causes:        func(entity.RootCause) bool { return true },
	},
	{
		title:         "System upgrade",
		description:   "Upgrade protection and control systems to raise efficiency and safety",
		cost:          entity.CostHigh,
		horizon:       entity.HorizonLongTerm,
		effectiveness: 1.0,
		causes:        func(c entity.RootCause) bool { return len(c.AffectedImages) > 1 },
	},
}

// Prioritize строит ранжированный план устранения по итогам сопоставления.
func Prioritize(c Correlation) ([]entity.PrioritizedSolution, error) {
	if c.ImageCount == 0 {
		return nil, entity.ErrNoImagesProvided
	}

	plan := make([]entity.PrioritizedSolution, 0, len(baselinePlan))
	for i, e := range baselinePlan {
		plan = append(plan, entity.PrioritizedSolution{
			Priority:           i + 1,
			Title:              e.title,
			Description:        e.description,
			EstimatedCost:      e.cost,
			TimeToImplement:    e.horizon,
			EffectivenessScore: e.effectiveness,
			AffectedIssues:     e.affected(c),
		})
	}
	return plan, nil
}

// affected собирает метки первопричин, затем типов аномалий, присутствующих во входе.
func (e planEntry) affected(c Correlation) []string {
	out := make([]string, 0)
	for _, cause := range c.RootCauses {
		if e.causes(cause) {
			out = append(out, cause.Category)
		}
	}
	for _, t := range e.issueTypes {
		if c.HasIssue(t) {
			out = append(out, string(t))
		}
	}
	return out
}
