package port

import (
	"context"

	"vision-diagnostics/internal/domain/entity"
)

// DefectDescriber интерфейс описателя дефектов
type DefectDescriber interface {
	// Describe генерирует текстовое пояснение к отчёту диагностики
	Describe(ctx context.Context, report *entity.DiagnosticReport) (*entity.AiDescription, error)
}
