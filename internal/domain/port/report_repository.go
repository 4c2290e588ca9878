package port

import (
	"context"

	"vision-diagnostics/internal/domain/entity"
)

// ReportRepository интерфейс хранилища отчётов
type ReportRepository interface {
	// Save сохраняет запись диагностики
	Save(ctx context.Context, record *entity.DiagnosisRecord) error

	// Get возвращает запись по ID или entity.ErrReportNotFound
	Get(ctx context.Context, id string) (*entity.DiagnosisRecord, error)

	// List возвращает последние записи, новые первыми
	List(ctx context.Context, limit int) ([]*entity.DiagnosisRecord, error)
}

// ReportArchive интерфейс внешнего архива отчётов
type ReportArchive interface {
	// Put сохраняет сериализованный отчёт и возвращает его адрес
	Put(ctx context.Context, key string, data []byte) (string, error)
}
