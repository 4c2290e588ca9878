package storage

import (
	"context"
	"sort"
	"sync"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
)

// MemoryReportRepository in-memory хранилище отчётов диагностики
type MemoryReportRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.DiagnosisRecord
}

// NewMemoryReportRepository создаёт пустое хранилище отчётов
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		records: make(map[string]*entity.DiagnosisRecord),
	}
}

// Save сохраняет запись диагностики
func (r *MemoryReportRepository) Save(ctx context.Context, record *entity.DiagnosisRecord) error {
	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	return nil
}

// Get возвращает запись по ID
func (r *MemoryReportRepository) Get(ctx context.Context, id string) (*entity.DiagnosisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, entity.ErrReportNotFound
	}
	return record, nil
}

// List возвращает последние записи, новые первыми
func (r *MemoryReportRepository) List(ctx context.Context, limit int) ([]*entity.DiagnosisRecord, error) {
	r.mu.RLock()
	out := make([]*entity.DiagnosisRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ port.ReportRepository = (*MemoryReportRepository)(nil)
