package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
	"vision-diagnostics/internal/infrastructure/metrics"
)

// DiagnosisDeps — зависимости сервиса диагностики; Describer и Archive необязательны.
type DiagnosisDeps struct {
	Users     *UserService
	Uploads   port.UploadQueue
	Engine    port.DiagnosticEngine
	Decoder   port.ImageDecoder
	Reports   port.ReportRepository
	Describer port.DefectDescriber
	Archive   port.ReportArchive
	MaxImages int
	Logger    *zap.Logger
}

type DiagnosisService struct {
	users     *UserService
	uploads   port.UploadQueue
	engine    port.DiagnosticEngine
	decoder   port.ImageDecoder
	reports   port.ReportRepository
	describer port.DefectDescriber
	archive   port.ReportArchive
	maxImages int
	log       *zap.Logger
	now       func() time.Time
}

// NewDiagnosisService создаёт сервис, который управляет запусками диагностики.
func NewDiagnosisService(deps DiagnosisDeps) *DiagnosisService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &DiagnosisService{
		users:     deps.Users,
		uploads:   deps.Uploads,
		engine:    deps.Engine,
		decoder:   deps.Decoder,
		reports:   deps.Reports,
		describer: deps.Describer,
		archive:   deps.Archive,
		maxImages: deps.MaxImages,
		log:       log,
		now:       time.Now,
	}
}

// MaxImages возвращает лимит изображений в одном запуске (0 — без лимита).
func (s *DiagnosisService) MaxImages() int {
	return s.maxImages
}

// Diagnose декодирует файлы, прогоняет движок и сохраняет запись.
func (s *DiagnosisService) Diagnose(ctx context.Context, userID int64, uploads []entity.ImageUpload) (record *entity.DiagnosisRecord, err error) {
	start := s.now()
	defer func() {
		metrics.DiagnosesTotal.WithLabelValues(metrics.Status(err)).Inc()
		metrics.DiagnosisDuration.Observe(time.Since(start).Seconds())
	}()

	if len(uploads) == 0 {
		return nil, entity.ErrNoImagesProvided
	}
	if s.maxImages > 0 && len(uploads) > s.maxImages {
		return nil, fmt.Errorf("%w: %d > %d", entity.ErrTooManyImages, len(uploads), s.maxImages)
	}

	inputs := make([]entity.ImageInput, 0, len(uploads))
	for i, u := range uploads {
		buf, err := s.decoder.Decode(u.Data)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", i+1, u.FileName, err)
		}
		inputs = append(inputs, entity.ImageInput{Buffer: buf, FileName: u.FileName, FileSize: int64(len(u.Data))})
	}

	report, err := s.engine.Diagnose(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	metrics.ObserveReport(report)

	record = &entity.DiagnosisRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		Report:    report,
		Narrative: s.narrative(ctx, report),
	}

	if err := s.reports.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.archiveRecord(ctx, record)

	s.log.Info("diagnosis completed",
		zap.String("id", record.ID),
		zap.Int64("user_id", userID),
		zap.Int("images", len(inputs)),
		zap.Int("anomalies", report.AnomalyCount()),
		zap.Int("root_causes", len(report.RootCauseAnalysis)),
		zap.Duration("took", time.Since(start)),
	)
	return record, nil
}

// narrative запрашивает пояснение у ИИ; ошибка описателя не прерывает диагностику.
func (s *DiagnosisService) narrative(ctx context.Context, report *entity.DiagnosticReport) string {
	if s.describer == nil {
		return ""
	}
	desc, err := s.describer.Describe(ctx, report)
	metrics.DescriberRequestsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		s.log.Warn("describer failed", zap.Error(err))
		return ""
	}
	return desc.Text
}

func (s *DiagnosisService) archiveRecord(ctx context.Context, record *entity.DiagnosisRecord) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("marshal record for archive", zap.String("id", record.ID), zap.Error(err))
		return
	}
	key := fmt.Sprintf("%s/%s.json", record.CreatedAt.Format("2006/01/02"), record.ID)
	url, err := s.archive.Put(ctx, key, data)
	if err != nil {
		s.log.Error("archive report", zap.String("id", record.ID), zap.Error(err))
		return
	}
	s.log.Debug("report archived", zap.String("id", record.ID), zap.String("url", url))
}

// Describe запрашивает пояснение к сохранённому отчёту заново.
func (s *DiagnosisService) Describe(ctx context.Context, id string) (*entity.AiDescription, error) {
	if s.describer == nil {
		return nil, entity.ErrDescriberDisabled
	}
	record, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.describer.Describe(ctx, record.Report)
}

// Get возвращает сохранённую запись.
func (s *DiagnosisService) Get(ctx context.Context, id string) (*entity.DiagnosisRecord, error) {
	return s.reports.Get(ctx, id)
}

// List возвращает последние записи.
func (s *DiagnosisService) List(ctx context.Context, limit int) ([]*entity.DiagnosisRecord, error) {
	return s.reports.List(ctx, limit)
}

// AddPhoto кладёт фото в пакет пользователя и возвращает размер пакета.
func (s *DiagnosisService) AddPhoto(ctx context.Context, userID int64, upload entity.ImageUpload) (int, error) {
	pending, err := s.uploads.PendingUploads(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.maxImages > 0 && pending >= s.maxImages {
		return pending, fmt.Errorf("%w: batch already holds %d images", entity.ErrTooManyImages, pending)
	}
	return s.uploads.AppendUpload(ctx, userID, upload)
}

// PendingCount возвращает число фото в пакете пользователя.
func (s *DiagnosisService) PendingCount(ctx context.Context, userID int64) (int, error) {
	return s.uploads.PendingUploads(ctx, userID)
}

// StartBatch переводит пользователя в обработку и только затем забирает его пакет фото.
func (s *DiagnosisService) StartBatch(ctx context.Context, userID, chatID int64) ([]entity.ImageUpload, error) {
	pending, err := s.uploads.PendingUploads(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, entity.ErrNoImagesProvided
	}

	if _, err := s.users.Reserve(ctx, userID, chatID); err != nil {
		return nil, err
	}
	uploads, err := s.uploads.TakeUploads(ctx, userID)
	if err != nil {
		return nil, errors.Join(err, s.users.Release(ctx, userID))
	}
	return uploads, nil
}

// Complete диагностирует фото пользователя, уже переведённого в обработку,
// и возвращает его в главное меню при любом исходе.
func (s *DiagnosisService) Complete(ctx context.Context, userID int64, uploads []entity.ImageUpload) (*entity.DiagnosisRecord, error) {
	record, runErr := s.Diagnose(ctx, userID, uploads)
	if err := s.users.Release(ctx, userID); err != nil {
		return nil, errors.Join(runErr, err)
	}
	return record, runErr
}

// RunBatch забирает пакет пользователя и запускает по нему диагностику.
func (s *DiagnosisService) RunBatch(ctx context.Context, userID, chatID int64) (*entity.DiagnosisRecord, error) {
	uploads, err := s.StartBatch(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	return s.Complete(ctx, userID, uploads)
}

// CancelBatch отбрасывает собранные фото и возвращает пользователя в главное меню.
// Идущую диагностику отменить нельзя.
func (s *DiagnosisService) CancelBatch(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateProcessing {
		return user, entity.ErrDiagnosisInProgress
	}
	if _, err := s.uploads.TakeUploads(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.Reset(ctx, userID, chatID)
}
