package container

import (
	"go.uber.org/zap"

	app "vision-diagnostics/internal/application"
	"vision-diagnostics/internal/domain/port"
)

// Deps — внешние адаптеры, из которых собираются сервисы приложения.
type Deps struct {
	UserRepo  port.UserRepository
	Uploads   port.UploadQueue
	Engine    port.DiagnosticEngine
	Decoder   port.ImageDecoder
	Reports   port.ReportRepository
	Describer port.DefectDescriber // nil, если ИИ не настроен
	Archive   port.ReportArchive   // nil, если MinIO не настроен
	MaxImages int
	Logger    *zap.Logger
}

type Container struct {
	UserService      *app.UserService
	DiagnosisService *app.DiagnosisService
}

func New(deps Deps) *Container {
	userService := app.NewUserService(deps.UserRepo)
	diagnosisService := app.NewDiagnosisService(app.DiagnosisDeps{
		Users:     userService,
		Uploads:   deps.Uploads,
		Engine:    deps.Engine,
		Decoder:   deps.Decoder,
		Reports:   deps.Reports,
		Describer: deps.Describer,
		Archive:   deps.Archive,
		MaxImages: deps.MaxImages,
		Logger:    deps.Logger,
	})

	return &Container{
		UserService:      userService,
		DiagnosisService: diagnosisService,
	}
}
