package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vision-diagnostics/config"
	telegram "vision-diagnostics/internal/api"
	"vision-diagnostics/internal/api/rest"
	"vision-diagnostics/internal/container"
	"vision-diagnostics/internal/domain/port"
	"vision-diagnostics/internal/infrastructure/ai"
	"vision-diagnostics/internal/infrastructure/decoder"
	"vision-diagnostics/internal/infrastructure/logging"
	"vision-diagnostics/internal/infrastructure/storage"
	"vision-diagnostics/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	imageDecoder, err := decoder.New(cfg.Analysis.Decoder)
	if err != nil {
		return err
	}

	// Хранилище пользователей и их пакетов фото
	userRepo := storage.NewMemoryUserRepository()

	var reports port.ReportRepository = storage.NewMemoryReportRepository()
	if cfg.DBPath != "" {
		sqliteRepo, err := storage.OpenSQLiteReportRepository(cfg.DBPath)
		if err != nil {
			return err
		}
		defer sqliteRepo.Close()
		reports = sqliteRepo
		logger.Info("reports stored in sqlite", zap.String("path", cfg.DBPath))
	}

	var describer port.DefectDescriber
	if cfg.OpenAI.APIKey != "" {
		describer = ai.NewOpenAIDescriber(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		logger.Info("ai describer enabled", zap.String("base_url", cfg.OpenAI.BaseURL))
	}

	var archive port.ReportArchive
	if cfg.Minio.Endpoint != "" {
		minioArchive, err := storage.NewMinioReportArchive(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return err
		}
		archive = minioArchive
		logger.Info("report archive enabled", zap.String("bucket", cfg.Minio.BucketName))
	}

	engine := vision.NewEngine(vision.Options{
		Workers:       cfg.Analysis.Workers,
		SurfaceChecks: cfg.Analysis.SurfaceChecks,
	}, logger.Named("engine"))

	// Собираем сервисы приложения
	appContainer := container.New(container.Deps{
		UserRepo:  userRepo,
		Uploads:   userRepo,
		Engine:    engine,
		Decoder:   imageDecoder,
		Reports:   reports,
		Describer: describer,
		Archive:   archive,
		MaxImages: cfg.Analysis.MaxImages,
		Logger:    logger.Named("diagnosis"),
	})

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, appContainer, cfg.MaxUploadBytes(), logger.Named("bot"))
		if err != nil {
			return err
		}
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, telegram bot disabled")
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: rest.NewRouter(appContainer.DiagnosisService, rest.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		}, logger.Named("http")),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(ctx)
		})
	}

	return g.Wait()
}
