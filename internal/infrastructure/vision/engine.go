package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vision-diagnostics/internal/domain/entity"
)

// Options настраивает движок диагностики.
type Options struct {
	Workers       int  // сколько изображений анализируется параллельно
	SurfaceChecks bool // проверки размытия и изменения цвета
}

// Engine — движок диагностики по набору изображений.
type Engine struct {
	analyzer *ImageAnalyzer
	workers  int
	log      *zap.Logger
}

// NewEngine создаёт движок; workers < 1 означает последовательный анализ.
func NewEngine(opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		analyzer: NewImageAnalyzer(NewClassifier(opts.SurfaceChecks)),
		workers:  workers,
		log:      log,
	}
}

// Diagnose анализирует изображения параллельно и после барьера строит сводный отчёт.
// Порядок individualAnalyses совпадает с порядком входа.
func (e *Engine) Diagnose(ctx context.Context, images []entity.ImageInput) (*entity.DiagnosticReport, error) {
	if len(images) == 0 {
		return nil, entity.ErrNoImagesProvided
	}

	analyses := make([]entity.ImageAnalysis, len(images))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range images {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			a, err := e.analyzer.Analyze(images[i], i)
			if err != nil {
				return err
			}
			analyses[i] = *a
			e.log.Debug("image analyzed",
				zap.Int("index", i),
				zap.String("file", images[i].FileName),
				zap.Int("anomalies", len(a.PrimaryIssues)),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Synthesize(analyses)
}

// Synthesize собирает отчёт из готовых анализов изображений.
func Synthesize(analyses []entity.ImageAnalysis) (*entity.DiagnosticReport, error) {
	correlation, err := Correlate(analyses)
	if err != nil {
		return nil, err
	}
	plan, err := Prioritize(correlation)
	if err != nil {
		return nil, err
	}

	return &entity.DiagnosticReport{
		IndividualAnalyses:   analyses,
		OverallSummary:       summarize(analyses, correlation),
		CommonIssues:         correlation.CommonIssues,
		RootCauseAnalysis:    correlation.RootCauses,
		PrioritizedSolutions: plan,
	}, nil
}

func summarize(analyses []entity.ImageAnalysis, c Correlation) string {
	total := 0
	for _, ic := range c.IssueCounts {
		total += ic.Count
	}
	if total == 0 {
		return fmt.Sprintf("Analyzed %d images: no anomalies found, the equipment looks normal.", len(analyses))
	}

	highRisk := 0
	for i := range analyses {
		if analyses[i].HasSeverity(entity.SeverityHigh) {
			highRisk++
		}
	}
	types := make([]string, 0, len(c.IssueCounts))
	for _, ic := range c.IssueCounts {
		types = append(types, string(ic.Type))
	}

	return fmt.Sprintf(
		"Analyzed %d images and found %d anomalies. %d images contain high-risk issues that need immediate attention. Main issue types: %s. Apply the solutions in priority order to keep the equipment safe and reliable.",
		len(analyses), total, highRisk, strings.Join(types, ", "))
}
