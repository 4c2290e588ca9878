package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vision-diagnostics/internal/domain/entity"
)

var (
	// DiagnosesTotal — запуски диагностики по статусу (ok, rejected, error).
	DiagnosesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_diagnoses_total",
			Help: "Total number of diagnostic runs",
		},
		[]string{"status"},
	)

	DiagnosisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vision_diagnosis_duration_seconds",
			Help:    "Diagnostic run duration in seconds, decoding included",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)

	ImagesAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vision_images_analyzed_total",
			Help: "Total number of images passed through the engine",
		},
	)

	AnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_anomalies_total",
			Help: "Detected anomalous regions by type and severity",
		},
		[]string{"type", "severity"},
	)

	DescriberRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_describer_requests_total",
			Help: "LLM describer calls by status",
		},
		[]string{"status"},
	)
)

// ObserveReport учитывает изображения и аномалии готового отчёта.
func ObserveReport(report *entity.DiagnosticReport) {
	ImagesAnalyzed.Add(float64(len(report.IndividualAnalyses)))
	for i := range report.IndividualAnalyses {
		for _, r := range report.IndividualAnalyses[i].AnalysisResults {
			if r.IsAnomaly() {
				AnomaliesTotal.WithLabelValues(string(r.AnomalyType), string(r.Severity)).Inc()
			}
		}
	}
}

// Status переводит ошибку в метку статуса; ошибки входных данных считаются отдельно от сбоев.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrNoImagesProvided),
		errors.Is(err, entity.ErrTooManyImages),
		errors.Is(err, entity.ErrImageDecode),
		errors.Is(err, entity.ErrImageTooSmall):
		return "rejected"
	default:
		return "error"
	}
}
