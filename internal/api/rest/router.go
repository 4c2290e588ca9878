package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	app "vision-diagnostics/internal/application"
	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/infrastructure/ai"
)

const defaultListLimit = 20

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Router struct {
	diagnoses *app.DiagnosisService
	opts      Options
	log       *zap.Logger
}

// NewRouter собирает HTTP API поверх сервиса диагностики.
func NewRouter(diagnoses *app.DiagnosisService, opts Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{diagnoses: diagnoses, opts: opts, log: log}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(r.logRequests)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api/v1/diagnoses", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleCreate))
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/{id}", r.wrap(r.handleGet))
		rt.Post("/{id}/describe", r.wrap(r.handleDescribe))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			r.log.Error("request failed",
				zap.String("path", req.URL.Path),
				zap.String("request_id", middleware.GetReqID(req.Context())),
				zap.Error(err),
			)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
	}
}

func statusOf(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, entity.ErrNoImagesProvided), errors.Is(err, entity.ErrTooManyImages), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrImageDecode), errors.Is(err, entity.ErrImageTooSmall), errors.Is(err, entity.ErrInvalidRegion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, entity.ErrDescriberDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// POST /api/v1/diagnoses
// Body: multipart/form-data, изображения в поле "images".
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	if r.opts.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxUploadBytes)
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer req.MultipartForm.RemoveAll()

	files := req.MultipartForm.File["images"]
	uploads := make([]entity.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, entity.ImageUpload{FileName: fh.Filename, Data: data})
	}

	record, err := r.diagnoses.Diagnose(req.Context(), 0, uploads)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, record)
}

// GET /api/v1/diagnoses?limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	limit := defaultListLimit
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: invalid limit %q", errBadRequest, v)
		}
		limit = n
	}

	records, err := r.diagnoses.List(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, records)
}

// GET /api/v1/diagnoses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	record, err := r.diagnoses.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, record)
}

// POST /api/v1/diagnoses/{id}/describe
func (r *Router) handleDescribe(w http.ResponseWriter, req *http.Request) error {
	desc, err := r.diagnoses.Describe(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"text": desc.Text, "model": desc.Model})
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		r.log.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(req.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
