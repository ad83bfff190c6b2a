package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"paramexport/internal/metrics"
	"paramexport/pkg/types"
)

// maxBodyBytes bounds work-item request bodies.
const maxBodyBytes int64 = 1 << 20

// Options configures NewMux.
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	Swagger     bool
}

// NewMux builds the work-item router.
func NewMux(q *Queue, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger(opts.Logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/workitems", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.WorkItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Document) == "" {
			writeJSONError(w, http.StatusBadRequest, "document is required")
			return
		}
		st, err := q.Submit(req)
		switch {
		case err == nil:
			opts.Logger.Info().Str("id", st.ID).Str("document", req.Document).Msg("work item queued")
			writeJSON(w, http.StatusAccepted, st)
		case IsTooBusy(err):
			metrics.Backpressure("queue_full")
			writeJSONError(w, http.StatusTooManyRequests, err.Error())
		case IsClosed(err):
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
	})

	r.Get("/workitems/{id}", func(w http.ResponseWriter, r *http.Request) {
		st, ok := q.Status(chi.URLParam(r, "id"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "work item not found")
			return
		}
		writeJSON(w, http.StatusOK, st)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if q.Accepting() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("draining"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if opts.Swagger {
		MountSwagger(r)
	}
	return r
}
