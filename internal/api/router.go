package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/zuwa/backend/internal/api/handlers"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

const serviceName = "zuwa-api"

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Health   *handlers.HealthHandler // nil = 의존성 검사 없음
	Decision *handlers.DecisionHandler
	Stream   *handlers.StreamHandler
	Metrics  http.Handler // nil = /metrics 미노출
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	health := h.Health
	if health == nil {
		health = handlers.NewHealthHandler(serviceName, nil)
	}
	r.HandleFunc("/health", health.Health).Methods("GET")

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/analyze/{symbol}", h.Decision.Analyze).Methods("POST")
	api.HandleFunc("/decisions/{symbol}", h.Decision.GetHistory).Methods("GET")
	api.HandleFunc("/decisions/{symbol}/latest", h.Decision.GetLatest).Methods("GET")
	api.HandleFunc("/runs/{runID}", h.Decision.GetRun).Methods("GET")

	// WebSocket
	if h.Stream != nil {
		r.HandleFunc("/ws/analyze/{symbol}", h.Stream.Analyze).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// websocket 업그레이드는 Hijacker가 필요하므로 래핑하지 않음
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
