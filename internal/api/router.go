package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tradelens/internal/api/handlers"
	"github.com/wonny/tradelens/pkg/logger"
	"github.com/wonny/tradelens/pkg/monitoring"
)

// RouterDeps are the optional collaborators of the router
type RouterDeps struct {
	Logger  *logger.Logger
	Monitor *monitoring.Registry // nil disables /metrics
	Limiter Limiter              // nil disables rate limiting
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h *handlers.Handler, deps RouterDeps) http.Handler {
	log := logger.OrNop(deps.Logger)
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if deps.Monitor != nil {
		r.Handle("/metrics", deps.Monitor.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Analysis endpoints
	api.HandleFunc("/features", h.Features).Methods("POST")
	api.HandleFunc("/metrics", h.Metrics).Methods("POST")
	api.HandleFunc("/compare", h.Compare).Methods("POST")
	api.HandleFunc("/breakdown/yearly", h.Yearly).Methods("POST")
	api.HandleFunc("/breakdown/monthly", h.Monthly).Methods("POST")
	api.HandleFunc("/breakdown/years", h.Years).Methods("POST")

	// Exclusion endpoints
	api.HandleFunc("/exclusions", h.GetExclusions).Methods("GET")
	api.HandleFunc("/exclusions", h.PutExclusions).Methods("PUT")
	api.HandleFunc("/exclusions", h.DeleteExclusions).Methods("DELETE")

	if deps.Limiter != nil {
		api.Use(rateLimitMiddleware(deps.Limiter, deps.Monitor))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log, deps.Monitor))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "tradelens-api",
	})
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// routeName is the matched route template, so metrics never carry raw paths
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// loggingMiddleware logs HTTP requests and records them in Prometheus
func loggingMiddleware(log *logger.Logger, monitor *monitoring.Registry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			monitor.ObserveRequest(r.Method, routeName(r), strconv.Itoa(rec.status), duration)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": duration,
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

// rateLimitMiddleware answers 429 once a client exhausts its budget
func rateLimitMiddleware(limiter Limiter, monitor *monitoring.Registry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), clientKey(r)) {
				monitor.RateLimited()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
