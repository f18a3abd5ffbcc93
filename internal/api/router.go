package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/riskreport/internal/api/handlers"
	"github.com/wonny/riskreport/pkg/config"
	"github.com/wonny/riskreport/pkg/logger"
)

// NewRouter creates and configures the HTTP router; metrics may be nil (disabled)
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(cfg *config.Config, analysisHandler *handlers.AnalysisHandler, metrics *Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	// API v1
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", analysisHandler.Analyze).Methods("POST")
	api.Use(rateLimitMiddleware(newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), metrics, log))

	// Apply middleware
	r.Use(loggingMiddleware(metrics, log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "riskreport-api",
	})
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

// loggingMiddleware logs HTTP requests and records request metrics
func loggingMiddleware(metrics *Metrics, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			if metrics != nil {
				metrics.ObserveRequest(r.Method, route, rec.status, time.Since(start))
			}

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// rateLimitMiddleware rejects clients over their token budget with 429
func rateLimitMiddleware(limiter *clientLimiter, metrics *Metrics, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			if !limiter.Allow(client) {
				if metrics != nil {
					metrics.RateLimited.Inc()
				}
				log.WithField("client", client).Warn("Rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
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
