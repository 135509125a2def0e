package router

import (
	"LiveTable/internal/auth"
	"LiveTable/internal/config"
	"LiveTable/internal/handler"
	"LiveTable/internal/logger"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// InitRoutes registers the table endpoints on a new mux.
func InitRoutes(cfg *config.Config, h *handler.Tables) (*http.ServeMux, error) {
	wrap := func(next http.HandlerFunc) http.HandlerFunc { return next }
	if cfg.Auth.Enabled {
		validator, err := auth.NewJWTValidator(cfg.Auth.JWT)
		if err != nil {
			return nil, err
		}
		wrap = func(next http.HandlerFunc) http.HandlerFunc {
			return auth.Middleware(validator, next)
		}
		logger.Info("auth_enabled", map[string]any{"alg": cfg.Auth.JWT.ValidationType})
	}
	cors := newCORSPolicy(cfg.CORS)
	route := func(next http.HandlerFunc) http.HandlerFunc {
		return withCORS(cors, withLogging(wrap(next)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tables/{resource}", route(getOnly(h.List)))
	mux.HandleFunc("/api/tables/{resource}/count", route(getOnly(h.Count)))
	mux.HandleFunc("/api/tables/{resource}/export", route(getOnly(h.Export)))
	mux.HandleFunc("/api/tables/{resource}/sort", route(getOnly(h.Sort)))
	return mux, nil
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			logger.Warn("method_not_allowed", map[string]any{
				"path":   r.URL.Path,
				"method": r.Method,
			})
			http.Error(w, "Only GET allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		level := "info"
		if sw.status >= 500 {
			level = "error"
		} else if sw.status >= 400 {
			level = "warn"
		}
		fields := map[string]any{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		switch level {
		case "error":
			logger.Error("response", fields)
		case "warn":
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
