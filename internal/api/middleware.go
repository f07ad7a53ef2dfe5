package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/http/response"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/ratelimit"
)

// requestLogger logs one line per request with its status and latency.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if status >= http.StatusInternalServerError {
				log.Error("request", attrs...)
				return
			}
			log.Debug("request", attrs...)
		})
	}
}

// requireUser rejects requests without an authenticated user.
func requireUser(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserFromContext(r.Context()); !ok {
				response.Unauthorized(w, "Authentication required", log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// uploadRateLimit limits uploads per user, or per client IP for requests
// without one.
func uploadRateLimit(limiter *ratelimit.KeyedRateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + getClientIP(r)
			if user, ok := auth.UserFromContext(r.Context()); ok {
				key = "user:" + user.ID.String()
			}

			if !limiter.Allow(key) {
				log.Warn("upload rate limit exceeded", "key", key, "path", r.URL.Path)
				response.TooManyRequests(w, "Demasiadas subidas. Intente de nuevo en unos segundos.", log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
