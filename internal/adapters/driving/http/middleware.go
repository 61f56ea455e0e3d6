package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abrsearch/core/internal/adapters/driven/auth"
	"github.com/abrsearch/core/internal/core/domain"
)

// loggingMiddleware wraps ResponseWriter to capture status, following
// the teacher's LoggingMiddleware shape.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("request",
			"method", r.Method, "path", r.URL.Path, "status", sw.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// recoveryMiddleware converts a panic in any downstream handler into a
// 500 response instead of crashing the worker process.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
				writeError(w, logger, domain.Wrap(nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware applies a permissive-by-default CORS policy,
// configurable to an explicit origin allowlist, following the
// teacher's CORSMiddleware shape.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin, allowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// requireOperator gates POST /api/v1/ingest behind the single-claim
// operator JWT described in SPEC_FULL's "Supplemented features".
// Every other route stays unauthenticated, matching the teacher's
// selective AuthMiddleware.Authenticate application per route.
func requireOperator(operator *auth.Operator, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			writeError(w, logger, domain.NewOperationalError(domain.KindUnauthorized, "missing bearer token", domain.ErrUnauthorized))
			return
		}
		if err := operator.VerifyToken(token); err != nil {
			writeError(w, logger, domain.NewOperationalError(domain.KindUnauthorized, "invalid operator token", domain.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}
