package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"carrental/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// loggingMiddleware tags each request with an id, puts a request-scoped
// logger in the context, and records the outcome in logs and metrics.
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		logger := s.logger.With().Str("request_id", requestID).Logger()
		req := r.WithContext(logger.WithContext(r.Context()))

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, strconv.Itoa(recorder.status))

		event := logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// adminOnly requires admin credentials in the configured headers.
func (s *HTTPServer) adminOnly(next http.HandlerFunc) http.Handler {
	userHeader := s.cfg.Auth.HeaderUser
	if userHeader == "" {
		userHeader = "x-admin-user"
	}
	passwordHeader := s.cfg.Auth.HeaderPassword
	if passwordHeader == "" {
		passwordHeader = "x-admin-password"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(userHeader)
		if err := s.deps.Admin.Authenticate(user, r.Header.Get(passwordHeader)); err != nil {
			zerolog.Ctx(r.Context()).Warn().Str("admin", user).Msg("admin auth rejected")
			writeError(w, http.StatusUnauthorized, "unauthorized", "admin credentials required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
