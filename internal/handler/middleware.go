package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"genquota-server/internal/domain"
	"genquota-server/internal/metrics"
	apperrors "genquota-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	appSecretHeader = "X-App-Secret"
	requestIDHeader = "X-Request-ID"
)

// Middleware holds the request guards shared by all routes.
type Middleware struct {
	appSecret     string
	webhookSecret string
	maxBodyBytes  int64
	metrics       *metrics.Collector
	logger        domain.Logger
}

func NewMiddleware(appSecret, webhookSecret string, maxBodyBytes int64, collector *metrics.Collector, logger domain.Logger) *Middleware {
	return &Middleware{
		appSecret:     appSecret,
		webhookSecret: webhookSecret,
		maxBodyBytes:  maxBodyBytes,
		metrics:       collector,
		logger:        logger,
	}
}

// ClientAuth admits native app calls only: browsers always send Origin, and
// the app sends the shared secret.
func (m *Middleware) ClientAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "" {
			writeAppError(w, r, m.logger, apperrors.NewAuthRejectedError("Forbidden", http.StatusForbidden))
			return
		}
		if !secretMatches(r.Header.Get(appSecretHeader), m.appSecret) {
			m.logger.Warn("Invalid app secret", "path", r.URL.Path, "request_id", GetRequestIDFromContext(r))
			writeAppError(w, r, m.logger, apperrors.NewAuthRejectedError("Invalid app secret", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WebhookAuth checks the billing provider's bearer secret.
func (m *Middleware) WebhookAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.webhookSecret == "" || !secretMatches(r.Header.Get("Authorization"), "Bearer "+m.webhookSecret) {
			m.logger.Warn("Webhook authorization failed", "request_id", GetRequestIDFromContext(r))
			writeAppError(w, r, m.logger, apperrors.NewAuthRejectedError("Unauthorized", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps request bodies at the configured size.
func (m *Middleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.maxBodyBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogging tags each request with an id and logs its outcome.
func (m *Middleware) RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDContextKey, requestID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.metrics.Request(route, rec.status)
		m.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func secretMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
