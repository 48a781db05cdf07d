package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"genquota-server/internal/domain"
	apperrors "genquota-server/pkg/errors"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// GetRequestIDFromContext returns the id assigned by the request logging middleware.
func GetRequestIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

type quotaErrorResponse struct {
	Error       string               `json:"error"`
	Generations domain.QuotaSnapshot `json:"generations"`
}

// writeAppError maps a service error to its HTTP response. Quota errors carry
// the counters so the client can render the remaining balance.
func writeAppError(w http.ResponseWriter, r *http.Request, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", err, "path", r.URL.Path, "request_id", GetRequestIDFromContext(r))
	}

	if appErr.Quota != nil {
		writeJSON(w, appErr.StatusCode, quotaErrorResponse{Error: appErr.Message, Generations: *appErr.Quota})
		return
	}
	writeError(w, appErr.StatusCode, appErr.Message)
}

// decodeJSON reads a JSON body. The returned status is 413 when the body limit
// was hit and 400 otherwise.
func decodeJSON(r *http.Request, dst interface{}) (int, error) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}
