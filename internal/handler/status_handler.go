package handler

import (
	"net/http"
	"strings"

	"genquota-server/internal/domain"
)

type StatusHandler struct {
	entitlementService domain.EntitlementService
	logger             domain.Logger
}

func NewStatusHandler(entitlementService domain.EntitlementService, logger domain.Logger) *StatusHandler {
	return &StatusHandler{
		entitlementService: entitlementService,
		logger:             logger,
	}
}

type statusRequest struct {
	DeviceID string `json:"deviceId"`
}

// Status returns the device's counters and subscription state without changing them
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if status, err := decodeJSON(r, &req); err != nil && status == http.StatusRequestEntityTooLarge {
		writeError(w, status, "Request body too large")
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "Missing deviceId")
		return
	}

	report, err := h.entitlementService.Status(r.Context(), deviceID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
