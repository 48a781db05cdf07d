package handler

import (
	"net/http"

	"genquota-server/internal/domain"
)

type WebhookHandler struct {
	webhookService domain.WebhookService
	logger         domain.Logger
}

func NewWebhookHandler(webhookService domain.WebhookService, logger domain.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// Handle applies one billing provider event. Any non-2xx response makes the
// provider redeliver.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var payload domain.WebhookPayload
	if status, err := decodeJSON(r, &payload); err != nil {
		h.logger.Warn("Undecodable webhook body", "error", err.Error())
		if status == http.StatusRequestEntityTooLarge {
			writeError(w, status, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	event, err := domain.ParseBillingEvent(payload)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	result, err := h.webhookService.Apply(r.Context(), event)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("Webhook processed", "event_id", event.Meta().ID, "type", event.Meta().Type, "result", string(result))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
