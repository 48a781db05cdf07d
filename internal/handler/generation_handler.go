package handler

import (
	"net/http"

	"genquota-server/internal/domain"
)

const safetyBlockMessage = "Image rejected due to safety guidelines. Please try different images or prompts."

type GenerationHandler struct {
	generationService domain.GenerationService
	logger            domain.Logger
}

func NewGenerationHandler(generationService domain.GenerationService, logger domain.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		logger:            logger,
	}
}

type generateResponse struct {
	ImageURL    string               `json:"imageUrl,omitempty"`
	Text        string               `json:"text,omitempty"`
	Error       string               `json:"error,omitempty"`
	SafetyBlock bool                 `json:"safetyBlock,omitempty"`
	Generations domain.QuotaSnapshot `json:"generations"`
}

// Generate handles one image generation request
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if status, err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("Invalid generate body", "error", err.Error())
		if status == http.StatusRequestEntityTooLarge {
			writeError(w, status, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := h.generationService.Generate(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if result.SafetyBlock {
		writeJSON(w, http.StatusOK, generateResponse{
			Error:       safetyBlockMessage,
			SafetyBlock: true,
			Generations: result.Quota,
		})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ImageURL:    result.ImageURL,
		Text:        result.Text,
		Generations: result.Quota,
	})
}
