package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docsmith-ai/docsmith/internal/api"
	"github.com/docsmith-ai/docsmith/internal/llm"
)

// AnswerService defines the service interface for one-shot question answering
type AnswerService interface {
	RespondWithOptions(ctx context.Context, question string, opts llm.Options) (string, error)
}

// AskHandler handles the one-shot question endpoint
type AskHandler struct {
	responder AnswerService
}

// NewAskHandler creates a new AskHandler instance
func NewAskHandler(responder AnswerService) *AskHandler {
	return &AskHandler{responder: responder}
}

type askRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask handles POST /ask. Sampling overrides are optional; omitted fields
// use the server defaults.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.responder.RespondWithOptions(r.Context(), req.Message, llm.Options{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, askResponse{Answer: answer})
}
