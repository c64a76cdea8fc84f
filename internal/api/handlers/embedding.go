package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/docsmith-ai/docsmith/internal/api"
	"github.com/docsmith-ai/docsmith/internal/domain"
)

// Embedder defines the interface for standalone embedding generation
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingHandler exposes raw embedding generation, mostly for debugging
// retrieval quality.
type EmbeddingHandler struct {
	embedder Embedder
}

// NewEmbeddingHandler creates a new EmbeddingHandler instance
func NewEmbeddingHandler(embedder Embedder) *EmbeddingHandler {
	return &EmbeddingHandler{embedder: embedder}
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// Generate handles POST /embeddings
func (h *EmbeddingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	embedding, err := h.embedder.GenerateEmbedding(r.Context(), req.Text)
	if err != nil {
		api.HandleError(w, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingFailure,
			"failed to generate embedding", err))
		return
	}

	api.Success(w, http.StatusOK, embeddingResponse{
		Embedding:  embedding,
		Dimensions: len(embedding),
	})
}
