package handlers

import (
	"context"
	"net/http"

	"github.com/docsmith-ai/docsmith/internal/api"
	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/go-chi/chi/v5"
)

// DocumentStore defines the repository interface for collection management
type DocumentStore interface {
	ListFiltered(ctx context.Context, source, url *string) ([]*domain.DocumentItem, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CollectionExists(ctx context.Context) (bool, error)
}

// EnsureCollectionFunc creates the collection schema when missing and
// reports whether anything was created.
type EnsureCollectionFunc func() (bool, error)

// CollectionHandler handles collection management endpoints
type CollectionHandler struct {
	documents DocumentStore
	ensure    EnsureCollectionFunc
}

// NewCollectionHandler creates a new CollectionHandler instance
func NewCollectionHandler(documents DocumentStore, ensure EnsureCollectionFunc) *CollectionHandler {
	return &CollectionHandler{
		documents: documents,
		ensure:    ensure,
	}
}

type DocumentItemResponse struct {
	ID              string `json:"id"`
	DocumentSource  string `json:"document_source"`
	DocumentURL     string `json:"document_url"`
	DocumentContent string `json:"document_content"`
	CreatedAt       string `json:"created_at"`
}

func documentItemToResponse(item *domain.DocumentItem) *DocumentItemResponse {
	return &DocumentItemResponse{
		ID:              item.ID,
		DocumentSource:  item.DocumentSource,
		DocumentURL:     item.DocumentURL,
		DocumentContent: item.DocumentContent,
		CreatedAt:       item.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Ensure handles POST /collection: idempotently create the collection.
func (h *CollectionHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	created, err := h.ensure()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	api.Success(w, status, map[string]bool{"created": created})
}

// Exists handles GET /collection/exists
func (h *CollectionHandler) Exists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.documents.CollectionExists(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Count handles GET /collection/count
func (h *CollectionHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.documents.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]int64{"count": count})
}

// ListItems handles GET /collection/items with optional source and url
// query filters.
func (h *CollectionHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var source, url *string
	if s := r.URL.Query().Get("source"); s != "" {
		source = &s
	}
	if u := r.URL.Query().Get("url"); u != "" {
		url = &u
	}

	items, err := h.documents.ListFiltered(r.Context(), source, url)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DocumentItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, documentItemToResponse(item))
	}
	api.Success(w, http.StatusOK, resp)
}

// DeleteItem handles DELETE /collection/items/{id}
func (h *CollectionHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.documents.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"deleted": id})
}
