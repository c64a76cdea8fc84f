package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/llm"
	"github.com/docsmith-ai/docsmith/internal/telemetry"
)

const (
	// DefaultTopK is the number of nearest chunks retrieved per question.
	DefaultTopK = 5

	defaultEmbedTimeout    = 30 * time.Second
	defaultSearchTimeout   = 15 * time.Second
	defaultCompleteTimeout = 90 * time.Second
)

// groundingPromptTemplate carries the retrieved context; the user's question
// is passed through as the user turn unmodified.
const groundingPromptTemplate = `You are a documentation assistant. Answer the user's question using only the information in the context below. Each context entry has a documentURL and documentContent. If the context does not contain enough information to answer, say so plainly instead of guessing. Cite the documentURL of the entries you drew from.

Context:
%s`

// NearestSearcher defines the repository interface for similarity retrieval
type NearestSearcher interface {
	SearchNearest(ctx context.Context, embedding []float32, k int) ([]*domain.ScoredDocument, error)
}

// CompletionClient defines the interface for grounded answer generation
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userMessage string, opts llm.Options) (string, error)
}

// contextEntry is the projection of a retrieved chunk handed to the model.
type contextEntry struct {
	DocumentURL     string `json:"documentURL"`
	DocumentContent string `json:"documentContent"`
}

// ResponderService answers questions over the stored documentation: embed
// the question, retrieve the nearest chunks, and generate a grounded answer.
type ResponderService struct {
	embedder   EmbeddingClient
	store      NearestSearcher
	completion CompletionClient
	topK       int
	opts       llm.Options

	embedTimeout    time.Duration
	searchTimeout   time.Duration
	completeTimeout time.Duration
}

// NewResponderService creates a new ResponderService instance. A topK of
// zero or less falls back to DefaultTopK.
func NewResponderService(embedder EmbeddingClient, store NearestSearcher, completion CompletionClient, topK int, opts llm.Options) *ResponderService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ResponderService{
		embedder:        embedder,
		store:           store,
		completion:      completion,
		topK:            topK,
		opts:            opts,
		embedTimeout:    defaultEmbedTimeout,
		searchTimeout:   defaultSearchTimeout,
		completeTimeout: defaultCompleteTimeout,
	}
}

// Respond answers one question with the service's default sampling options.
func (s *ResponderService) Respond(ctx context.Context, question string) (string, error) {
	return s.RespondWithOptions(ctx, question, llm.Options{})
}

// RespondWithOptions answers one question. Zero-valued option fields fall
// back to the service defaults. An empty retrieval set still produces a
// completion; the grounding prompt makes the model admit it has nothing to
// go on.
func (s *ResponderService) RespondWithOptions(ctx context.Context, question string, opts llm.Options) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "question is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "service.respond", telemetry.SpanAttributes{
		Operation: "respond",
	})
	defer span.End()

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	embedding, err := s.embedder.GenerateEmbedding(embedCtx, question)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingFailure,
			"failed to embed question", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()
	results, err := s.store.SearchNearest(searchCtx, embedding, s.topK)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return "", err
		}
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
			"failed to retrieve context", err)
	}

	entries := make([]contextEntry, 0, len(results))
	for _, doc := range results {
		entries = append(entries, contextEntry{
			DocumentURL:     doc.DocumentURL,
			DocumentContent: doc.DocumentContent,
		})
	}

	contextJSON, err := json.Marshal(entries)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError,
			"failed to encode context", err)
	}

	systemPrompt := fmt.Sprintf(groundingPromptTemplate, contextJSON)

	merged := s.opts
	if opts.Model != "" {
		merged.Model = opts.Model
	}
	if opts.Temperature != 0 {
		merged.Temperature = opts.Temperature
	}
	if opts.MaxTokens != 0 {
		merged.MaxTokens = opts.MaxTokens
	}

	completeCtx, cancel := context.WithTimeout(ctx, s.completeTimeout)
	defer cancel()
	answer, err := s.completion.Complete(completeCtx, systemPrompt, question, merged)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeCompletionFailure,
			"failed to generate answer", err)
	}

	return answer, nil
}
