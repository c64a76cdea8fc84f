package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = "text-embedding-ada-002"
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002,
	// which must match the vector index dimension of the document collection
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when the provider returns a vector whose
	// dimension does not match the collection index. This is an invariant
	// violation and is never silently truncated or padded.
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the embedding provider behind the single call used by both
// the ingestion and the query path.
type Client struct {
	api        EmbeddingAPI
	dimensions int
}

type apiAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func (a *apiAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// NewClient creates an embedding client for the given model. An empty model
// selects the default.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Client{
		api: &apiAdapter{
			client: openai.NewClient(apiKey),
			model:  openai.EmbeddingModel(model),
		},
		dimensions: DefaultEmbeddingDimensions,
	}
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(embedding))
	}

	return embedding, nil
}
