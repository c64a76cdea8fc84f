package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingAPI is a mock for the embedding provider API
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	ctx := context.Background()
	text := "How do I install a Kubeflow pipeline?"
	expected := make([]float32, DefaultEmbeddingDimensions)
	for i := range expected {
		expected[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expected, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Equal(t, expected, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("test-key", "")

	embedding, err := client.GenerateEmbedding(context.Background(), "")

	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	apiErr := errors.New("API rate limit exceeded")
	mockAPI.On("CreateEmbeddings", mock.Anything, "some text").Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(context.Background(), "some text")

	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := &Client{api: mockAPI, dimensions: DefaultEmbeddingDimensions}

	mockAPI.On("CreateEmbeddings", mock.Anything, "text").Return(make([]float32, 512), nil)

	embedding, err := client.GenerateEmbedding(context.Background(), "text")

	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	mockAPI.AssertExpectations(t)
}
