package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCompletionAPI struct {
	mock.Mock
}

func (m *MockCompletionAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completionResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI, defaultModel: DefaultModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultModel &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Role == openai.ChatMessageRoleUser &&
			req.Messages[1].Content == "What is a pipeline?" &&
			!req.Stream
	})).Return(completionResponse("A pipeline is..."), nil)

	answer, err := client.Complete(context.Background(), "You are a documentation assistant.", "What is a pipeline?", Options{})

	require.NoError(t, err)
	assert.Equal(t, "A pipeline is...", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_OptionsOverrideDefaults(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI, defaultModel: DefaultModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "mixtral-8x7b-32768" && req.Temperature == 0.7 && req.MaxTokens == 256
	})).Return(completionResponse("ok"), nil)

	_, err := client.Complete(context.Background(), "system", "user", Options{
		Model:       "mixtral-8x7b-32768",
		Temperature: 0.7,
		MaxTokens:   256,
	})

	require.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_ProviderError(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI, defaultModel: DefaultModel}

	providerErr := errors.New("upstream unavailable")
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, providerErr)

	answer, err := client.Complete(context.Background(), "system", "user", Options{})

	assert.Empty(t, answer)
	assert.ErrorIs(t, err, providerErr)
}

func TestClient_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI, defaultModel: DefaultModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil)

	_, err := client.Complete(context.Background(), "system", "user", Options{})

	assert.ErrorIs(t, err, ErrNoChoices)
}
