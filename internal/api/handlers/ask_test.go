package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnswerService mocks the responder service
type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) RespondWithOptions(ctx context.Context, question string, opts llm.Options) (string, error) {
	args := m.Called(ctx, question, opts)
	return args.String(0), args.Error(1)
}

func TestAskHandler_Ask_Success(t *testing.T) {
	mockResponder := new(MockAnswerService)
	handler := NewAskHandler(mockResponder)

	mockResponder.On("RespondWithOptions", mock.Anything, "How do I install?", llm.Options{}).
		Return("Use the release archive.", nil)

	body := bytes.NewBufferString(`{"message":"How do I install?"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data askResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Use the release archive.", resp.Data.Answer)
	mockResponder.AssertExpectations(t)
}

func TestAskHandler_Ask_SamplingOverrides(t *testing.T) {
	mockResponder := new(MockAnswerService)
	handler := NewAskHandler(mockResponder)

	expected := llm.Options{Model: "llama-3.1-8b-instant", Temperature: 0.7, MaxTokens: 256}
	mockResponder.On("RespondWithOptions", mock.Anything, "question", expected).
		Return("an answer", nil)

	body := bytes.NewBufferString(`{"message":"question","model":"llama-3.1-8b-instant","temperature":0.7,"max_tokens":256}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockResponder.AssertExpectations(t)
}

func TestAskHandler_Ask_InvalidBody(t *testing.T) {
	handler := NewAskHandler(new(MockAnswerService))

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_Ask_EmptyMessage(t *testing.T) {
	mockResponder := new(MockAnswerService)
	handler := NewAskHandler(mockResponder)

	mockResponder.On("RespondWithOptions", mock.Anything, "", llm.Options{}).
		Return("", domain.NewDomainError(domain.ErrCodeValidation, "question is required"))

	body := bytes.NewBufferString(`{"message":""}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_Ask_CompletionFailure(t *testing.T) {
	mockResponder := new(MockAnswerService)
	handler := NewAskHandler(mockResponder)

	mockResponder.On("RespondWithOptions", mock.Anything, "question", llm.Options{}).
		Return("", domain.ErrCompletionFailure)

	body := bytes.NewBufferString(`{"message":"question"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
