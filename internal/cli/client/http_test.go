package client

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIClientWithCmd_EnvURL(t *testing.T) {
	os.Setenv(envAPIURL, "http://example.com:9090")
	defer os.Unsetenv(envAPIURL)

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:9090", api.BaseURL())
}

func TestNewAPIClientWithCmd_DefaultURL(t *testing.T) {
	os.Unsetenv(envAPIURL)

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, api.BaseURL())
}

func TestAPIClient_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"data":{"count":3}}`))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	resp, err := api.Get("/collection/count")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, string(resp.Data))
}

func TestAPIClient_Post_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"failed to fetch dump"}`))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := api.Post("/ingest", IngestRequest{Repository: "kubeflow/website"})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "failed to fetch dump", apiErr.Message)
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := api.Get("/health")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestChatEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{name: "http", baseURL: "http://localhost:8080", want: "ws://localhost:8080/ws/chat"},
		{name: "https", baseURL: "https://docs.example.com", want: "wss://docs.example.com/ws/chat"},
		{name: "trailing slash", baseURL: "http://localhost:8080/", want: "ws://localhost:8080/ws/chat"},
		{name: "unsupported scheme", baseURL: "ftp://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chatEndpoint(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
