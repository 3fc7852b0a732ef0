package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zomato-recommender/internal/common/config"
	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/logger"
)

func createTestConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      "gsk_test",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.2,
		Timeout:     2000,
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestChatClient_Complete(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		wantErr        bool
		wantKind       errors.FailureKind
		validateOutput func(t *testing.T, out string)
	}{
		{
			name: "returns first choice content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

				var req chatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
				assert.Equal(t, 0.2, req.Temperature)
				require.Len(t, req.Messages, 2)
				assert.Equal(t, "system", req.Messages[0].Role)
				assert.Equal(t, "sys", req.Messages[0].Content)
				assert.Equal(t, "user", req.Messages[1].Role)
				assert.Equal(t, "usr", req.Messages[1].Content)

				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"}}]}`))
			},
			validateOutput: func(t *testing.T, out string) {
				assert.Equal(t, `{"summary":"ok"}`, out)
			},
		},
		{
			name: "non-2xx is a transport failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			},
			wantErr:  true,
			wantKind: errors.KindTransport,
		},
		{
			name: "no choices is a transport failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			wantErr:  true,
			wantKind: errors.KindTransport,
		},
		{
			name: "undecodable body is a transport failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			},
			wantErr:  true,
			wantKind: errors.KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewChatClient(createTestConfig(server.URL+"/openai"), logger.NewTestLogger(t))
			out, err := client.Complete(context.Background(), "sys", "usr")

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errors.KindOf(err))
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, out)
		})
	}
}

func TestChatClient_MissingKey(t *testing.T) {
	called := false
	hc := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})}

	cfg := createTestConfig("http://unused")
	cfg.APIKey = "   "
	client := NewChatClientWithHTTPClient(cfg, hc, logger.NewNoOpLogger())

	err := client.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
	assert.Contains(t, err.Error(), MissingKeyMessage)

	_, err = client.Complete(context.Background(), "s", "u")
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
	assert.False(t, called, "provider must not be contacted without a key")
}

func TestChatClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 50
	client := NewChatClient(cfg, logger.NewNoOpLogger())

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMTimeout))
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
}
