package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/pkg/errors"
)

func TestOpenAIContentUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain string",
			raw:  `"hello"`,
			want: "hello",
		},
		{
			name: "parts array",
			raw:  `[{"type":"text","text":"first"},{"type":"text","text":"second"}]`,
			want: "first\nsecond",
		},
		{
			name: "empty parts",
			raw:  `[]`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c openAIContent
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &c))
			assert.Equal(t, tt.want, string(c))
		})
	}
}

func TestOpenAIContentKeepsNonTextParts(t *testing.T) {
	var c openAIContent
	raw := `[{"type":"text","text":"answer"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Contains(t, string(c), "answer")
	assert.Contains(t, string(c), "image_url")
}

func newTestRequest() CompletionRequest {
	return CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{System("you are terse"), User("say hi")},
	}
}

func TestOpenAICompatClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"hi"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatClient(ProviderOpenAI, "test-key", srv.URL, 5*time.Second)
	completion, err := client.Complete(context.Background(), newTestRequest())
	require.NoError(t, err)

	assert.Equal(t, "hi", completion.Text)
	assert.Equal(t, 4, completion.Usage.TotalTokens)
}

func TestOpenAICompatClientErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errors.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, errors.KindTransient},
		{"server error", http.StatusInternalServerError, errors.KindTransient},
		{"bad gateway", http.StatusBadGateway, errors.KindTransient},
		{"bad request", http.StatusBadRequest, errors.KindPermanent},
		{"unauthorized", http.StatusUnauthorized, errors.KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewOpenAICompatClient(ProviderOpenAI, "test-key", srv.URL, 5*time.Second)
			_, err := client.Complete(context.Background(), newTestRequest())
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestOpenAICompatClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatClient(ProviderOpenAI, "test-key", srv.URL, 5*time.Second)
	_, err := client.Complete(context.Background(), newTestRequest())
	require.Error(t, err)
	assert.Equal(t, errors.KindPermanent, errors.KindOf(err))
}

func TestOpenAICompatClientMissingKey(t *testing.T) {
	client := NewOpenAICompatClient(ProviderOpenAI, "", "http://127.0.0.1:1", time.Second)
	_, err := client.Complete(context.Background(), newTestRequest())
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}
