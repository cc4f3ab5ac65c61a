package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/model"
)

func classifierResponse(t *testing.T, intent *model.Intent) []byte {
	t.Helper()
	text, err := json.Marshal(intent)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": string(text)}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestClassifierClientResolve(t *testing.T) {
	want := &model.Intent{
		Kind:         model.IntentGranularRule,
		Parameters:   model.IntentParams{Sender: "csob.cz", SemanticType: "marketing"},
		ResponseText: "✅ Nastavil jsem granulární pravidla pro csob.cz.",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "smaž marketing od csob.cz, ale ne faktury", req.Contents[0].Parts[0].Text)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		w.Header().Set("Content-Type", "application/json")
		w.Write(classifierResponse(t, want))
	}))
	defer srv.Close()

	c := NewClassifierClient(srv.URL, "gemini-2.0-flash", "test-key")
	got, err := c.Resolve(context.Background(), "smaž marketing od csob.cz, ale ne faktury")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClassifierClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"candidates": []}`))
			},
		},
		{
			name: "malformed intent payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "not json"}]}}]}`))
			},
		},
		{
			name: "intent outside the closed set",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "{\"intent\": \"reorganize_inbox\", \"response_text\": \"ok\"}"}]}}]}`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClassifierClient(srv.URL, "gemini-2.0-flash", "test-key")
			_, err := c.Resolve(context.Background(), "pozastav vše")
			assert.Error(t, err)
		})
	}
}

func TestClassifierClientRequiresAPIKey(t *testing.T) {
	c := NewClassifierClient("http://localhost:0", "gemini-2.0-flash", "")
	_, err := c.Resolve(context.Background(), "pozastav vše")
	assert.Error(t, err)
}

// A broken classifier endpoint must be invisible to the caller: the resolver
// answers from the keyword strategy with the same intent shape.
func TestResolverFallsBackOnClassifierTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClassifierClient(srv.URL, "gemini-2.0-flash", "test-key")
	r := NewResolver(c, zap.NewNop())

	got := r.Resolve(context.Background(), "zruš pravidla pro alza.cz")
	require.NotNil(t, got)
	require.NoError(t, model.ValidateIntent(got))
	assert.Equal(t, model.IntentUnblockSender, got.Kind)
	assert.Equal(t, "alza.cz", got.Parameters.Sender)
}
