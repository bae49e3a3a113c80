package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Model: "gpt-4o-mini"})
	require.Error(t, err)

	_, err = New(Options{APIKey: "sk-test"})
	require.Error(t, err)

	adapter, err := New(Options{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	require.Equal(t, "openai", adapter.Name())
}

func TestCompleteSendsPromptAndReturnsContent(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "{\"label\": \"bug\"}"}, "finish_reason": "stop"}
			]
		}`))
	}))
	defer server.Close()

	adapter, err := New(Options{
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		BaseURL:     server.URL,
		MaxTokens:   200,
		Temperature: 0.1,
	})
	require.NoError(t, err)

	out, err := adapter.Complete(context.Background(), "Classify this ticket")
	require.NoError(t, err)
	require.Equal(t, `{"label": "bug"}`, out)

	require.Equal(t, "gpt-4o-mini", captured["model"])
	require.Equal(t, float64(200), captured["max_tokens"])
	require.InDelta(t, 0.1, captured["temperature"], 1e-9)

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first, ok := messages[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "user", first["role"])
	require.Equal(t, "Classify this ticket", first["content"])
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	adapter, err := New(Options{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), "Classify this ticket")
	require.Error(t, err)
}
