package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected model gpt-4o-mini, got %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Temperature != 0.4 || req.MaxTokens != 420 {
			t.Errorf("unexpected sampling params: %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "advice"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	c := NewClient("sk-test", "gpt-4o-mini")
	c.SetTestTransport(server.URL)

	got, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "concise"},
		{Role: "user", Content: "results"},
	}, 0.4, 420)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "advice" {
		t.Errorf("expected advice, got %q", got)
	}
}

func TestChat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit", "message": "slow down"},
		})
	}))
	defer server.Close()

	c := NewClient("sk-test", "gpt-4o-mini")
	c.SetTestTransport(server.URL)

	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.4, 10); err == nil {
		t.Fatal("expected error for rate-limited response")
	}
}

func TestChat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	c := NewClient("sk-test", "gpt-4o-mini")
	c.SetTestTransport(server.URL)

	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.4, 10); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
