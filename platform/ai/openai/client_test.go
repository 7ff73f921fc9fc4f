package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"COLD"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "test-model"})
	text, err := c.Complete(context.Background(), "sys", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "COLD" {
		t.Fatalf("expected COLD, got %q", text)
	}
	if body["model"] != "test-model" {
		t.Fatalf("expected model test-model, got %v", body["model"])
	}
	if messages, _ := body["messages"].([]any); len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}
