package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadbot_backend/platform/config"
)

type gateway struct {
	calls  int
	batch  replyBatch
	auth   string
	device string
}

func newGateway(t *testing.T, status int) (*gateway, *httptest.Server) {
	t.Helper()
	g := &gateway{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls++
		if r.URL.Path != sendPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		g.auth, g.device = r.Header.Get("Authorization"), r.Header.Get("X-Device-Id")
		if err := json.NewDecoder(r.Body).Decode(&g.batch); err != nil {
			t.Errorf("decode: %v", err)
		}
		if status >= http.StatusBadRequest {
			http.Error(w, "device offline", status)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return g, srv
}

func TestSendRepliesPostsOneBatch(t *testing.T) {
	g, srv := newGateway(t, http.StatusOK)
	c := NewClient(&config.Config{WhatsAppURL: srv.URL + "/", WhatsAppKey: "user:pass", WhatsAppDeviceID: "dev-1"}, "IN", nil)

	err := c.SendReplies(context.Background(), "98765 43210", []string{"Got it, Whitefield.", "  ", "What is your budget?"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if g.calls != 1 {
		t.Fatalf("expected one gateway call per turn, got %d", g.calls)
	}
	want := replyBatch{Phone: "919876543210", Message: "Got it, Whitefield.\n\nWhat is your budget?"}
	if g.batch != want {
		t.Fatalf("batch = %+v, want %+v", g.batch, want)
	}
	if g.auth != "Basic dXNlcjpwYXNz" || g.device != "dev-1" {
		t.Fatalf("unexpected headers auth=%q device=%q", g.auth, g.device)
	}
}

func TestSendRepliesSkipsEmptyBatch(t *testing.T) {
	g, srv := newGateway(t, http.StatusOK)
	c := NewClient(&config.Config{WhatsAppURL: srv.URL}, "IN", nil)

	for _, replies := range [][]string{nil, {" ", ""}} {
		if err := c.SendReplies(context.Background(), "+919876543210", replies); err != nil {
			t.Fatalf("send %q: %v", replies, err)
		}
	}
	if g.calls != 0 {
		t.Fatalf("empty batches should not reach the gateway, got %d calls", g.calls)
	}
}

func TestSendRepliesGatewayError(t *testing.T) {
	_, srv := newGateway(t, http.StatusBadGateway)
	c := NewClient(&config.Config{WhatsAppURL: srv.URL}, "IN", nil)

	err := c.SendReplies(context.Background(), "+919876543210", []string{"hi"})
	if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "device offline") {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestBasicAuth(t *testing.T) {
	for key, want := range map[string]string{
		"":                 "",
		"user:pass":        "Basic dXNlcjpwYXNz",
		"Basic abc123==":   "Basic abc123==",
		"basic lowercase=": "basic lowercase=",
	} {
		if got := basicAuth(key); got != want {
			t.Errorf("basicAuth(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNilClientIsNoop(t *testing.T) {
	c := NewClient(&config.Config{}, "IN", nil)
	if c != nil {
		t.Fatalf("expected nil client without URL")
	}
	if err := c.SendReplies(context.Background(), "+919876543210", []string{"hi"}); err != nil {
		t.Fatalf("nil client should not fail: %v", err)
	}
}
