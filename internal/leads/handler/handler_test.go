package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/repository/memory"
	"leadbot_backend/internal/leads/scoring"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/internal/leads/transport"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	profile := businessprofile.Default()
	engine := conversation.NewEngine(profile.Script, scoring.New(profile.Rules, nil),
		conversation.WithPicker(func(int) int { return 0 }))
	log := logger.Discard()
	bus := events.NewInMemoryBus(log)
	svc := service.New(memory.New(), engine, adapters.NewLocalTurnLocker(), bus, log)

	h := New(svc, validator.New(), "https://chat.example.com/")
	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	h.RegisterProtectedRoutes(v1.Group("/leads"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func createLead(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/v1/leads", map[string]string{"name": "Asha", "phone": "9876543210"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[transport.CreateLeadResponse](t, rec)
	if resp.LeadID == "" || len(resp.InitialMessages) != 2 {
		t.Fatalf("unexpected create response %+v", resp)
	}
	return resp.LeadID
}

func TestChatFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	id := createLead(t, r)

	replies := []string{"Koramangala, Bangalore", "2BHK flat for investment", "around 80L", "yes, available this week"}
	var last transport.TurnResponse
	for _, msg := range replies {
		rec := do(t, r, http.MethodPost, "/api/v1/chat/"+id+"/message", map[string]string{"message": msg})
		if rec.Code != http.StatusOK {
			t.Fatalf("message %q: %d %s", msg, rec.Code, rec.Body.String())
		}
		last = decode[transport.TurnResponse](t, rec)
	}
	if !last.IsComplete || last.Classification == nil || last.Classification.Classification != "Hot" {
		t.Fatalf("expected completed Hot conversation, got %+v", last)
	}

	rec := do(t, r, http.MethodPost, "/api/v1/chat/"+id+"/message", map[string]string{"message": "hello again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/api/v1/chat/"+id, nil)
	chat := decode[transport.GetChatResponse](t, rec)
	if rec.Code != http.StatusOK || chat.Chat.Status != "complete" {
		t.Fatalf("unexpected chat %d %+v", rec.Code, chat)
	}

	rec = do(t, r, http.MethodGet, "/api/v1/leads?classification=Hot", nil)
	list := decode[transport.LeadListResponse](t, rec)
	if rec.Code != http.StatusOK || list.Total != 1 || list.Items[0].ID != id {
		t.Fatalf("unexpected list %d %+v", rec.Code, list)
	}
}

func TestRequestValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing phone", http.MethodPost, "/api/v1/leads", map[string]string{"name": "Asha"}, http.StatusBadRequest},
		{"bad source", http.MethodPost, "/api/v1/leads", map[string]string{"name": "Asha", "phone": "9876543210", "source": "fax"}, http.StatusBadRequest},
		{"empty message", http.MethodPost, "/api/v1/chat/abc/message", map[string]string{"message": ""}, http.StatusBadRequest},
		{"unknown lead", http.MethodPost, "/api/v1/chat/abc/message", map[string]string{"message": "hi"}, http.StatusNotFound},
		{"unknown chat", http.MethodGet, "/api/v1/chat/abc", nil, http.StatusNotFound},
		{"bad list filter", http.MethodGet, "/api/v1/leads?classification=Lukewarm", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestOverrideAndReclassify(t *testing.T) {
	r := newTestRouter(t)
	id := createLead(t, r)

	rec := do(t, r, http.MethodPut, "/api/v1/leads/"+id+"/classification",
		map[string]string{"classification": "Warm", "reason": "called back"})
	if rec.Code != http.StatusOK {
		t.Fatalf("override: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[transport.LeadEnvelope](t, rec); got.Lead.Classification != "Warm" {
		t.Fatalf("expected Warm, got %s", got.Lead.Classification)
	}

	rec = do(t, r, http.MethodPut, "/api/v1/leads/"+id+"/classification",
		map[string]string{"classification": "Pending", "reason": "undo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Pending override should be rejected, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, "/api/v1/leads/"+id+"/reclassify", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("reclassifying an open conversation should conflict, got %d", rec.Code)
	}

	for _, msg := range []string{"Koramangala, Bangalore", "2BHK flat for investment", "around 80L", "yes, available this week"} {
		do(t, r, http.MethodPost, "/api/v1/chat/"+id+"/message", map[string]string{"message": msg})
	}
	rec = do(t, r, http.MethodPost, "/api/v1/leads/"+id+"/reclassify", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reclassify: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[transport.ReclassifyResponse](t, rec)
	if got.Queued || got.Lead == nil || got.Lead.Classification != "Hot" {
		t.Fatalf("expected inline Hot reclassification, got %+v", got)
	}
}

func TestWhatsAppWebhook(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/webhooks/whatsapp",
		map[string]string{"phone": "+919812345678", "name": "Ravi", "message": "Hi, need a flat"})
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[transport.TurnResponse](t, rec)
	if len(resp.BotMessages) == 0 || resp.IsComplete {
		t.Fatalf("unexpected webhook response %+v", resp)
	}
}

func TestQRCode(t *testing.T) {
	r := newTestRouter(t)
	id := createLead(t, r)

	rec := do(t, r, http.MethodGet, "/api/v1/leads/"+id+"/qr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("qr: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Fatalf("body is not a PNG")
	}
}
