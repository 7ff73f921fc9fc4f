package memory

import (
	"context"
	"testing"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/repository/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) ports.Store { return New() })
}

func TestStoreReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	session := domain.ConversationSession{LeadID: "l1", Messages: []domain.Message{{Text: "hi"}}}
	if err := s.CreateLead(ctx, domain.Lead{ID: "l1"}, session); err != nil {
		t.Fatal(err)
	}

	loaded, _ := s.LoadSession(ctx, "l1")
	loaded.Messages[0].Text = "changed"

	again, _ := s.LoadSession(ctx, "l1")
	if again.Messages[0].Text != "hi" {
		t.Fatalf("stored session was aliased")
	}
}
