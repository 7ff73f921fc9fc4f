// Package storetest is a behavioural suite every ports.Store implementation
// must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"

	"github.com/google/uuid"
)

var base = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newLead(phone, source string, createdAt time.Time) (domain.Lead, domain.ConversationSession) {
	id := uuid.NewString()
	lead := domain.Lead{
		ID:             id,
		Name:           "Ravi",
		Phone:          phone,
		Source:         source,
		Classification: domain.ClassificationPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	session := domain.ConversationSession{
		LeadID: id,
		Messages: []domain.Message{
			{ID: uuid.NewString(), Sender: domain.SenderBot, Text: "Hi Ravi!", Timestamp: createdAt},
		},
		ValidationHistory: []domain.ValidationRecord{},
		Status:            domain.StatusActive,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	return lead, session
}

// Run exercises store. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("CreateAndLoad", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		lead, session := newLead("+919876543210", domain.SourceWebsite, base)

		if err := store.CreateLead(ctx, lead, session); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := store.GetLead(ctx, lead.ID)
		if err != nil {
			t.Fatalf("get lead: %v", err)
		}
		if got.ID != lead.ID || got.Phone != lead.Phone || got.Classification != domain.ClassificationPending || got.Score != nil {
			t.Fatalf("unexpected lead %+v", got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Fatalf("created_at = %v", got.CreatedAt)
		}

		loaded, err := store.LoadSession(ctx, lead.ID)
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
		if len(loaded.Messages) != 1 || loaded.Messages[0].Text != "Hi Ravi!" || loaded.Status != domain.StatusActive {
			t.Fatalf("unexpected session %+v", loaded)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		missing := uuid.NewString()

		if _, err := store.GetLead(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("get lead: expected ErrNotFound, got %v", err)
		}
		if _, err := store.LoadSession(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("load session: expected ErrNotFound, got %v", err)
		}
		if _, err := store.FindLatestLeadByPhone(ctx, "+910000000000"); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("find by phone: expected ErrNotFound, got %v", err)
		}
		lead, session := newLead("+919876543210", domain.SourceWebsite, base)
		session.LeadID = missing
		lead.ID = missing
		if err := store.SaveTurn(ctx, session, lead); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("save turn: expected ErrNotFound, got %v", err)
		}
		if _, err := store.LoadSession(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("failed SaveTurn must not persist the session, got %v", err)
		}
	})

	t.Run("SaveTurnPersistsBoth", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		lead, session := newLead("+919876543210", domain.SourceWebsite, base)
		if err := store.CreateLead(ctx, lead, session); err != nil {
			t.Fatalf("create: %v", err)
		}

		at := base.Add(time.Minute)
		session.Messages = append(session.Messages, domain.Message{ID: "u1", Sender: domain.SenderUser, Text: "Baner, Pune", Timestamp: at})
		session.CurrentStep = 1
		session.Profile = domain.Profile{Location: "Baner, Pune"}
		session.Status = domain.StatusComplete
		session.IsComplete = true
		session.UpdatedAt = at

		score := 7
		lead = lead.WithProfile(session.Profile, at).WithClassification(domain.ClassificationResult{
			Classification: domain.ClassificationWarm,
			Score:          &score,
			Method:         domain.MethodRuleBased,
			Rationale:      "why: location 1",
		}, "system", at)

		if err := store.SaveTurn(ctx, session, lead); err != nil {
			t.Fatalf("save turn: %v", err)
		}

		gotLead, err := store.GetLead(ctx, lead.ID)
		if err != nil {
			t.Fatalf("get lead: %v", err)
		}
		if gotLead.Classification != domain.ClassificationWarm || gotLead.Score == nil || *gotLead.Score != 7 {
			t.Fatalf("classification not saved: %+v", gotLead)
		}
		if gotLead.Metadata.Location != "Baner, Pune" || gotLead.Metadata.Method != domain.MethodRuleBased {
			t.Fatalf("metadata not saved: %+v", gotLead.Metadata)
		}

		gotSession, err := store.LoadSession(ctx, lead.ID)
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
		if gotSession.CurrentStep != 1 || len(gotSession.Messages) != 2 || gotSession.Status != domain.StatusComplete {
			t.Fatalf("session not saved: %+v", gotSession)
		}
	})

	t.Run("ListAndFilter", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, s1 := newLead("+919800000001", domain.SourceWebsite, base)
		second, s2 := newLead("+919800000001", domain.SourceWhatsApp, base.Add(time.Hour))
		third, s3 := newLead("+919800000003", domain.SourceWebsite, base.Add(2*time.Hour))
		for _, pair := range []struct {
			lead    domain.Lead
			session domain.ConversationSession
		}{{first, s1}, {second, s2}, {third, s3}} {
			if err := store.CreateLead(ctx, pair.lead, pair.session); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		third.Classification = domain.ClassificationHot
		s3.Status = domain.StatusComplete
		s3.IsComplete = true
		if err := store.SaveTurn(ctx, s3, third); err != nil {
			t.Fatalf("save turn: %v", err)
		}

		all, err := store.ListLeads(ctx, domain.LeadFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
			t.Fatalf("expected newest first, got %d leads", len(all))
		}

		hot, err := store.ListLeads(ctx, domain.LeadFilter{Classification: domain.ClassificationHot})
		if err != nil || len(hot) != 1 || hot[0].ID != third.ID {
			t.Fatalf("classification filter: %v %v", hot, err)
		}

		wa, err := store.ListLeads(ctx, domain.LeadFilter{Source: domain.SourceWhatsApp})
		if err != nil || len(wa) != 1 || wa[0].ID != second.ID {
			t.Fatalf("source filter: %v %v", wa, err)
		}

		limited, err := store.ListLeads(ctx, domain.LeadFilter{Limit: 2})
		if err != nil || len(limited) != 2 {
			t.Fatalf("limit: %d %v", len(limited), err)
		}

		latest, err := store.FindLatestLeadByPhone(ctx, "+919800000001")
		if err != nil || latest.ID != second.ID {
			t.Fatalf("latest by phone: %+v %v", latest, err)
		}

		finished, err := store.ListFinishedSessions(ctx, domain.LeadFilter{})
		if err != nil || len(finished) != 1 || finished[0].LeadID != third.ID {
			t.Fatalf("finished sessions: %v %v", finished, err)
		}
		none, err := store.ListFinishedSessions(ctx, domain.LeadFilter{Classification: domain.ClassificationCold})
		if err != nil || len(none) != 0 {
			t.Fatalf("finished sessions with filter: %v %v", none, err)
		}
	})
}
