// Package memory is an in-process lead store used by tests, the CLI simulator
// and STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
)

const defaultListLimit = 100

type Store struct {
	mu       sync.RWMutex
	leads    map[string]domain.Lead
	sessions map[string]domain.ConversationSession
}

func New() *Store {
	return &Store{
		leads:    make(map[string]domain.Lead),
		sessions: make(map[string]domain.ConversationSession),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateLead(_ context.Context, lead domain.Lead, session domain.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = cloneLead(lead)
	s.sessions[session.LeadID] = session.Clone()
	return nil
}

func (s *Store) SaveTurn(_ context.Context, session domain.ConversationSession, lead domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return ports.ErrNotFound
	}
	s.sessions[session.LeadID] = session.Clone()
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (s *Store) LoadSession(_ context.Context, leadID string) (domain.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[leadID]
	if !ok {
		return domain.ConversationSession{}, ports.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *Store) GetLead(_ context.Context, id string) (domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, ports.ErrNotFound
	}
	return cloneLead(lead), nil
}

func (s *Store) FindLatestLeadByPhone(_ context.Context, phone string) (domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest domain.Lead
		found  bool
	)
	for _, lead := range s.leads {
		if lead.Phone != phone {
			continue
		}
		if !found || lead.CreatedAt.After(latest.CreatedAt) {
			latest, found = lead, true
		}
	}
	if !found {
		return domain.Lead{}, ports.ErrNotFound
	}
	return cloneLead(latest), nil
}

func (s *Store) ListLeads(_ context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if matches(lead, filter) {
			out = append(out, cloneLead(lead))
		}
	}
	slices.SortFunc(out, func(a, b domain.Lead) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return limit(out, filter.Limit), nil
}

func (s *Store) UpdateLead(_ context.Context, lead domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return ports.ErrNotFound
	}
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (s *Store) ListFinishedSessions(_ context.Context, filter domain.LeadFilter) ([]domain.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConversationSession, 0)
	for id, session := range s.sessions {
		if !session.IsTerminal() {
			continue
		}
		if lead, ok := s.leads[id]; !ok || !matches(lead, filter) {
			continue
		}
		out = append(out, session.Clone())
	}
	slices.SortFunc(out, func(a, b domain.ConversationSession) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return limit(out, filter.Limit), nil
}

func matches(lead domain.Lead, filter domain.LeadFilter) bool {
	if filter.Classification != "" && lead.Classification != filter.Classification {
		return false
	}
	if filter.Source != "" && lead.Source != filter.Source {
		return false
	}
	return true
}

func limit[T any](items []T, n int) []T {
	if n <= 0 {
		n = defaultListLimit
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func cloneLead(l domain.Lead) domain.Lead {
	if l.Score != nil {
		v := *l.Score
		l.Score = &v
	}
	return l
}

var _ ports.Store = (*Store)(nil)
