// Package repository is the PostgreSQL lead store. Sessions are kept as one
// JSONB document per lead next to the leads table.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is ports.ErrNotFound, re-exported for callers that only import
// the repository.
var ErrNotFound = ports.ErrNotFound

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

const leadColumns = `id, name, phone, email, source, initial_message, classification, score, metadata, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Close is a no-op: the pool belongs to the caller.
func (r *Repository) Close() error { return nil }

func (r *Repository) CreateLead(ctx context.Context, lead domain.Lead, session domain.ConversationSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("encode lead metadata: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, lead.ID, lead.Name, lead.Phone, lead.Email, lead.Source, lead.InitialMessage,
		string(lead.Classification), lead.Score, metadata, lead.CreatedAt, lead.UpdatedAt,
	); err != nil {
		return err
	}

	if err := upsertSession(ctx, tx, session); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveTurn writes the session and the lead in one transaction.
func (r *Repository) SaveTurn(ctx context.Context, session domain.ConversationSession, lead domain.Lead) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateLead(ctx, tx, lead); err != nil {
		return err
	}
	if err := upsertSession(ctx, tx, session); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) LoadSession(ctx context.Context, leadID string) (domain.ConversationSession, error) {
	id, err := uuid.Parse(leadID)
	if err != nil {
		return domain.ConversationSession{}, ErrNotFound
	}

	var doc []byte
	err = r.pool.QueryRow(ctx, `SELECT document FROM conversation_sessions WHERE lead_id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ConversationSession{}, ErrNotFound
	}
	if err != nil {
		return domain.ConversationSession{}, err
	}
	return decodeSession(doc)
}

func (r *Repository) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return domain.Lead{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// FindLatestLeadByPhone returns the most recently created lead for phone.
func (r *Repository) FindLatestLeadByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, phone)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	where, args := leadFilterClause(filter, 1)
	args = append(args, clampLimit(filter.Limit))

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		`+where+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *Repository) UpdateLead(ctx context.Context, lead domain.Lead) error {
	return updateLead(ctx, r.pool, lead)
}

// ListFinishedSessions returns terminal sessions whose lead matches filter.
func (r *Repository) ListFinishedSessions(ctx context.Context, filter domain.LeadFilter) ([]domain.ConversationSession, error) {
	where, args := leadFilterClause(filter, 1)
	if where == "" {
		where = "WHERE "
	} else {
		where += " AND "
	}
	where += "s.status IN ('complete', 'escalated')"
	args = append(args, clampLimit(filter.Limit))

	rows, err := r.pool.Query(ctx, `
		SELECT s.document
		FROM conversation_sessions s
		JOIN leads l ON l.id = s.lead_id
		`+where+`
		ORDER BY s.updated_at ASC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.ConversationSession, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		session, err := decodeSession(doc)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertSession(ctx context.Context, db execer, session domain.ConversationSession) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO conversation_sessions (lead_id, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lead_id) DO UPDATE
		SET status = EXCLUDED.status, document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, session.LeadID, string(session.Status), doc, session.CreatedAt, session.UpdatedAt)
	return err
}

func updateLead(ctx context.Context, db execer, lead domain.Lead) error {
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("encode lead metadata: %w", err)
	}
	tag, err := db.Exec(ctx, `
		UPDATE leads
		SET name = $2, phone = $3, email = $4, classification = $5, score = $6, metadata = $7, updated_at = $8
		WHERE id = $1
	`, lead.ID, lead.Name, lead.Phone, lead.Email, string(lead.Classification), lead.Score, metadata, lead.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead           domain.Lead
		id             uuid.UUID
		classification string
		metadata       []byte
	)
	if err := row.Scan(&id, &lead.Name, &lead.Phone, &lead.Email, &lead.Source, &lead.InitialMessage,
		&classification, &lead.Score, &metadata, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return domain.Lead{}, err
	}
	lead.ID = id.String()
	lead.Classification = domain.Classification(classification)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return domain.Lead{}, fmt.Errorf("decode lead metadata: %w", err)
		}
	}
	return lead, nil
}

func decodeSession(doc []byte) (domain.ConversationSession, error) {
	var session domain.ConversationSession
	if err := json.Unmarshal(doc, &session); err != nil {
		return domain.ConversationSession{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// leadFilterClause builds a WHERE clause over the leads table aliased l,
// numbering placeholders from start.
func leadFilterClause(filter domain.LeadFilter, start int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Classification != "" {
		args = append(args, string(filter.Classification))
		conds = append(conds, fmt.Sprintf("l.classification = $%d", start+len(args)-1))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conds = append(conds, fmt.Sprintf("l.source = $%d", start+len(args)-1))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

var _ ports.Store = (*Repository)(nil)
