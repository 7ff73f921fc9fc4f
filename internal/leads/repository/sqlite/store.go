// Package sqlite is a single-file lead store for single-node deployments and
// the operator CLI.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"

	_ "modernc.org/sqlite"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

const leadColumns = `id, name, phone, email, source, initial_message, classification, score, metadata, created_at, updated_at`

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    phone           TEXT NOT NULL,
    email           TEXT NOT NULL DEFAULT '',
    source          TEXT NOT NULL DEFAULT 'website',
    initial_message TEXT NOT NULL DEFAULT '',
    classification  TEXT NOT NULL DEFAULT 'Pending',
    score           INTEGER,
    metadata        TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_classification ON leads(classification);
CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone, created_at);

CREATE TABLE IF NOT EXISTS conversation_sessions (
    lead_id    TEXT PRIMARY KEY REFERENCES leads(id) ON DELETE CASCADE,
    status     TEXT NOT NULL DEFAULT 'active',
    document   TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_sessions_status ON conversation_sessions(status);
`

// Store implements ports.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps SaveTurn transactions from failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateLead(ctx context.Context, lead domain.Lead, session domain.ConversationSession) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		metadata, err := json.Marshal(lead.Metadata)
		if err != nil {
			return fmt.Errorf("encode lead metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO leads(`+leadColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			lead.ID, lead.Name, lead.Phone, lead.Email, lead.Source, lead.InitialMessage,
			string(lead.Classification), nullScore(lead.Score), string(metadata),
			formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt)); err != nil {
			return err
		}
		return upsertSession(ctx, tx, session)
	})
}

func (s *Store) SaveTurn(ctx context.Context, session domain.ConversationSession, lead domain.Lead) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateLead(ctx, tx, lead); err != nil {
			return err
		}
		return upsertSession(ctx, tx, session)
	})
}

func (s *Store) LoadSession(ctx context.Context, leadID string) (domain.ConversationSession, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM conversation_sessions WHERE lead_id = ?`, leadID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ConversationSession{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.ConversationSession{}, err
	}
	return decodeSession(doc)
}

func (s *Store) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	lead, err := scanLead(s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ports.ErrNotFound
	}
	return lead, err
}

func (s *Store) FindLatestLeadByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	lead, err := scanLead(s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone = ? ORDER BY created_at DESC LIMIT 1`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ports.ErrNotFound
	}
	return lead, err
}

func (s *Store) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	where, args := filterClause(filter)
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads l `+where+` ORDER BY created_at DESC LIMIT ?`, args...)
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
	return leads, rows.Err()
}

func (s *Store) UpdateLead(ctx context.Context, lead domain.Lead) error {
	return updateLead(ctx, s.db, lead)
}

func (s *Store) ListFinishedSessions(ctx context.Context, filter domain.LeadFilter) ([]domain.ConversationSession, error) {
	where, args := filterClause(filter)
	if where == "" {
		where = "WHERE "
	} else {
		where += " AND "
	}
	where += "s.status IN ('complete', 'escalated')"
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.document
		FROM conversation_sessions s
		JOIN leads l ON l.id = s.lead_id
		`+where+`
		ORDER BY s.updated_at ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.ConversationSession, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		session, err := decodeSession(doc)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func upsertSession(ctx context.Context, db execer, session domain.ConversationSession) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO conversation_sessions(lead_id, status, document, created_at, updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(lead_id) DO UPDATE
		SET status = excluded.status, document = excluded.document, updated_at = excluded.updated_at`,
		session.LeadID, string(session.Status), string(doc), formatTime(session.CreatedAt), formatTime(session.UpdatedAt))
	return err
}

func updateLead(ctx context.Context, db execer, lead domain.Lead) error {
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("encode lead metadata: %w", err)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE leads
		SET name = ?, phone = ?, email = ?, classification = ?, score = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		lead.Name, lead.Phone, lead.Email, string(lead.Classification), nullScore(lead.Score),
		string(metadata), formatTime(lead.UpdatedAt), lead.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanLead(row scanner) (domain.Lead, error) {
	var (
		lead                 domain.Lead
		classification       string
		score                sql.NullInt64
		metadata             string
		createdAt, updatedAt string
	)
	if err := row.Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Source, &lead.InitialMessage,
		&classification, &score, &metadata, &createdAt, &updatedAt); err != nil {
		return domain.Lead{}, err
	}
	lead.Classification = domain.Classification(classification)
	if score.Valid {
		v := int(score.Int64)
		lead.Score = &v
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &lead.Metadata); err != nil {
			return domain.Lead{}, fmt.Errorf("decode lead metadata: %w", err)
		}
	}
	var err error
	if lead.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Lead{}, err
	}
	if lead.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func decodeSession(doc string) (domain.ConversationSession, error) {
	var session domain.ConversationSession
	if err := json.Unmarshal([]byte(doc), &session); err != nil {
		return domain.ConversationSession{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func filterClause(filter domain.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Classification != "" {
		conds = append(conds, "l.classification = ?")
		args = append(args, string(filter.Classification))
	}
	if filter.Source != "" {
		conds = append(conds, "l.source = ?")
		args = append(args, filter.Source)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func nullScore(score *int) sql.NullInt64 {
	if score == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*score), Valid: true}
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

var _ ports.Store = (*Store)(nil)
