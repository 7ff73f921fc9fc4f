package repository

import (
	"context"
	"os"
	"testing"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/ports"
	"leadbot_backend/internal/leads/repository/storetest"
	"leadbot_backend/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runs against a disposable database named by TEST_DATABASE_URL.
func TestRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storetest.Run(t, func(t *testing.T) ports.Store {
		if _, err := pool.Exec(ctx, `TRUNCATE leads CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return New(pool)
	})
}

func TestLeadFilterClause(t *testing.T) {
	where, args := leadFilterClause(domain.LeadFilter{Classification: domain.ClassificationHot, Source: domain.SourceWhatsApp}, 1)
	if where != "WHERE l.classification = $1 AND l.source = $2" || len(args) != 2 {
		t.Fatalf("unexpected clause %q %v", where, args)
	}
	where, args = leadFilterClause(domain.LeadFilter{}, 1)
	if where != "" || len(args) != 0 {
		t.Fatalf("expected empty clause, got %q", where)
	}
	if clampLimit(0) != DefaultListLimit || clampLimit(5000) != MaxListLimit || clampLimit(7) != 7 {
		t.Fatalf("clampLimit")
	}
}
