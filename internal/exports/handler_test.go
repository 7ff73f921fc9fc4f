package exports

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeLister struct {
	filter domain.LeadFilter
	leads  []domain.Lead
}

func (f *fakeLister) ListLeads(_ context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	f.filter = filter
	return f.leads, nil
}

func newRouter(lister LeadLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/leads.csv", NewHandler(lister, validator.New()).ExportLeadsCSV)
	return r
}

func TestExportLeadsCSV(t *testing.T) {
	score := 11
	lead := domain.Lead{
		Name:           "=HYPERLINK(\"x\")",
		Phone:          "+919876543210",
		Source:         domain.SourceWebsite,
		Classification: domain.ClassificationHot,
		Score:          &score,
		CreatedAt:      time.Date(2026, 5, 1, 6, 30, 0, 0, time.UTC),
	}
	lead.Metadata.Location = "Koramangala, Bangalore"
	lead.Metadata.Budget = "80L"
	lead.Metadata.Timeline = "urgent"
	lister := &fakeLister{leads: []domain.Lead{lead, {Name: "Ravi", Classification: domain.ClassificationInvalid}}}

	rec := httptest.NewRecorder()
	newRouter(lister).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads.csv?classification=Hot&timezone=Asia/Kolkata", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if lister.filter.Classification != domain.ClassificationHot || lister.filter.Limit != maxExportRows {
		t.Fatalf("unexpected filter %+v", lister.filter)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Name" || rows[0][8] != "Timeline" {
		t.Fatalf("unexpected rows %v", rows)
	}
	want := []string{"'=HYPERLINK(\"x\")", "+919876543210", "website", "Hot", "11", "2026-05-01 12:00", "Koramangala, Bangalore", "80L", "urgent"}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Errorf("column %d = %q, want %q", i, rows[1][i], cell)
		}
	}
	if rows[2][4] != "" {
		t.Errorf("invalid lead should have empty score, got %q", rows[2][4])
	}
}

func TestExportLeadsCSVRejectsBadQuery(t *testing.T) {
	r := newRouter(&fakeLister{})
	for _, path := range []string{"/leads.csv?classification=Lukewarm", "/leads.csv?timezone=Mars/Base"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}
