package exports

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/platform/httpkit"
	"leadbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	defaultTimezone = "UTC"
	maxExportRows   = 1000
	timeLayout      = "2006-01-02 15:04"
)

// LeadLister reads leads for export.
type LeadLister interface {
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
}

// ExportQuery filters the export.
type ExportQuery struct {
	Classification string `form:"classification" validate:"omitempty,oneof=Pending Hot Warm Cold Invalid"`
	Source         string `form:"source" validate:"omitempty,oneof=website whatsapp"`
	Timezone       string `form:"timezone" validate:"omitempty,max=64"`
}

// Handler handles export requests.
type Handler struct {
	leads LeadLister
	val   *validator.Validator
}

// NewHandler creates a new export handler.
func NewHandler(leads LeadLister, val *validator.Validator) *Handler {
	return &Handler{leads: leads, val: val}
}

// ExportLeadsCSV writes the newest leads as CSV, one row per lead.
func (h *Handler) ExportLeadsCSV(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	location, ok := parseTimezone(c, q.Timezone)
	if !ok {
		return
	}

	leads, err := h.leads.ListLeads(c.Request.Context(), domain.LeadFilter{
		Classification: domain.Classification(q.Classification),
		Source:         q.Source,
		Limit:          maxExportRows,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=leads.csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(csvHeaders()); err != nil {
		return
	}
	for _, lead := range leads {
		if err := writer.Write(leadRow(lead, location)); err != nil {
			return
		}
	}
	writer.Flush()
}

// ---- Helpers ----

func csvHeaders() []string {
	return []string{
		"Name",
		"Phone",
		"Source",
		"Classification",
		"Score",
		"Created At",
		"Location",
		"Budget",
		"Timeline",
	}
}

func leadRow(lead domain.Lead, location *time.Location) []string {
	profile := lead.Metadata.Profile
	return []string{
		sanitizeCell(lead.Name),
		sanitizeCell(lead.Phone),
		lead.Source,
		string(lead.Classification),
		formatScore(lead.Score),
		lead.CreatedAt.In(location).Format(timeLayout),
		sanitizeCell(profile.Location),
		sanitizeCell(profile.Budget),
		profile.Timeline,
	}
}

func formatScore(score *int) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(*score)
}

// sanitizeCell neutralises values a spreadsheet would evaluate as a formula.
func sanitizeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		if value[0] == '+' && isPhoneLike(value) {
			return value
		}
		return "'" + value
	}
	return value
}

func isPhoneLike(value string) bool {
	return strings.IndexFunc(value[1:], func(r rune) bool { return r < '0' || r > '9' }) == -1
}

func parseTimezone(c *gin.Context, name string) (*time.Location, bool) {
	tzName := strings.TrimSpace(name)
	if tzName == "" {
		tzName = defaultTimezone
	}
	location, err := time.LoadLocation(tzName)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid timezone", nil)
		return nil, false
	}
	return location, true
}
