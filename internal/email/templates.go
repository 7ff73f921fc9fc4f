package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type hotLeadEmailData struct {
	baseEmailData
	LeadName     string
	Phone        string
	Source       string
	Score        string
	Location     string
	PropertyType string
	Budget       string
	Timeline     string
	Rationale    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatRupees renders whole rupees using lakh and crore units.
func formatRupees(amount int64) string {
	switch {
	case amount <= 0:
		return ""
	case amount >= 10_000_000:
		return "₹" + trimFloat(float64(amount)/10_000_000) + " Cr"
	case amount >= 100_000:
		return "₹" + trimFloat(float64(amount)/100_000) + " L"
	default:
		return "₹" + strconv.FormatInt(amount, 10)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatScore(score *int) string {
	if score == nil {
		return "n/a"
	}
	return strconv.Itoa(*score)
}
