// Package email renders and delivers the sales team's lead alerts.
package email

import (
	"context"
	"fmt"
)

// HotLeadAlert is the content of a hot-lead notification.
type HotLeadAlert struct {
	LeadName     string
	Phone        string
	Source       string
	Score        *int
	Location     string
	PropertyType string
	BudgetAmount int64
	Budget       string
	Timeline     string
	Rationale    string
	DashboardURL string
}

type Sender interface {
	SendHotLeadAlert(ctx context.Context, toEmail string, alert HotLeadAlert) error
}

type NoopSender struct{}

func (NoopSender) SendHotLeadAlert(context.Context, string, HotLeadAlert) error {
	return nil
}

func renderHotLeadAlert(alert HotLeadAlert) (subject, content string, err error) {
	score := formatScore(alert.Score)
	budget := formatRupees(alert.BudgetAmount)
	if budget == "" {
		budget = alert.Budget
	}

	content, err = renderEmailTemplate("hot_lead.html", hotLeadEmailData{
		baseEmailData: baseEmailData{
			Title:      "Hot lead",
			Heading:    "New hot lead: " + alert.LeadName,
			Subheading: "Reach out while they are still engaged.",
			CTALabel:   "Open in dashboard",
			CTAURL:     alert.DashboardURL,
		},
		LeadName:     alert.LeadName,
		Phone:        alert.Phone,
		Source:       alert.Source,
		Score:        score,
		Location:     alert.Location,
		PropertyType: alert.PropertyType,
		Budget:       budget,
		Timeline:     alert.Timeline,
		Rationale:    alert.Rationale,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectHotLeadFmt, alert.LeadName, score), content, nil
}
