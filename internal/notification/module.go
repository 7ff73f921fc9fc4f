// Package notification provides event handlers for sending notifications
// in response to lead domain events.
// This module subscribes to events and inverts the dependency: the leads
// module never needs to know about SMTP, the WhatsApp gateway or MinIO.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadbot_backend/internal/email"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/platform/logger"
)

const (
	transcriptContentType = "application/json"
	transcriptTimeLayout  = "20060102T150405Z"
	handlerTimeout        = 30 * time.Second
)

// WhatsAppSender delivers the bot replies of one turn as a single batch.
type WhatsAppSender interface {
	SendReplies(ctx context.Context, phoneNumber string, replies []string) error
}

// ObjectWriter stores transcript archives.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender     email.Sender
	alertEmail string
	baseURL    string
	whatsapp   WhatsAppSender
	archive    ObjectWriter
	bucket     string
	log        *logger.Logger
}

// New creates the notification module. sender may be email.NoopSender when
// SMTP is not configured.
func New(sender email.Sender, alertEmail, baseURL string, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Module{
		sender:     sender,
		alertEmail: strings.TrimSpace(alertEmail),
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// SetWhatsAppSender enables forwarding bot messages to WhatsApp leads.
func (m *Module) SetWhatsAppSender(sender WhatsAppSender) { m.whatsapp = sender }

// SetTranscriptArchive enables archiving finished conversations to bucket.
func (m *Module) SetTranscriptArchive(archive ObjectWriter, bucket string) {
	m.archive = archive
	m.bucket = bucket
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ConversationStarted{}.EventName(), m)
	bus.Subscribe(events.TurnProcessed{}.EventName(), m)
	bus.Subscribe(events.ConversationFinished{}.EventName(), m)
	bus.Subscribe(events.LeadClassified{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method. Delivery failures
// are logged and never returned: a lead's conversation must not depend on
// the sales team's mailbox.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	var err error
	switch e := event.(type) {
	case events.ConversationStarted:
		err = m.forwardToWhatsApp(ctx, e.Source, e.Phone, e.BotMessages)
	case events.TurnProcessed:
		err = m.forwardToWhatsApp(ctx, e.Source, e.Phone, e.BotMessages)
	case events.ConversationFinished:
		err = m.archiveTranscript(ctx, e)
	case events.LeadClassified:
		err = m.handleLeadClassified(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}

	if err != nil {
		m.log.WithContext(ctx).Error("notification failed", "event", event.EventName(), "error", err)
	}
	return nil
}

func (m *Module) forwardToWhatsApp(ctx context.Context, source, phone string, messages []domain.Message) error {
	if m.whatsapp == nil || source != domain.SourceWhatsApp || phone == "" {
		return nil
	}
	replies := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Sender == domain.SenderBot {
			replies = append(replies, msg.Text)
		}
	}
	if len(replies) == 0 {
		return nil
	}
	if err := m.whatsapp.SendReplies(ctx, phone, replies); err != nil {
		return fmt.Errorf("forward %d bot replies: %w", len(replies), err)
	}
	return nil
}

func (m *Module) handleLeadClassified(ctx context.Context, e events.LeadClassified) error {
	if e.Result.Classification != domain.ClassificationHot || m.alertEmail == "" {
		return nil
	}

	lead := e.Lead
	profile := lead.Metadata.Profile
	alert := email.HotLeadAlert{
		LeadName:     lead.Name,
		Phone:        lead.Phone,
		Source:       lead.Source,
		Score:        e.Result.Score,
		Location:     profile.Location,
		PropertyType: profile.PropertyType,
		BudgetAmount: profile.BudgetAmount,
		Budget:       profile.Budget,
		Timeline:     profile.Timeline,
		Rationale:    e.Result.Rationale,
	}
	if m.baseURL != "" {
		alert.DashboardURL = m.baseURL + "/leads/" + lead.ID
	}

	if err := m.sender.SendHotLeadAlert(ctx, m.alertEmail, alert); err != nil {
		return fmt.Errorf("hot lead alert for %s: %w", lead.ID, err)
	}
	m.log.Info("hot lead alert sent", "leadId", lead.ID)
	return nil
}

func (m *Module) archiveTranscript(ctx context.Context, e events.ConversationFinished) error {
	if m.archive == nil {
		return nil
	}

	data, err := json.Marshal(e.Session)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	key := TranscriptKey(e.LeadID, e.OccurredAt())
	if err := m.archive.PutObject(ctx, m.bucket, key, transcriptContentType, data); err != nil {
		return fmt.Errorf("archive transcript %s: %w", key, err)
	}
	return nil
}

// TranscriptKey is the object key of a transcript archived at t.
func TranscriptKey(leadID string, t time.Time) string {
	return leadID + "/" + t.UTC().Format(transcriptTimeLayout) + ".json"
}
