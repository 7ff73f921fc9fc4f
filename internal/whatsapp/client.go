// Package whatsapp relays the bot's replies for one conversation turn to a
// lead's WhatsApp number through a GOWA gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/phone"
)

const (
	sendPath       = "/send/message"
	gatewayTimeout = 10 * time.Second
	// Separates the replies of one turn inside a single chat bubble.
	replySeparator = "\n\n"
	maxErrorBody   = 512
)

// Client posts reply batches to the gateway. A nil *Client drops every batch.
type Client struct {
	endpoint string
	auth     string
	deviceID string
	region   string
	http     *http.Client
	log      *logger.Logger
}

// replyBatch is the GOWA send payload carrying one turn's replies.
type replyBatch struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway URL is configured.
func NewClient(cfg config.WhatsAppConfig, region string, log *logger.Logger) *Client {
	base := strings.TrimRight(cfg.GetWhatsAppURL(), "/")
	if base == "" {
		return nil
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		endpoint: base + sendPath,
		auth:     basicAuth(cfg.GetWhatsAppKey()),
		deviceID: cfg.GetWhatsAppDeviceID(),
		region:   region,
		http:     &http.Client{Timeout: gatewayTimeout},
		log:      log,
	}
}

// SendReplies delivers the bot replies of one turn as a single gateway
// message. Blank replies are skipped and an empty batch sends nothing.
func (c *Client) SendReplies(ctx context.Context, leadPhone string, replies []string) error {
	if c == nil {
		return nil
	}
	batch, ok := c.buildBatch(leadPhone, replies)
	if !ok {
		return nil
	}
	if err := c.post(ctx, batch); err != nil {
		return err
	}
	c.log.Info("whatsapp replies delivered", "phone", batch.Phone, "replies", len(replies))
	return nil
}

func (c *Client) buildBatch(leadPhone string, replies []string) (replyBatch, bool) {
	parts := make([]string, 0, len(replies))
	for _, r := range replies {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return replyBatch{}, false
	}
	return replyBatch{
		Phone:   strings.TrimPrefix(phone.NormalizeE164(leadPhone, c.region), "+"),
		Message: strings.Join(parts, replySeparator),
	}, true
}

func (c *Client) post(ctx context.Context, batch replyBatch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode reply batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reach whatsapp gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("whatsapp gateway rejected batch (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// basicAuth accepts either "user:pass" or a ready "Basic ..." header value.
func basicAuth(key string) string {
	switch {
	case key == "":
		return ""
	case strings.HasPrefix(strings.ToLower(key), "basic "):
		return key
	default:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(key))
	}
}
