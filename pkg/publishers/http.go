package publishers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ixtj-dev/daily-product-news/internal/domain"
	"github.com/ixtj-dev/daily-product-news/internal/logger"
	"github.com/ixtj-dev/daily-product-news/pkg/httpclient"
)

const (
	DefaultWebhookBase = "https://slashpage.com/api-webhook/note"
	DefaultNotePath    = "ixtj-dev/1q3vdn2pjv43p2xy49pr"

	redactedSegment = "REDACTED"
)

// PublishError reports a failed webhook delivery. For non-2xx responses Body
// holds the full response text as received.
type PublishError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Failed to publish to %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("Failed to publish: %d %s - %s", e.StatusCode, e.Status, strings.TrimSpace(e.Body))
}

func (e *PublishError) Unwrap() error { return e.Err }

// WebhookConfig locates the Slashpage note webhook.
type WebhookConfig struct {
	BaseURL  string
	NotePath string
	APIKey   string
}

// URL returns the full webhook URL, credential included.
func (c WebhookConfig) URL() string {
	return c.build(url.PathEscape(c.APIKey))
}

// RedactedURL is the webhook URL with the credential masked, for logs and errors.
func (c WebhookConfig) RedactedURL() string {
	return c.build(redactedSegment)
}

func (c WebhookConfig) build(last string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultWebhookBase
	}
	notePath := strings.Trim(strings.TrimSpace(c.NotePath), "/")
	if notePath == "" {
		notePath = DefaultNotePath
	}
	return base + "/" + notePath + "/" + last
}

var _ Publisher = (*WebhookPublisher)(nil)

// WebhookPublisher posts notes to the Slashpage webhook.
type WebhookPublisher struct {
	cfg    WebhookConfig
	client httpclient.Client
	log    logger.Logger
}

// NewWebhookPublisher validates cfg and builds a publisher.
func NewWebhookPublisher(cfg WebhookConfig, client httpclient.Client, log logger.Logger) (*WebhookPublisher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("slashpage api key is empty")
	}
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &WebhookPublisher{cfg: cfg, client: client, log: logger.Ensure(log)}, nil
}

// Publish sends {"title","body"} as JSON in a single POST.
func (h *WebhookPublisher) Publish(ctx context.Context, payload domain.PublishPayload) error {
	target := h.cfg.RedactedURL()
	h.log.InfoObj("publishing note", "publish_meta", map[string]any{
		"url":   target,
		"title": payload.Title,
	})

	body, err := encodePayload(payload)
	if err != nil {
		return &PublishError{URL: target, Err: err}
	}

	headers := map[string]string{"Content-Type": "application/json"}
	resp, err := h.client.Post(ctx, h.cfg.URL(), headers, body)
	if err != nil {
		return &PublishError{URL: target, Err: scrubKey(err, h.cfg.APIKey)}
	}
	if !httpclient.IsSuccess(resp.StatusCode()) {
		return &PublishError{
			URL:        target,
			StatusCode: resp.StatusCode(),
			Status:     http.StatusText(resp.StatusCode()),
			Body:       string(resp.Body()),
		}
	}

	h.log.InfoObj("published successfully", "publish_result", map[string]any{
		"status": resp.StatusCode(),
		"title":  payload.Title,
	})
	return nil
}

func encodePayload(payload domain.PublishPayload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// scrubKey keeps the credential out of transport errors, which usually quote the URL.
func scrubKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &scrubbedError{msg: strings.ReplaceAll(err.Error(), key, redactedSegment), err: err}
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }
