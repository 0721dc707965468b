package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Domain contains the transient records handed between pipeline steps.

// TitleDateLayout is the ISO calendar date used in published titles.
const TitleDateLayout = "2006-01-02"

// FetchResult is the raw page body returned by the fetcher.
type FetchResult struct {
	HTML string `json:"html"`
}

// JSON serializes the result as {"html":"..."} without HTML escaping or a
// trailing newline.
func (r FetchResult) JSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("encode fetch result: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// GeneratedContent is the model output, forwarded verbatim.
type GeneratedContent string

// PublishPayload is the webhook body.
type PublishPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Title builds "<prefix> - YYYY-MM-DD" from the UTC date of now.
func Title(prefix string, now time.Time) string {
	return fmt.Sprintf("%s - %s", prefix, now.UTC().Format(TitleDateLayout))
}

// NewPayload pairs a dated title with the generated body.
func NewPayload(prefix string, now time.Time, body GeneratedContent) PublishPayload {
	return PublishPayload{
		Title: Title(prefix, now),
		Body:  string(body),
	}
}
