package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ixtj-dev/daily-product-news/internal/domain"
	"github.com/ixtj-dev/daily-product-news/internal/logger"
	"github.com/ixtj-dev/daily-product-news/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
)

// FetchError reports a failed page fetch: either a transport error (Err set)
// or a non-2xx response (StatusCode set).
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("Failed to fetch %s: %d %s", e.URL, e.StatusCode, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options tunes request headers and body handling.
type Options struct {
	UserAgent      string
	AcceptLanguage string
	// StripScripts drops script, style and noscript nodes before the body is returned.
	StripScripts bool
}

// Scraper retrieves the raw body of a single page.
type Scraper struct {
	client httpclient.Client
	opts   Options
	log    logger.Logger
}

// New constructs a scraper with the provided HTTP client.
func New(client httpclient.Client, opts Options, log logger.Logger) *Scraper {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &Scraper{client: client, opts: opts, log: logger.Ensure(log)}
}

// Fetch issues one GET for url and returns the body as text.
func (s *Scraper) Fetch(ctx context.Context, url string) (domain.FetchResult, error) {
	s.log.InfoObj("scraping target", "fetch_meta", map[string]any{"url": url})

	resp, err := s.client.Get(ctx, url, s.headers())
	if err != nil {
		return domain.FetchResult{}, &FetchError{URL: url, Err: err}
	}
	if !httpclient.IsSuccess(resp.StatusCode()) {
		return domain.FetchResult{}, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Status:     http.StatusText(resp.StatusCode()),
		}
	}

	body := resp.Body()
	if s.opts.StripScripts {
		stripped, err := stripNonContent(body)
		if err != nil {
			s.log.WarnObj("script stripping skipped", "fetch_error", map[string]any{
				"url":   url,
				"error": err.Error(),
			})
		} else {
			body = stripped
		}
	}

	s.log.InfoObj("target fetched", "fetch_result", map[string]any{
		"url":        url,
		"status":     resp.StatusCode(),
		"bytes":      len(body),
		"page_title": pageTitle(body),
	})

	return domain.FetchResult{HTML: string(body)}, nil
}

func (s *Scraper) headers() map[string]string {
	headers := make(map[string]string, 2)
	if v := strings.TrimSpace(s.opts.UserAgent); v != "" {
		headers["User-Agent"] = v
	}
	if v := strings.TrimSpace(s.opts.AcceptLanguage); v != "" {
		headers["Accept-Language"] = v
	}
	return headers
}

func stripNonContent(body []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(out), nil
}

// pageTitle is best effort; it only feeds the progress log.
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
