package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ixtj-dev/daily-product-news/internal/config"
	"github.com/ixtj-dev/daily-product-news/internal/domain"
	"github.com/ixtj-dev/daily-product-news/internal/logger"
	"github.com/ixtj-dev/daily-product-news/internal/prompt"
	"github.com/ixtj-dev/daily-product-news/internal/scraper"
	"github.com/ixtj-dev/daily-product-news/internal/summarizer"
	"github.com/ixtj-dev/daily-product-news/pkg/httpclient"
	"github.com/ixtj-dev/daily-product-news/pkg/publishers"
)

// DefaultTitlePrefix precedes the ISO date in every note title.
const DefaultTitlePrefix = "Daily Product News"

// Pipeline runs fetch, summarize and publish once, in that order.
type Pipeline struct {
	targetURL   string
	titlePrefix string
	fetcher     PageFetcher
	summarizer  ContentSummarizer
	publisher   publishers.Publisher
	now         func() time.Time
	log         logger.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for the note title.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline assembles a pipeline from explicit components.
func NewPipeline(targetURL, titlePrefix string, f PageFetcher, s ContentSummarizer, pub publishers.Publisher, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if f == nil || s == nil || pub == nil {
		return nil, fmt.Errorf("pipeline requires fetcher, summarizer and publisher")
	}
	if targetURL == "" {
		return nil, fmt.Errorf("target url must not be empty")
	}
	if titlePrefix == "" {
		titlePrefix = DefaultTitlePrefix
	}
	p := &Pipeline{
		targetURL:   targetURL,
		titlePrefix: titlePrefix,
		fetcher:     f,
		summarizer:  s,
		publisher:   pub,
		now:         time.Now,
		log:         logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// New builds the production pipeline from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	tmpl, err := prompt.Load(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	client := httpclient.NewRestyClient(cfg.HTTPTimeout)

	fetcher := scraper.New(client, scraper.Options{
		UserAgent:      cfg.FetchUserAgent,
		AcceptLanguage: cfg.FetchAcceptLanguage,
		StripScripts:   cfg.FetchStripScripts,
	}, log)

	sum, err := summarizer.New(ctx, summarizer.Options{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
		Timeout:  cfg.HTTPTimeout,
	}, tmpl, log)
	if err != nil {
		return nil, fmt.Errorf("init summarizer: %w", err)
	}

	pub, err := publishers.NewWebhookPublisher(publishers.WebhookConfig{
		BaseURL:  cfg.SlashpageWebhookBase,
		NotePath: cfg.SlashpageNotePath,
		APIKey:   cfg.SlashpageAPIKey,
	}, client, log)
	if err != nil {
		return nil, fmt.Errorf("init publisher: %w", err)
	}

	log.InfoObj("pipeline initialized", "pipeline_config", map[string]any{
		"target_url": cfg.TargetURL,
		"model":      sum.Model(),
		"prompt":     tmpl.Name(),
	})

	return NewPipeline(cfg.TargetURL, cfg.TitlePrefix, fetcher, sum, pub, log, opts...)
}

// Run executes the three steps and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) error {
	if p == nil || p.fetcher == nil {
		return fmt.Errorf("pipeline is not initialized")
	}
	start := time.Now()

	page, err := p.fetcher.Fetch(ctx, p.targetURL)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	body, err := p.summarizer.Summarize(ctx, page)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	payload := domain.NewPayload(p.titlePrefix, p.now(), body)
	if err := p.publisher.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	p.log.InfoObj("run completed", "run_meta", map[string]any{
		"title":      payload.Title,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// ExitCode maps a run outcome to the process status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
