package app

import (
	"context"

	"github.com/ixtj-dev/daily-product-news/internal/domain"
)

// PageFetcher retrieves the raw target page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (domain.FetchResult, error)
}

// ContentSummarizer turns page content into article text.
type ContentSummarizer interface {
	Summarize(ctx context.Context, content domain.FetchResult) (domain.GeneratedContent, error)
}
