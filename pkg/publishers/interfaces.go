package publishers

import (
	"context"

	"github.com/ixtj-dev/daily-product-news/internal/domain"
)

// Publisher delivers a finished note to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, payload domain.PublishPayload) error
}
