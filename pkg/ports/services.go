package ports

import (
	"context"

	"github.com/aretw0/bartender/pkg/domain"
)

// ImageSearcher finds a picture for a free-text query.
type ImageSearcher interface {
	SearchImage(ctx context.Context, query string) (string, error)
}

// OrderPublisher announces placed orders (e.g. to the bar's ticket queue).
type OrderPublisher interface {
	PublishOrder(ctx context.Context, event *domain.OrderEvent) error
}
