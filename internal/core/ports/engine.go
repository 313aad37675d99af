package ports

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

//go:generate mockery --name Dispatcher --output ./mocks --outpkg mocks --case underscore
type Dispatcher interface {
	Handle(ctx context.Context, event domain.Event) (domain.Outcome, error)
	Run(ctx context.Context, events EventSource) error
}
