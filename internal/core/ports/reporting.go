package ports

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, outcomes []domain.Outcome) error
}
