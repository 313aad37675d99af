package ports

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

// SpecApplier pushes workload specs to the orchestration layer. Implementations
// must be idempotent: applying the same DesiredState twice is harmless.
//
//go:generate mockery --name SpecApplier --output ./mocks --outpkg mocks --case underscore
type SpecApplier interface {
	Type() string
	Apply(ctx context.Context, desired domain.DesiredState) error
	Teardown(ctx context.Context, appName string, resources []string) error
}
