package ports

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

//go:generate mockery --name ConfigSource --output ./mocks --outpkg mocks --case underscore
type ConfigSource interface {
	Type() string
	Load(ctx context.Context) (domain.CharmOptions, error)
}

//go:generate mockery --name ObservedStateSource --output ./mocks --outpkg mocks --case underscore
type ObservedStateSource interface {
	Type() string
	// Observe returns a zero ObservedState when no workload has been applied yet.
	Observe(ctx context.Context, appName string) (domain.ObservedState, error)
}

//go:generate mockery --name RelationSource --output ./mocks --outpkg mocks --case underscore
type RelationSource interface {
	Type() string
	Peers(ctx context.Context) ([]domain.Peer, error)
}

// RelationRecorder is implemented by relation sources that keep their own copy
// of relation data between deliveries.
type RelationRecorder interface {
	Record(ctx context.Context, event domain.Event) error
}

// EventSource sends events to out in delivery order and returns once the
// source is exhausted. The caller owns out and closes it.
type EventSource interface {
	Type() string
	Events(ctx context.Context, out chan<- domain.Event) error
}
