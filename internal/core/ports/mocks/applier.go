package mocks

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type SpecApplier struct {
	mock.Mock
}

func (m *SpecApplier) Type() string {
	return m.Called().String(0)
}

func (m *SpecApplier) Apply(ctx context.Context, desired domain.DesiredState) error {
	return m.Called(ctx, desired).Error(0)
}

func (m *SpecApplier) Teardown(ctx context.Context, appName string, resources []string) error {
	return m.Called(ctx, appName, resources).Error(0)
}

type Reporter struct {
	mock.Mock
}

func (m *Reporter) Report(ctx context.Context, outcomes []domain.Outcome) error {
	return m.Called(ctx, outcomes).Error(0)
}
