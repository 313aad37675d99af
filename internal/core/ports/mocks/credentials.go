package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ImageCredentialsProvider struct {
	mock.Mock
}

func (m *ImageCredentialsProvider) Type() string {
	return m.Called().String(0)
}

func (m *ImageCredentialsProvider) Supports(registryPath string) bool {
	return m.Called(registryPath).Bool(0)
}

func (m *ImageCredentialsProvider) Credentials(ctx context.Context, registryPath string) (string, string, error) {
	ret := m.Called(ctx, registryPath)
	return ret.String(0), ret.String(1), ret.Error(2)
}

type ReadinessProbe struct {
	mock.Mock
}

func (m *ReadinessProbe) Ready(ctx context.Context, host string, port int) bool {
	return m.Called(ctx, host, port).Bool(0)
}
