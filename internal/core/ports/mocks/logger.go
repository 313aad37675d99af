package mocks

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// Logger is a testify mock for ports.Logger. Variadic args are recorded as a
// single []any argument so expectations do not depend on their count.
type Logger struct {
	mock.Mock
}

func (m *Logger) Debugf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *Logger) Infof(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *Logger) Warnf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *Logger) Errorf(ctx context.Context, err error, format string, args ...any) {
	m.Called(ctx, err, format, args)
}

func (m *Logger) WithFields(fields map[string]any) ports.Logger {
	ret := m.Called(fields)
	return ret.Get(0).(ports.Logger)
}

func NewLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *Logger {
	m := &Logger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// NewPermissiveLogger accepts any log call.
func NewPermissiveLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *Logger {
	m := NewLogger(t)
	m.On("WithFields", mock.Anything).Maybe().Return(m)
	m.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Infof", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Warnf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	m.On("Errorf", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	return m
}
