package mocks

import (
	"context"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type ConfigSource struct {
	mock.Mock
}

func (m *ConfigSource) Type() string {
	return m.Called().String(0)
}

func (m *ConfigSource) Load(ctx context.Context) (domain.CharmOptions, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(domain.CharmOptions), ret.Error(1)
}

type ObservedStateSource struct {
	mock.Mock
}

func (m *ObservedStateSource) Type() string {
	return m.Called().String(0)
}

func (m *ObservedStateSource) Observe(ctx context.Context, appName string) (domain.ObservedState, error) {
	ret := m.Called(ctx, appName)
	return ret.Get(0).(domain.ObservedState), ret.Error(1)
}

type RelationSource struct {
	mock.Mock
}

func (m *RelationSource) Type() string {
	return m.Called().String(0)
}

func (m *RelationSource) Peers(ctx context.Context) ([]domain.Peer, error) {
	ret := m.Called(ctx)
	var peers []domain.Peer
	if v := ret.Get(0); v != nil {
		peers = v.([]domain.Peer)
	}
	return peers, ret.Error(1)
}

// RecordingRelationSource is a RelationSource that also implements ports.RelationRecorder.
type RecordingRelationSource struct {
	RelationSource
}

func (m *RecordingRelationSource) Record(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}
