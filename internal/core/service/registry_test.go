package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports/mocks"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

func TestComponentRegistry_ConfigSources(t *testing.T) {
	r := NewComponentRegistry()
	src := &mocks.ConfigSource{}
	src.On("Type").Return("yaml")

	require.NoError(t, r.RegisterConfigSource(src))

	got, err := r.GetConfigSource("yaml")
	require.NoError(t, err)
	assert.Same(t, src, got)

	err = r.RegisterConfigSource(src)
	assert.True(t, errors.Is(err, errors.CodeInternal))

	_, err = r.GetConfigSource("toml")
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}

func TestComponentRegistry_RejectsInvalidComponents(t *testing.T) {
	r := NewComponentRegistry()

	assert.Error(t, r.RegisterSpecApplier(nil))

	unnamed := &mocks.SpecApplier{}
	unnamed.On("Type").Return("")
	assert.Error(t, r.RegisterSpecApplier(unnamed))
}

func TestComponentRegistry_AllKinds(t *testing.T) {
	r := NewComponentRegistry()

	observed := &mocks.ObservedStateSource{}
	observed.On("Type").Return("file")
	relations := &mocks.RelationSource{}
	relations.On("Type").Return("file")
	applier := &mocks.SpecApplier{}
	applier.On("Type").Return("kubernetes")

	require.NoError(t, r.RegisterObservedStateSource(observed))
	require.NoError(t, r.RegisterRelationSource(relations))
	require.NoError(t, r.RegisterSpecApplier(applier))

	gotObserved, err := r.GetObservedStateSource("file")
	require.NoError(t, err)
	assert.Same(t, observed, gotObserved)

	gotRelations, err := r.GetRelationSource("file")
	require.NoError(t, err)
	assert.Same(t, relations, gotRelations)

	gotApplier, err := r.GetSpecApplier("kubernetes")
	require.NoError(t, err)
	assert.Same(t, applier, gotApplier)

	_, err = r.GetSpecApplier("file")
	assert.Error(t, err)
}
