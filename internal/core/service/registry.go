package service

import (
	"fmt"
	"sync"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

type typed interface {
	Type() string
}

// ComponentRegistry holds the adapters available to the dispatcher, keyed by type name.
type ComponentRegistry struct {
	mu              sync.RWMutex
	configSources   map[string]ports.ConfigSource
	observedSources map[string]ports.ObservedStateSource
	relationSources map[string]ports.RelationSource
	appliers        map[string]ports.SpecApplier
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		configSources:   make(map[string]ports.ConfigSource),
		observedSources: make(map[string]ports.ObservedStateSource),
		relationSources: make(map[string]ports.RelationSource),
		appliers:        make(map[string]ports.SpecApplier),
	}
}

func register[T typed](mu *sync.RWMutex, into map[string]T, component T, isNil bool, what string) error {
	if isNil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("attempted to register nil %s", what))
	}
	componentType := component.Type()
	if componentType == "" {
		return errors.New(errors.CodeInternal, fmt.Sprintf("%s type cannot be empty", what))
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := into[componentType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("%s type '%s' already registered", what, componentType))
	}
	into[componentType] = component
	return nil
}

func lookup[T any](mu *sync.RWMutex, from map[string]T, componentType, what string) (T, error) {
	mu.RLock()
	defer mu.RUnlock()

	component, exists := from[componentType]
	if !exists {
		var zero T
		return zero, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("%s type '%s' not found", what, componentType),
			fmt.Sprintf("Choose one of the registered %s types.", what))
	}
	return component, nil
}

func (r *ComponentRegistry) RegisterConfigSource(source ports.ConfigSource) error {
	return register(&r.mu, r.configSources, source, source == nil, "config source")
}

func (r *ComponentRegistry) GetConfigSource(sourceType string) (ports.ConfigSource, error) {
	return lookup(&r.mu, r.configSources, sourceType, "config source")
}

func (r *ComponentRegistry) RegisterObservedStateSource(source ports.ObservedStateSource) error {
	return register(&r.mu, r.observedSources, source, source == nil, "observed state source")
}

func (r *ComponentRegistry) GetObservedStateSource(sourceType string) (ports.ObservedStateSource, error) {
	return lookup(&r.mu, r.observedSources, sourceType, "observed state source")
}

func (r *ComponentRegistry) RegisterRelationSource(source ports.RelationSource) error {
	return register(&r.mu, r.relationSources, source, source == nil, "relation source")
}

func (r *ComponentRegistry) GetRelationSource(sourceType string) (ports.RelationSource, error) {
	return lookup(&r.mu, r.relationSources, sourceType, "relation source")
}

func (r *ComponentRegistry) RegisterSpecApplier(applier ports.SpecApplier) error {
	return register(&r.mu, r.appliers, applier, applier == nil, "spec applier")
}

func (r *ComponentRegistry) GetSpecApplier(applierType string) (ports.SpecApplier, error) {
	return lookup(&r.mu, r.appliers, applierType, "spec applier")
}
