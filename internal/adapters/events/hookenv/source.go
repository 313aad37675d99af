// Package hookenv turns the hook environment of a single charm dispatch into
// a lifecycle event.
package hookenv

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const (
	SourceTypeHookEnv = "hookenv"

	EnvDispatchPath = "JUJU_DISPATCH_PATH"
	EnvHookName     = "JUJU_HOOK_NAME"
	EnvRelation     = "JUJU_RELATION"
	EnvRelationID   = "JUJU_RELATION_ID"
	EnvRemoteUnit   = "JUJU_REMOTE_UNIT"
	EnvContextID    = "JUJU_CONTEXT_ID"
)

// Options override what the environment says. Event wins over the hook
// variables; RelationData is attached to relation events only.
type Options struct {
	Event        string
	RemoteUnit   string
	RelationData map[string]string
}

type Source struct {
	opts   Options
	getenv func(string) string
	logger ports.Logger
}

var _ ports.EventSource = (*Source)(nil)

func NewSource(opts Options, logger ports.Logger) *Source {
	return &Source{opts: opts, getenv: os.Getenv, logger: logger.WithFields(map[string]any{"component": "hookenv_events"})}
}

func (s *Source) Type() string {
	return SourceTypeHookEnv
}

func (s *Source) Events(ctx context.Context, out chan<- domain.Event) error {
	event, err := s.Event()
	if err != nil {
		return err
	}
	s.logger.Debugf(ctx, "Delivering %s event", event.Kind)
	select {
	case out <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Event builds the single event this dispatch represents.
func (s *Source) Event() (domain.Event, error) {
	hook := s.hookName()
	if hook == "" {
		return domain.Event{}, errors.NewUserFacing(errors.CodeEventSourceError, "no hook to dispatch",
			"Run under the charm dispatcher or pass --event.")
	}

	kind, relationName := domain.HookKind(hook)
	if env := s.getenv(EnvRelation); env != "" {
		relationName = env
	}

	event := domain.Event{Kind: kind, ID: s.getenv(EnvContextID)}
	if kind.IsRelation() {
		remote := s.opts.RemoteUnit
		if remote == "" {
			remote = s.getenv(EnvRemoteUnit)
		}
		event.Relation = &domain.RelationPayload{
			Name:       relationName,
			RemoteUnit: remote,
			Data:       s.opts.RelationData,
		}
	}
	return event, nil
}

func (s *Source) hookName() string {
	if s.opts.Event != "" {
		return s.opts.Event
	}
	if p := s.getenv(EnvDispatchPath); p != "" {
		return path.Base(p)
	}
	return s.getenv(EnvHookName)
}

// ParseRelationData reads "key=value;key2=value2". Empty segments are skipped.
func ParseRelationData(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	data := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewUserFacing(errors.CodeEventSourceError, "invalid relation data: "+pair,
				"Use key=value pairs separated by ';'.")
		}
		data[key] = strings.TrimSpace(value)
	}
	return data, nil
}
