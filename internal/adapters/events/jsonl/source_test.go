package jsonl

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports/mocks"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

func fromString(t *testing.T, content string) *Source {
	t.Helper()
	s, err := NewSource("events.jsonl", mocks.NewPermissiveLogger(t))
	require.NoError(t, err)
	s.open = func(string) (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil }
	return s
}

func collect(t *testing.T, s *Source) ([]domain.Event, error) {
	t.Helper()
	out := make(chan domain.Event, 16)
	err := s.Events(context.Background(), out)
	close(out)
	var events []domain.Event
	for e := range out {
		events = append(events, e)
	}
	return events, err
}

func TestEvents(t *testing.T) {
	s := fromString(t, `{"kind":"install","id":"1"}

# operator replay
{"kind":"relation-changed","relation":{"name":"redis","remote_unit":"redis/1","data":{"ingress-address":"10.0.0.5"}}}
{"kind":"update-status"}
`)

	events, err := collect(t, s)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.Event{Kind: domain.EventInstalled, ID: "1"}, events[0])
	assert.Equal(t, domain.EventRelationChanged, events[1].Kind)
	assert.Equal(t, "redis/1", events[1].Relation.RemoteUnit)
	assert.Equal(t, "10.0.0.5", events[1].Relation.Data["ingress-address"])
	assert.Equal(t, domain.EventUpdateStatus, events[2].Kind)
}

func TestEvents_HookNames(t *testing.T) {
	s := fromString(t, `{"kind":"redis-peers-relation-joined","relation":{"remote_unit":"redis/2"}}
{"kind":"redis-peers-relation-broken"}
{"kind":"leader-settings-changed"}
`)

	events, err := collect(t, s)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventRelationChanged, events[0].Kind)
	assert.Equal(t, &domain.RelationPayload{Name: "redis-peers", RemoteUnit: "redis/2"}, events[0].Relation)
	assert.Equal(t, domain.EventRelationBroken, events[1].Kind)
	assert.Equal(t, domain.EventLeaderSettingsChanged, events[2].Kind)
}

func TestEvents_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		details string
	}{
		{"bad json", "{\"kind\":\"install\"}\n{\"kind\":", "line=2"},
		{"missing kind", "{\"id\":\"x\"}", "line=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect(t, fromString(t, tt.content))

			require.Error(t, err)
			assert.Equal(t, errors.CodeEventSourceError, errors.GetCode(err))
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.details, appErr.InternalDetails)
		})
	}
}

func TestEvents_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"kind\":\"start\"}\n"), 0o600))
	s, err := NewSource(path, mocks.NewPermissiveLogger(t))
	require.NoError(t, err)

	events, err := collect(t, s)

	require.NoError(t, err)
	assert.Equal(t, []domain.Event{{Kind: domain.EventStarted}}, events)
}

func TestEvents_MissingFile(t *testing.T) {
	s, err := NewSource(filepath.Join(t.TempDir(), "absent.jsonl"), mocks.NewPermissiveLogger(t))
	require.NoError(t, err)

	_, err = collect(t, s)

	assert.Equal(t, errors.CodeEventSourceError, errors.GetCode(err))
}

func TestEvents_Cancelled(t *testing.T) {
	s := fromString(t, "{\"kind\":\"start\"}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Events(ctx, make(chan domain.Event))

	assert.ErrorIs(t, err, context.Canceled)
}
