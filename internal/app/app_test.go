package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/events/hookenv"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/events/jsonl"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/snapshot"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/log"
)

type workspace struct {
	dir     string
	options string
	state   string
}

func newWorkspace(t *testing.T, options string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{dir: dir, options: filepath.Join(dir, "options.yaml"), state: filepath.Join(dir, "state")}
	require.NoError(t, os.WriteFile(ws.options, []byte(options), 0o600))
	return ws
}

func (ws workspace) viper(settings map[string]any) *viper.Viper {
	v := viper.New()
	v.Set("charm.application", "redis")
	v.Set("charm.leader", true)
	v.Set("charm.options.path", ws.options)
	v.Set("apply.dir", ws.state)
	v.Set("settings.reporter", "json")
	for k, val := range settings {
		v.Set(k, val)
	}
	return v
}

func build(t *testing.T, v *viper.Viper, opts ...Option) (*Application, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithLogOutput(io.Discard)}, opts...)
	application, err := BuildApplicationFromViper(context.Background(), v, opts...)
	require.NoError(t, err)
	return application, &out
}

func TestBuildApplication_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantCode errors.Code
	}{
		{"bad reporter", map[string]any{"settings.reporter": "xml"}, errors.CodeConfigValidation},
		{"bad options type", map[string]any{"charm.options.type": "toml"}, errors.CodeConfigValidation},
		{"bad log format", map[string]any{"settings.log_format": "xml"}, errors.CodeConfigValidation},
		{"bad override", map[string]any{"set": "replicas=3"}, errors.CodeConfigValidation},
		{"kubernetes without namespace", map[string]any{"apply.type": "kubernetes"}, errors.CodeConfigValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t, "image: redis:6.0\n")

			_, err := BuildApplicationFromViper(context.Background(), ws.viper(tt.settings), WithLogOutput(io.Discard))

			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestRun_ApplyThenNoOp(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\nport: 6379\n")
	application, out := build(t, ws.viper(nil))
	events := filepath.Join(ws.dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte("{\"kind\":\"install\"}\n{\"kind\":\"config-changed\"}\n"), 0o600))
	source, err := jsonl.NewSource(events, log.Discard())
	require.NoError(t, err)

	require.NoError(t, application.Run(context.Background(), source))

	assert.Contains(t, out.String(), `"applied": 1`)
	assert.Contains(t, out.String(), `"no_op": 1`)
	_, err = os.Stat(filepath.Join(ws.state, "redis", snapshot.PodSpecFile))
	assert.NoError(t, err)
}

func TestRun_OverridesAndBlockedConfig(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\n")
	application, out := build(t, ws.viper(map[string]any{"set": "port=99999"}))
	source := hookenv.NewSource(hookenv.Options{Event: "config-changed"}, log.Discard())

	require.NoError(t, application.Run(context.Background(), source))

	assert.Contains(t, out.String(), `"blocked": 1`)
	assert.Contains(t, out.String(), "invalid port")
	_, err := os.Stat(filepath.Join(ws.state, "redis"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingOptionsFileFails(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\n")
	require.NoError(t, os.Remove(ws.options))
	application, out := build(t, ws.viper(nil))
	source := hookenv.NewSource(hookenv.Options{Event: "start"}, log.Discard())

	err := application.Run(context.Background(), source)

	assert.Equal(t, errors.CodeDispatchError, errors.GetCode(err))
	assert.Contains(t, out.String(), `"errors": 1`)
}

func TestRun_Kubernetes(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\n")
	client := fake.NewSimpleClientset()
	application, _ := build(t, ws.viper(map[string]any{
		"apply.type":      "kubernetes",
		"apply.namespace": "model",
	}), WithKubernetesClient(client))
	source := hookenv.NewSource(hookenv.Options{Event: "start"}, log.Discard())

	require.NoError(t, application.Run(context.Background(), source))

	_, err := client.CoreV1().Services("model").Get(context.Background(), "redis", metav1.GetOptions{})
	assert.NoError(t, err)
	_, err = client.CoreV1().Secrets("model").Get(context.Background(), "redis-charm-state", metav1.GetOptions{})
	assert.NoError(t, err)
	sts, err := client.AppsV1().StatefulSets("model").Get(context.Background(), "redis", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "redis:6.0", sts.Spec.Template.Spec.Containers[0].Image)
}

func TestRender(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\n")
	application, out := build(t, ws.viper(map[string]any{"set": "port=6380"}))

	require.NoError(t, application.Render(context.Background()))

	rendered := out.String()
	assert.Contains(t, rendered, "version: 3")
	assert.Contains(t, rendered, "---\n")
	assert.Contains(t, rendered, "containerPort: 6380")
	assert.Contains(t, rendered, "type: NodePort")
}

func TestRender_InvalidConfig(t *testing.T) {
	ws := newWorkspace(t, "port: 6379\n")
	application, _ := build(t, ws.viper(nil))

	err := application.Render(context.Background())

	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
}

func TestValidate(t *testing.T) {
	ws := newWorkspace(t, "port: 6379\n")
	application, _ := build(t, ws.viper(nil))

	problem, err := application.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Missing configuration: ['image']", problem)

	application, _ = build(t, ws.viper(map[string]any{"set": "image=redis:7"}))
	problem, err = application.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, problem)
}

type fixedLeader struct {
	leader, ok bool
	err        error
}

func (f fixedLeader) Leader(context.Context) (bool, bool, error) { return f.leader, f.ok, f.err }

func TestBuildApplication_LeadershipFromHookContext(t *testing.T) {
	tests := []struct {
		name     string
		detector fixedLeader
		explicit any
		want     string
	}{
		{"leader unit applies", fixedLeader{leader: true, ok: true}, nil, `"applied": 1`},
		{"follower unit waits", fixedLeader{leader: false, ok: true}, nil, `"no_op": 1`},
		{"explicit setting wins", fixedLeader{leader: false, ok: true}, true, `"applied": 1`},
		{"no hook context keeps default", fixedLeader{}, nil, `"no_op": 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t, "image: redis:6.0\n")
			v := viper.New()
			v.Set("charm.application", "redis")
			v.Set("charm.options.path", ws.options)
			v.Set("apply.dir", ws.state)
			v.Set("settings.reporter", "json")
			if tt.explicit != nil {
				v.Set("charm.leader", tt.explicit)
			}
			application, out := build(t, v, WithLeaderDetector(tt.detector))

			require.NoError(t, application.Run(context.Background(), hookenv.NewSource(hookenv.Options{Event: "start"}, log.Discard())))

			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestBuildApplication_LeadershipLookupFails(t *testing.T) {
	ws := newWorkspace(t, "image: redis:6.0\n")
	v := viper.New()
	v.Set("charm.application", "redis")
	v.Set("charm.options.path", ws.options)
	v.Set("apply.dir", ws.state)

	_, err := BuildApplicationFromViper(context.Background(), v,
		WithLogOutput(io.Discard),
		WithLeaderDetector(fixedLeader{err: errors.New(errors.CodeConfigReadError, "is-leader not found")}))

	assert.Equal(t, errors.CodeConfigReadError, errors.GetCode(err))
}
