package hookenv

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

// LeaderTool is the hook tool reporting whether the running unit leads.
const LeaderTool = "is-leader"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Leadership struct {
	getenv func(string) string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewLeadership() *Leadership {
	return &Leadership{
		getenv: os.Getenv,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Leader asks the hook tool. ok is false outside a hook context, where the
// tool is unavailable and the caller keeps its configured value.
func (l *Leadership) Leader(ctx context.Context) (leader bool, ok bool, err error) {
	if l.getenv(EnvContextID) == "" {
		return false, false, nil
	}
	out, err := l.run(ctx, LeaderTool, "--format=json")
	if err != nil {
		return false, false, errors.Wrap(err, errors.CodeConfigReadError, "failed to query unit leadership").
			WithDetails("tool=%s", LeaderTool)
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &leader); err != nil {
		return false, false, errors.Wrap(err, errors.CodeConfigParseError, "unexpected leadership output").
			WithDetails("tool=%s output=%q", LeaderTool, string(out))
	}
	return leader, true, nil
}
