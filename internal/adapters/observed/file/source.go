// Package file reads the observed workload from the snapshot written by the
// file applier.
package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/snapshot"
	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const SourceTypeFile = "file"

type Source struct {
	dir    string
	logger ports.Logger
}

var _ ports.ObservedStateSource = (*Source)(nil)

func NewSource(dir string, logger ports.Logger) (*Source, error) {
	if dir == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "observed state directory cannot be empty", "Set apply.dir in the configuration.")
	}
	return &Source{dir: dir, logger: logger.WithFields(map[string]any{"component": "file_observed", "dir": dir})}, nil
}

func (s *Source) Type() string {
	return SourceTypeFile
}

func (s *Source) Observe(ctx context.Context, appName string) (domain.ObservedState, error) {
	path := filepath.Join(s.dir, appName, snapshot.FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Debugf(ctx, "No snapshot at %s, workload is absent", path)
		return domain.ObservedState{}, nil
	}
	if err != nil {
		return domain.ObservedState{}, errors.Wrap(err, errors.CodeObservedReadError, "failed to read workload snapshot").WithDetails("path=%s", path)
	}
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return domain.ObservedState{}, err
	}
	return snap.Observed(), nil
}
