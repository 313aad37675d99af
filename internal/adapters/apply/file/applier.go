// Package file applies workload specs by writing the rendered pod spec, its
// resources and a snapshot into a per-application directory.
package file

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/olusolaa/redis-k8s-charm/internal/adapters/snapshot"
	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/podspec"
)

const ApplierTypeFile = "file"

type Applier struct {
	dir    string
	logger ports.Logger
	now    func() time.Time
}

var _ ports.SpecApplier = (*Applier)(nil)

func NewApplier(dir string, logger ports.Logger) (*Applier, error) {
	if dir == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "apply directory cannot be empty", "Set apply.dir in the configuration.")
	}
	return &Applier{
		dir:    dir,
		logger: logger.WithFields(map[string]any{"component": "file_applier", "dir": dir}),
		now:    time.Now,
	}, nil
}

func (a *Applier) Type() string {
	return ApplierTypeFile
}

// AppDir is where the documents for appName are written.
func AppDir(dir, appName string) string {
	return filepath.Join(dir, appName)
}

func (a *Applier) Apply(ctx context.Context, desired domain.DesiredState) error {
	spec, err := podspec.Build(desired)
	if err != nil {
		return err
	}
	resources, err := podspec.BuildResources(desired)
	if err != nil {
		return err
	}
	specYAML, err := podspec.Render(spec)
	if err != nil {
		return err
	}
	resourcesYAML, err := podspec.Render(resources)
	if err != nil {
		return err
	}

	appDir := AppDir(a.dir, desired.AppName)
	if err := os.MkdirAll(appDir, 0o700); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to create apply directory").WithDetails("dir=%s", appDir)
	}

	previous, err := a.readSnapshot(appDir)
	if err != nil {
		return err
	}
	snapData, err := snapshot.Marshal(previous.Next(desired, a.now()))
	if err != nil {
		return err
	}

	// snapshot last: it is what marks the spec as applied
	for _, doc := range []struct {
		name string
		data []byte
	}{
		{snapshot.PodSpecFile, specYAML},
		{snapshot.ResourcesFile, resourcesYAML},
		{snapshot.FileName, snapData},
	} {
		if err := writeAtomic(filepath.Join(appDir, doc.name), doc.data); err != nil {
			return err
		}
	}
	a.logger.Debugf(ctx, "Pod spec:\n%s", redactedSpec(desired))
	a.logger.Infof(ctx, "Wrote pod spec revision %d for %s", previous.Revision+1, desired.AppName)
	return nil
}

func (a *Applier) Teardown(ctx context.Context, appName string, resources []string) error {
	appDir := AppDir(a.dir, appName)
	for _, name := range resources {
		if err := os.Remove(filepath.Join(appDir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.CodeTeardownError, "failed to remove resource").WithDetails("resource=%s", name)
		}
	}
	if err := os.RemoveAll(appDir); err != nil {
		return errors.Wrap(err, errors.CodeTeardownError, "failed to remove application directory").WithDetails("dir=%s", appDir)
	}
	a.logger.Infof(ctx, "Removed workload documents for %s", appName)
	return nil
}

func (a *Applier) readSnapshot(appDir string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(appDir, snapshot.FileName))
	if os.IsNotExist(err) {
		return snapshot.Snapshot{}, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, errors.CodeApplyError, "failed to read previous snapshot")
	}
	return snapshot.Unmarshal(data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to create temporary file").WithDetails("path=%s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeApplyError, "failed to write file").WithDetails("path=%s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to write file").WithDetails("path=%s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, errors.CodeApplyError, "failed to replace file").WithDetails("path=%s", path)
	}
	return nil
}

func redactedSpec(desired domain.DesiredState) string {
	if desired.Image.Password != "" {
		desired.Image.Password = "******"
	}
	spec, err := podspec.Build(desired)
	if err != nil {
		return err.Error()
	}
	out, err := podspec.Render(spec)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
