package app

import (
	"context"
	"fmt"
	"io"

	"github.com/olusolaa/redis-k8s-charm/internal/config"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/core/reconciler"
	"github.com/olusolaa/redis-k8s-charm/internal/core/service"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/podspec"
)

// Application is the bootstrapped charm: a dispatcher plus the settings it was built from.
type Application struct {
	Dispatcher *service.Dispatcher
	Logger     ports.Logger
	Config     *config.Config
	output     io.Writer
}

// Run dispatches every event from source
func (a *Application) Run(ctx context.Context, source ports.EventSource) error {
	a.Logger.Infof(ctx, "Starting event dispatch...")
	if err := a.Dispatcher.Run(ctx, source); err != nil {
		a.Logger.Errorf(ctx, err, "Event dispatch failed")
		return err
	}
	a.Logger.Infof(ctx, "Event dispatch completed successfully")
	return nil
}

// Validate returns the reason the current configuration would be rejected,
// or an empty string when a leader would apply it.
func (a *Application) Validate(ctx context.Context) (string, error) {
	cfg, err := a.Dispatcher.Configuration(ctx)
	if err != nil {
		return "", err
	}
	return reconciler.Problem(cfg), nil
}

// Render writes the pod spec and its resources for the current configuration
// as two YAML documents.
func (a *Application) Render(ctx context.Context) error {
	cfg, err := a.Dispatcher.Configuration(ctx)
	if err != nil {
		return err
	}
	if problem := reconciler.Problem(cfg); problem != "" {
		return errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("charm configuration is not valid: %s", problem),
			"Fix the charm options and render again.")
	}

	desired := reconciler.Desired(cfg)
	spec, err := podspec.Build(desired)
	if err != nil {
		return err
	}
	resources, err := podspec.BuildResources(desired)
	if err != nil {
		return err
	}
	for i, doc := range []any{spec, resources} {
		out, err := podspec.Render(doc)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(a.output, "---\n"); err != nil {
				return errors.Wrap(err, errors.CodeRenderError, "failed to write rendered documents")
			}
		}
		if _, err := a.output.Write(out); err != nil {
			return errors.Wrap(err, errors.CodeRenderError, "failed to write rendered documents")
		}
	}
	return nil
}
