package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/core/reconciler"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const MsgNotReady = "Redis not ready yet"

// UnitSettings describe the unit the dispatcher acts for.
type UnitSettings struct {
	AppName       string
	Leader        bool
	ExpectedUnits []string
	// ProbeHost defaults to AppName, the service name inside the cluster.
	ProbeHost string
}

type Dependencies struct {
	Config      ports.ConfigSource
	Observed    ports.ObservedStateSource
	Relations   ports.RelationSource
	Applier     ports.SpecApplier
	Credentials []ports.ImageCredentialsProvider
	Probe       ports.ReadinessProbe
	Reporter    ports.Reporter
	Logger      ports.Logger
}

// Dispatcher feeds lifecycle events through the reconciler and carries out
// the resulting actions. It handles one event at a time.
type Dispatcher struct {
	unit UnitSettings
	deps Dependencies
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(unit UnitSettings, deps Dependencies) (*Dispatcher, error) {
	if unit.AppName == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "application name cannot be empty", "Set charm.application in the configuration.")
	}
	if deps.Config == nil {
		return nil, errors.New(errors.CodeConfigValidation, "config source cannot be nil")
	}
	if deps.Observed == nil {
		return nil, errors.New(errors.CodeConfigValidation, "observed state source cannot be nil")
	}
	if deps.Applier == nil {
		return nil, errors.New(errors.CodeConfigValidation, "spec applier cannot be nil")
	}
	if deps.Logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil")
	}
	if unit.ProbeHost == "" {
		unit.ProbeHost = unit.AppName
	}
	return &Dispatcher{unit: unit, deps: deps}, nil
}

// Configuration assembles the reconciler input from the config and relation sources.
func (d *Dispatcher) Configuration(ctx context.Context) (domain.Configuration, error) {
	opts, err := d.deps.Config.Load(ctx)
	if err != nil {
		return domain.Configuration{}, errors.Wrap(err, errors.CodeConfigReadError, "failed to load charm options")
	}

	cfg := domain.Configuration{
		AppName:       d.unit.AppName,
		Image:         opts.Image,
		Port:          opts.Port,
		Resources:     opts.Resources,
		Leader:        d.unit.Leader,
		ExpectedUnits: d.unit.ExpectedUnits,
	}

	if d.deps.Relations != nil {
		peers, err := d.deps.Relations.Peers(ctx)
		if err != nil {
			return domain.Configuration{}, errors.Wrap(err, errors.CodeRelationReadError, "failed to read peer relation data")
		}
		cfg.Peers = peers
	}

	if err := d.resolveCredentials(ctx, &cfg.Image); err != nil {
		return domain.Configuration{}, err
	}
	return cfg, nil
}

func (d *Dispatcher) resolveCredentials(ctx context.Context, image *domain.ImageDetails) error {
	if image.RegistryPath == "" || image.HasCredentials() {
		return nil
	}
	for _, provider := range d.deps.Credentials {
		if !provider.Supports(image.RegistryPath) {
			continue
		}
		user, pass, err := provider.Credentials(ctx, image.RegistryPath)
		if err != nil {
			return errors.Wrap(err, errors.CodeRegistryAuthError, "failed to resolve image pull credentials").
				WithDetails("provider=%s image=%s", provider.Type(), image.RegistryPath)
		}
		image.Username, image.Password = user, pass
		image.CredentialSource = provider.Type()
		d.deps.Logger.Debugf(ctx, "Resolved pull credentials for %s via %s", image.RegistryPath, provider.Type())
		return nil
	}
	return nil
}

func (d *Dispatcher) Handle(ctx context.Context, event domain.Event) (domain.Outcome, error) {
	log := d.deps.Logger.WithFields(map[string]any{
		"event":    event.Kind.String(),
		"event_id": event.ID,
		"unit":     d.unit.AppName,
	})
	outcome := domain.Outcome{Event: event}
	fail := func(err error) (domain.Outcome, error) {
		log.Errorf(ctx, err, "Failed to handle %s", event.Kind)
		outcome.Error = err
		return outcome, err
	}

	cfg, err := d.Configuration(ctx)
	if err != nil {
		return fail(err)
	}

	observed, err := d.deps.Observed.Observe(ctx, cfg.AppName)
	if err != nil {
		return fail(errors.Wrap(err, errors.CodeObservedReadError, "failed to read observed workload state"))
	}

	action := reconciler.Reconcile(event, observed, cfg)
	outcome.Action = action
	outcome.Status = action.Status
	log.Debugf(ctx, "Reconciled to %s: %s", action.Kind, action.Reason)

	switch action.Kind {
	case domain.ActionApplySpec:
		for _, diff := range action.Differences {
			log.Debugf(ctx, "Attribute %s changed %s", diff.AttributeName, diff.Details)
		}
		if err := d.deps.Applier.Apply(ctx, *action.Desired); err != nil {
			return fail(errors.Wrap(err, errors.CodeApplyError, "failed to apply workload spec").
				WithDetails("applier=%s", d.deps.Applier.Type()))
		}
		outcome.Applied = true
		log.Infof(ctx, "Applied workload spec (%d changed attributes)", len(action.Differences))
	case domain.ActionTeardown:
		if err := d.deps.Applier.Teardown(ctx, cfg.AppName, action.Teardown); err != nil {
			return fail(errors.Wrap(err, errors.CodeTeardownError, "failed to tear down workload"))
		}
		outcome.Applied = true
		log.Infof(ctx, "Tore down workload resources")
	case domain.ActionReportError:
		log.Warnf(ctx, "Configuration rejected: %s", action.Reason)
	case domain.ActionNoOp:
		if event.Kind == domain.EventUpdateStatus && d.deps.Probe != nil {
			if !d.deps.Probe.Ready(ctx, d.unit.ProbeHost, cfg.Port) {
				outcome.Status = domain.Waiting(MsgNotReady)
				log.Warnf(ctx, "Redis at %s:%d is not reachable", d.unit.ProbeHost, cfg.Port)
			}
		}
	}

	if event.Kind.IsRelation() && action.Kind != domain.ActionReportError {
		if recorder, ok := d.deps.Relations.(ports.RelationRecorder); ok {
			if err := recorder.Record(ctx, event); err != nil {
				return fail(errors.Wrap(err, errors.CodeRelationWriteError, "failed to record relation data"))
			}
		}
	}

	return outcome, nil
}

// Run handles every event from source in delivery order, reports all
// outcomes and returns an error summarising the events that failed.
func (d *Dispatcher) Run(ctx context.Context, source ports.EventSource) error {
	d.deps.Logger.Infof(ctx, "Dispatching events from %s source", source.Type())

	events := make(chan domain.Event, 16)
	g, childCtx := errgroup.WithContext(ctx)
	var outcomes []domain.Outcome

	g.Go(func() error {
		defer close(events)
		if err := source.Events(childCtx, events); err != nil {
			if childCtx.Err() != nil {
				return childCtx.Err()
			}
			return errors.Wrap(err, errors.CodeEventSourceError, "failed reading events")
		}
		return nil
	})

	// a single consumer keeps delivery order
	g.Go(func() error {
		for event := range events {
			if childCtx.Err() != nil {
				return childCtx.Err()
			}
			outcome, _ := d.Handle(childCtx, event)
			outcomes = append(outcomes, outcome)
		}
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		if stderrors.Is(runErr, context.Canceled) || stderrors.Is(runErr, context.DeadlineExceeded) {
			d.deps.Logger.Warnf(ctx, "Event dispatch cancelled or timed out: %v", runErr)
		} else {
			d.deps.Logger.Errorf(ctx, runErr, "event dispatch encountered an error")
		}
	}

	if d.deps.Reporter != nil && len(outcomes) > 0 {
		if err := d.deps.Reporter.Report(ctx, outcomes); err != nil {
			if runErr == nil {
				return errors.Wrap(err, errors.CodeReportError, "failed to report outcomes")
			}
			d.deps.Logger.Errorf(ctx, err, "failed to report partial outcomes after error")
		}
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, o := range outcomes {
		if o.Error != nil {
			failed++
		}
	}
	if failed > 0 {
		return errors.NewUserFacing(errors.CodeDispatchError,
			fmt.Sprintf("%d of %d events failed", failed, len(outcomes)),
			"Inspect the report and logs for the failing events; they are safe to redeliver.")
	}
	d.deps.Logger.Infof(ctx, "Dispatched %d events", len(outcomes))
	return nil
}
