package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"k8s.io/client-go/kubernetes"

	filesapply "github.com/olusolaa/redis-k8s-charm/internal/adapters/apply/file"
	kubeapply "github.com/olusolaa/redis-k8s-charm/internal/adapters/apply/kubernetes"
	hcloptions "github.com/olusolaa/redis-k8s-charm/internal/adapters/charmconfig/hcl"
	yamloptions "github.com/olusolaa/redis-k8s-charm/internal/adapters/charmconfig/yaml"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/events/hookenv"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/kube"
	fileobserved "github.com/olusolaa/redis-k8s-charm/internal/adapters/observed/file"
	kubeobserved "github.com/olusolaa/redis-k8s-charm/internal/adapters/observed/kubernetes"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/probe/tcp"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/registry/ecr"
	filerelation "github.com/olusolaa/redis-k8s-charm/internal/adapters/relation/file"
	"github.com/olusolaa/redis-k8s-charm/internal/adapters/relation/static"
	"github.com/olusolaa/redis-k8s-charm/internal/config"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/core/service"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/log"
	jsonreport "github.com/olusolaa/redis-k8s-charm/internal/reporting/json"
	"github.com/olusolaa/redis-k8s-charm/internal/reporting/text"
)

// keys never written to logs in clear
var redactedLogKeys = []string{"password", "image_password", "token"}

type buildOptions struct {
	output     io.Writer
	logOutput  io.Writer
	kubeClient kubernetes.Interface
	leadership LeaderDetector
}

// LeaderDetector reports leadership of the running unit. ok is false when
// it cannot tell.
type LeaderDetector interface {
	Leader(ctx context.Context) (leader bool, ok bool, err error)
}

type Option func(*buildOptions)

// WithOutput sends reports and rendered documents to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *buildOptions) { o.output = w }
}

func WithLogOutput(w io.Writer) Option {
	return func(o *buildOptions) { o.logOutput = w }
}

// WithLeaderDetector replaces the is-leader hook tool lookup.
func WithLeaderDetector(d LeaderDetector) Option {
	return func(o *buildOptions) { o.leadership = d }
}

// WithKubernetesClient skips kubeconfig loading.
func WithKubernetesClient(client kubernetes.Interface) Option {
	return func(o *buildOptions) { o.kubeClient = client }
}

// builder carries what the bootstrap steps share.
type builder struct {
	cfg      *config.Config
	opts     buildOptions
	logger   ports.Logger
	registry *service.ComponentRegistry
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, options ...Option) (*Application, error) {
	b := &builder{opts: buildOptions{output: os.Stdout}}
	for _, opt := range options {
		opt(&b.opts)
	}

	if err := b.loadConfig(v); err != nil {
		return nil, err
	}
	if err := b.initLogger(ctx, v); err != nil {
		return nil, err
	}
	if err := b.cfg.Validate(ctx); err != nil {
		b.logger.Errorf(ctx, err, "Configuration validation failed")
		return nil, err
	}
	b.logger.Debugf(ctx, "Configuration validated successfully")
	if err := b.resolveLeadership(ctx, v); err != nil {
		return nil, err
	}

	b.registry = service.NewComponentRegistry()
	steps := []func(context.Context) error{
		b.registerConfigSources,
		b.registerObservedSources,
		b.registerRelationSources,
		b.registerAppliers,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}

	deps, err := b.dependencies(ctx, v)
	if err != nil {
		return nil, err
	}
	dispatcher, err := service.NewDispatcher(service.UnitSettings{
		AppName:       b.cfg.Charm.Application,
		Leader:        b.cfg.Charm.Leader,
		ExpectedUnits: b.cfg.Charm.ExpectedUnits,
		ProbeHost:     b.cfg.Probe.Host,
	}, deps)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize dispatcher")
	}

	b.logger.Infof(ctx, "Application bootstrap complete")
	return &Application{Dispatcher: dispatcher, Logger: b.logger, Config: b.cfg, output: b.opts.output}, nil
}

// resolveLeadership asks the hook environment unless charm.leader is set.
func (b *builder) resolveLeadership(ctx context.Context, v *viper.Viper) error {
	if v.IsSet("charm.leader") {
		return nil
	}
	detector := b.opts.leadership
	if detector == nil {
		detector = hookenv.NewLeadership()
	}
	leader, ok, err := detector.Leader(ctx)
	if err != nil {
		return err
	}
	if !ok {
		b.logger.Warnf(ctx, "No hook context to ask for leadership; acting as leader=%t (set charm.leader to override)", b.cfg.Charm.Leader)
		return nil
	}
	b.cfg.Charm.Leader = leader
	b.logger.Debugf(ctx, "Unit leadership from %s: %t", hookenv.LeaderTool, leader)
	return nil
}

func (b *builder) loadConfig(v *viper.Viper) error {
	b.cfg = config.DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(b.cfg, hook); err != nil {
		return errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}
	return nil
}

func (b *builder) initLogger(ctx context.Context, v *viper.Viper) error {
	logger, err := log.NewLogger(log.Config{
		Level:      b.cfg.Settings.LogLevel,
		Format:     b.cfg.Settings.LogFormat,
		Output:     b.opts.logOutput,
		RedactKeys: redactedLogKeys,
	})
	if err != nil {
		return errors.WrapUserFacing(err, errors.CodeConfigValidation, "logger initialization failed",
			"Use log level debug, info, warn or error and log format text or json.")
	}
	b.logger = logger
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", b.cfg.Settings.LogLevel, b.cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}
	return nil
}

func (b *builder) registerConfigSources(ctx context.Context) error {
	opts := b.cfg.Charm.Options
	var (
		source ports.ConfigSource
		err    error
	)
	switch opts.Type {
	case yamloptions.SourceTypeYAML:
		source, err = yamloptions.NewSource(opts.Path, b.cfg.Charm.DefaultPort, b.logger)
	case hcloptions.SourceTypeHCL:
		source, err = hcloptions.NewSource(opts.Path, b.cfg.Charm.DefaultPort, b.logger)
	default:
		return errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported charm options type: %s", opts.Type), "Supported: yaml, hcl")
	}
	if err != nil {
		return err
	}
	b.logger.Infof(ctx, "Using %s charm options: %s", opts.Type, opts.Path)
	return b.registry.RegisterConfigSource(source)
}

func (b *builder) kubeClient() (kubernetes.Interface, error) {
	if b.opts.kubeClient == nil {
		client, err := kube.NewClientset(b.cfg.Apply.Kubeconfig)
		if err != nil {
			return nil, err
		}
		b.opts.kubeClient = client
	}
	return b.opts.kubeClient, nil
}

func (b *builder) registerObservedSources(ctx context.Context) error {
	var (
		source ports.ObservedStateSource
		err    error
	)
	switch b.cfg.ObservedType() {
	case fileobserved.SourceTypeFile:
		source, err = fileobserved.NewSource(b.cfg.Apply.Dir, b.logger)
	case kubeobserved.SourceTypeKubernetes:
		client, clientErr := b.kubeClient()
		if clientErr != nil {
			return clientErr
		}
		source, err = kubeobserved.NewSource(client, b.cfg.Apply.Namespace, b.logger)
	default:
		return errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported observed state type: %s", b.cfg.ObservedType()), "Supported: file, kubernetes")
	}
	if err != nil {
		return err
	}
	b.logger.Debugf(ctx, "Using %s observed state source", source.Type())
	return b.registry.RegisterObservedStateSource(source)
}

func (b *builder) registerRelationSources(ctx context.Context) error {
	switch b.cfg.Relation.Type {
	case static.SourceTypeNone:
		return b.registry.RegisterRelationSource(static.NewSource())
	case filerelation.SourceTypeFile:
		source, err := filerelation.NewSource(b.cfg.Relation.Path, b.logger)
		if err != nil {
			return err
		}
		b.logger.Debugf(ctx, "Using relation data file: %s", b.cfg.Relation.Path)
		return b.registry.RegisterRelationSource(source)
	default:
		return errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported relation type: %s", b.cfg.Relation.Type), "Supported: none, file")
	}
}

func (b *builder) registerAppliers(ctx context.Context) error {
	var (
		applier ports.SpecApplier
		err     error
	)
	switch b.cfg.Apply.Type {
	case filesapply.ApplierTypeFile:
		applier, err = filesapply.NewApplier(b.cfg.Apply.Dir, b.logger)
	case kubeapply.ApplierTypeKubernetes:
		client, clientErr := b.kubeClient()
		if clientErr != nil {
			return clientErr
		}
		applier, err = kubeapply.NewApplier(client, b.cfg.Apply.Namespace, b.logger)
	default:
		return errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported applier type: %s", b.cfg.Apply.Type), "Supported: file, kubernetes")
	}
	if err != nil {
		return err
	}
	b.logger.Infof(ctx, "Using %s applier", applier.Type())
	return b.registry.RegisterSpecApplier(applier)
}

func (b *builder) dependencies(ctx context.Context, v *viper.Viper) (service.Dependencies, error) {
	var deps service.Dependencies
	var err error

	if deps.Config, err = b.registry.GetConfigSource(b.cfg.Charm.Options.Type); err != nil {
		return deps, err
	}
	overrides, err := parseOptionOverrides(v.GetString("set"))
	if err != nil {
		return deps, err
	}
	if overrides != nil {
		b.logger.Debugf(ctx, "Applying %d charm option overrides from command line", len(overrides))
		deps.Config = &overrideSource{base: deps.Config, overrides: overrides}
	}
	if deps.Observed, err = b.registry.GetObservedStateSource(b.cfg.ObservedType()); err != nil {
		return deps, err
	}
	if deps.Relations, err = b.registry.GetRelationSource(b.cfg.Relation.Type); err != nil {
		return deps, err
	}
	if deps.Applier, err = b.registry.GetSpecApplier(b.cfg.Apply.Type); err != nil {
		return deps, err
	}

	if b.cfg.Registry.ECR.Enabled {
		provider, err := ecr.NewProvider(ctx, ecr.Config{Region: b.cfg.Registry.ECR.Region, RPS: b.cfg.Registry.ECR.RPS}, b.logger)
		if err != nil {
			return deps, err
		}
		deps.Credentials = append(deps.Credentials, provider)
		b.logger.Infof(ctx, "ECR pull credentials enabled")
	}
	if b.cfg.Probe.Enabled {
		deps.Probe = tcp.NewProbe(b.cfg.Probe.Timeout, b.logger)
	}

	reportLog := b.logger.WithFields(map[string]any{"component": "reporter", "type": b.cfg.Settings.ReporterType})
	switch b.cfg.Settings.ReporterType {
	case text.ReporterTypeText:
		deps.Reporter, err = text.NewReporter(text.Config{NoColor: b.cfg.Settings.NoColor}, b.opts.output, reportLog)
	case jsonreport.ReporterTypeJSON:
		deps.Reporter, err = jsonreport.NewReporter(b.opts.output, reportLog)
	default:
		return deps, errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported reporter type: %s", b.cfg.Settings.ReporterType), "Supported: text, json")
	}
	if err != nil {
		return deps, errors.Wrap(err, errors.CodeInternal, "failed to initialize reporter")
	}

	deps.Logger = b.logger.WithFields(map[string]any{"component": "dispatcher"})
	return deps, nil
}
