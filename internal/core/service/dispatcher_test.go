package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports/mocks"
	"github.com/olusolaa/redis-k8s-charm/internal/core/reconciler"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

type sliceSource struct {
	events []domain.Event
	err    error
}

func (s *sliceSource) Type() string { return "slice" }

func (s *sliceSource) Events(ctx context.Context, out chan<- domain.Event) error {
	for _, ev := range s.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

type fixture struct {
	config   *mocks.ConfigSource
	observed *mocks.ObservedStateSource
	applier  *mocks.SpecApplier
	reporter *mocks.Reporter
	deps     Dependencies
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		config:   &mocks.ConfigSource{},
		observed: &mocks.ObservedStateSource{},
		applier:  &mocks.SpecApplier{},
		reporter: &mocks.Reporter{},
	}
	f.applier.On("Type").Return("file").Maybe()
	f.deps = Dependencies{
		Config:   f.config,
		Observed: f.observed,
		Applier:  f.applier,
		Reporter: f.reporter,
		Logger:   mocks.NewPermissiveLogger(t),
	}
	t.Cleanup(func() {
		f.config.AssertExpectations(t)
		f.observed.AssertExpectations(t)
		f.applier.AssertExpectations(t)
		f.reporter.AssertExpectations(t)
	})
	return f
}

func leaderUnit() UnitSettings {
	return UnitSettings{AppName: "redis", Leader: true, ExpectedUnits: []string{"redis/0"}}
}

func defaultOptions() domain.CharmOptions {
	return domain.CharmOptions{Image: domain.ImageDetails{RegistryPath: "redis:6.0"}, Port: 6379}
}

func (f *fixture) dispatcher(t *testing.T, unit UnitSettings) *Dispatcher {
	d, err := NewDispatcher(unit, f.deps)
	require.NoError(t, err)
	return d
}

func TestNewDispatcher_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := NewDispatcher(UnitSettings{}, f.deps)
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))

	deps := f.deps
	deps.Applier = nil
	_, err = NewDispatcher(leaderUnit(), deps)
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))

	deps = f.deps
	deps.Observed = nil
	_, err = NewDispatcher(leaderUnit(), deps)
	assert.Error(t, err)
}

func TestHandle_AppliesSpecWhenAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config.On("Load", ctx).Return(defaultOptions(), nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", ctx, mock.MatchedBy(func(d domain.DesiredState) bool {
		return d.Port == 6379 && d.Image.RegistryPath == "redis:6.0" && d.AppName == "redis"
	})).Return(nil).Once()

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventInstalled})

	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.ActionApplySpec, outcome.Action.Kind)
	assert.Equal(t, domain.Active(reconciler.MsgPodReady), outcome.Status)
}

func TestHandle_NoOpWhenInSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := leaderUnit()
	f.config.On("Load", ctx).Return(defaultOptions(), nil)

	running := reconciler.Desired(domain.Configuration{
		AppName:       unit.AppName,
		Image:         defaultOptions().Image,
		Port:          6379,
		ExpectedUnits: unit.ExpectedUnits,
	})
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedFrom(running.WorkloadSpec, "1"), nil)

	outcome, err := f.dispatcher(t, unit).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, domain.ActionNoOp, outcome.Action.Kind)
	f.applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestHandle_ApplyFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config.On("Load", ctx).Return(defaultOptions(), nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", ctx, mock.Anything).Return(fmt.Errorf("connection refused"))

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventInstalled})

	require.Error(t, err)
	assert.Equal(t, errors.CodeApplyError, errors.GetCode(err))
	assert.Equal(t, err, outcome.Error)
	assert.False(t, outcome.Applied)
}

func TestHandle_InputFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("config source", func(t *testing.T) {
		f := newFixture(t)
		f.config.On("Load", ctx).Return(domain.CharmOptions{}, fmt.Errorf("no such file"))

		_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})
		assert.Equal(t, errors.CodeConfigReadError, errors.GetCode(err))
	})

	t.Run("observed source", func(t *testing.T) {
		f := newFixture(t)
		f.config.On("Load", ctx).Return(defaultOptions(), nil)
		f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, fmt.Errorf("corrupt snapshot"))

		_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})
		assert.Equal(t, errors.CodeObservedReadError, errors.GetCode(err))
	})

	t.Run("relation source", func(t *testing.T) {
		f := newFixture(t)
		relations := &mocks.RelationSource{}
		relations.On("Peers", ctx).Return(nil, fmt.Errorf("unreadable"))
		f.deps.Relations = relations
		f.config.On("Load", ctx).Return(defaultOptions(), nil)

		_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})
		assert.Equal(t, errors.CodeRelationReadError, errors.GetCode(err))
	})
}

func TestHandle_InvalidConfigIsReportedNotApplied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config.On("Load", ctx).Return(domain.CharmOptions{Port: 99999}, nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	require.NoError(t, err)
	assert.Equal(t, domain.ActionReportError, outcome.Action.Kind)
	assert.Equal(t, domain.Blocked("invalid port"), outcome.Status)
	f.applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestHandle_Teardown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.config.On("Load", ctx).Return(defaultOptions(), nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{Present: true}, nil)
	f.applier.On("Teardown", ctx, "redis", []string{}).Return(nil).Once()

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventRemoved})

	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.ActionTeardown, outcome.Action.Kind)
}

func TestHandle_UpdateStatusProbe(t *testing.T) {
	tests := []struct {
		name  string
		ready bool
		want  domain.StatusState
	}{
		{"reachable", true, domain.StatusActive},
		{"unreachable", false, domain.StatusWaiting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			probe := &mocks.ReadinessProbe{}
			probe.On("Ready", ctx, "redis", 6379).Return(tt.ready).Once()
			f.deps.Probe = probe
			f.config.On("Load", ctx).Return(defaultOptions(), nil)
			f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)

			outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventUpdateStatus})

			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.Status.State)
			probe.AssertExpectations(t)
		})
	}
}

func TestHandle_RecordsRelationData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	relations := &mocks.RecordingRelationSource{}
	relations.On("Peers", ctx).Return([]domain.Peer{{Unit: "redis/1", Address: "10.0.0.4"}}, nil)
	ev := domain.Event{
		Kind:     domain.EventRelationChanged,
		Relation: &domain.RelationPayload{Name: "redis-peers", RemoteUnit: "redis/2", Data: map[string]string{"ingress-address": "10.0.0.5"}},
	}
	relations.On("Record", ctx, ev).Return(nil).Once()
	f.deps.Relations = relations
	f.config.On("Load", ctx).Return(defaultOptions(), nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", ctx, mock.MatchedBy(func(d domain.DesiredState) bool {
		return assert.ObjectsAreEqual([]string{"10.0.0.4", "10.0.0.5"}, d.Peers)
	})).Return(nil)

	_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, ev)

	require.NoError(t, err)
	relations.AssertExpectations(t)
}

func TestHandle_ResolvesRegistryCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	image := "123456789012.dkr.ecr.eu-west-1.amazonaws.com/redis:7"
	creds := &mocks.ImageCredentialsProvider{}
	creds.On("Type").Return("ecr").Maybe()
	creds.On("Supports", image).Return(true)
	creds.On("Credentials", ctx, image).Return("AWS", "token", nil).Once()
	f.deps.Credentials = []ports.ImageCredentialsProvider{creds}
	f.config.On("Load", ctx).Return(domain.CharmOptions{Image: domain.ImageDetails{RegistryPath: image}, Port: 6379}, nil)
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", ctx, mock.MatchedBy(func(d domain.DesiredState) bool {
		return d.Image.Username == "AWS" && d.Image.Password == "token" && d.Image.CredentialSource == "ecr"
	})).Return(nil)

	_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	require.NoError(t, err)
	creds.AssertExpectations(t)
}

func TestHandle_RefreshedRegistryTokenKeepsWorkloadInSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	image := "123456789012.dkr.ecr.eu-west-1.amazonaws.com/redis:7"
	creds := &mocks.ImageCredentialsProvider{}
	creds.On("Type").Return("ecr")
	creds.On("Supports", image).Return(true)
	creds.On("Credentials", ctx, image).Return("AWS", "fresh-token", nil).Once()
	f.deps.Credentials = []ports.ImageCredentialsProvider{creds}
	f.config.On("Load", ctx).Return(domain.CharmOptions{Image: domain.ImageDetails{RegistryPath: image}, Port: 6379}, nil)

	applied := domain.WorkloadSpec{
		AppName:       "redis",
		Image:         domain.ImageDetails{RegistryPath: image, Username: "AWS", Password: "stale-token", CredentialSource: "ecr"},
		Port:          6379,
		ExpectedUnits: []string{"redis/0"},
	}
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedFrom(applied, "1"), nil)

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	require.NoError(t, err)
	assert.Equal(t, domain.ActionNoOp, outcome.Action.Kind)
	assert.False(t, outcome.Applied)
	creds.AssertExpectations(t)
}

func TestHandle_OperatorCredentialsReplaceProviderToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	image := "123456789012.dkr.ecr.eu-west-1.amazonaws.com/redis:7"
	f.config.On("Load", ctx).Return(domain.CharmOptions{
		Image: domain.ImageDetails{RegistryPath: image, Username: "ops", Password: "pw"},
		Port:  6379,
	}, nil)
	applied := domain.WorkloadSpec{
		AppName:       "redis",
		Image:         domain.ImageDetails{RegistryPath: image, Username: "AWS", Password: "token", CredentialSource: "ecr"},
		Port:          6379,
		ExpectedUnits: []string{"redis/0"},
	}
	f.observed.On("Observe", ctx, "redis").Return(domain.ObservedFrom(applied, "1"), nil)
	f.applier.On("Apply", ctx, mock.MatchedBy(func(d domain.DesiredState) bool {
		return d.Image.Username == "ops" && d.Image.CredentialSource == ""
	})).Return(nil).Once()

	outcome, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	require.NoError(t, err)
	assert.Equal(t, domain.ActionApplySpec, outcome.Action.Kind)
	var names []string
	for _, d := range outcome.Action.Differences {
		names = append(names, d.AttributeName)
	}
	assert.Equal(t, []string{domain.KeyCredentialSource, domain.KeyImagePassword, domain.KeyImageUsername}, names)
}

func TestHandle_CredentialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creds := &mocks.ImageCredentialsProvider{}
	creds.On("Type").Return("ecr").Maybe()
	creds.On("Supports", mock.Anything).Return(true)
	creds.On("Credentials", ctx, mock.Anything).Return("", "", fmt.Errorf("expired"))
	f.deps.Credentials = []ports.ImageCredentialsProvider{creds}
	f.config.On("Load", ctx).Return(defaultOptions(), nil)

	_, err := f.dispatcher(t, leaderUnit()).Handle(ctx, domain.Event{Kind: domain.EventConfigChanged})

	assert.Equal(t, errors.CodeRegistryAuthError, errors.GetCode(err))
}

func TestRun_ReportsOutcomesInOrder(t *testing.T) {
	f := newFixture(t)
	f.config.On("Load", mock.Anything).Return(defaultOptions(), nil)
	f.observed.On("Observe", mock.Anything, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", mock.Anything, mock.Anything).Return(nil)
	f.reporter.On("Report", mock.Anything, mock.MatchedBy(func(outcomes []domain.Outcome) bool {
		return len(outcomes) == 3 &&
			outcomes[0].Event.ID == "1" &&
			outcomes[1].Event.ID == "2" &&
			outcomes[2].Event.ID == "3"
	})).Return(nil).Once()

	source := &sliceSource{events: []domain.Event{
		{Kind: domain.EventInstalled, ID: "1"},
		{Kind: domain.EventConfigChanged, ID: "2"},
		{Kind: domain.EventStopped, ID: "3"},
	}}

	err := f.dispatcher(t, leaderUnit()).Run(context.Background(), source)
	assert.NoError(t, err)
}

func TestRun_SummarisesFailedEvents(t *testing.T) {
	f := newFixture(t)
	f.config.On("Load", mock.Anything).Return(defaultOptions(), nil)
	f.observed.On("Observe", mock.Anything, "redis").Return(domain.ObservedState{}, nil)
	f.applier.On("Apply", mock.Anything, mock.Anything).Return(fmt.Errorf("boom")).Once()
	f.applier.On("Apply", mock.Anything, mock.Anything).Return(nil)
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	source := &sliceSource{events: []domain.Event{{Kind: domain.EventInstalled}, {Kind: domain.EventConfigChanged}}}

	err := f.dispatcher(t, leaderUnit()).Run(context.Background(), source)

	require.Error(t, err)
	assert.Equal(t, errors.CodeDispatchError, errors.GetCode(err))
	msg, _, ok := errors.GetUserFacingMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "1 of 2 events failed", msg)
}

func TestRun_EventSourceFailure(t *testing.T) {
	f := newFixture(t)
	f.config.On("Load", mock.Anything).Return(defaultOptions(), nil).Maybe()
	f.observed.On("Observe", mock.Anything, "redis").Return(domain.ObservedState{}, nil).Maybe()
	f.applier.On("Apply", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Maybe()

	source := &sliceSource{events: []domain.Event{{Kind: domain.EventInstalled}}, err: fmt.Errorf("truncated log")}

	err := f.dispatcher(t, leaderUnit()).Run(context.Background(), source)

	assert.Equal(t, errors.CodeEventSourceError, errors.GetCode(err))
}

func TestRun_StopsWhenContextCancelled(t *testing.T) {
	f := newFixture(t)
	events := make([]domain.Event, 64)
	for i := range events {
		events[i] = domain.Event{Kind: domain.EventConfigChanged, ID: fmt.Sprint(i)}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.dispatcher(t, leaderUnit()).Run(ctx, &sliceSource{events: events})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	f.config.AssertNotCalled(t, "Load", mock.Anything)
	f.applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}
