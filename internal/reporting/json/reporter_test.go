package json

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports/mocks"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporter(&buf, mocks.NewPermissiveLogger(t))
	require.NoError(t, err)
	appStatus := domain.Active("Redis pod ready.")
	outcomes := []domain.Outcome{
		{
			Event: domain.Event{Kind: domain.EventConfigChanged, ID: "7"},
			Action: domain.Action{
				Kind:      domain.ActionApplySpec,
				Reason:    "workload not running",
				AppStatus: &appStatus,
				Differences: []domain.AttributeDiff{
					{AttributeName: domain.KeyImagePassword, ExpectedValue: "s3cret", ActualValue: ""},
				},
			},
			Applied: true,
			Status:  domain.Active("Pod is ready."),
		},
		{
			Event:  domain.Event{Kind: domain.EventRemoved},
			Action: domain.Action{Kind: domain.ActionTeardown, Teardown: []string{}, Reason: "application removed"},
			Status: domain.Maintenance("Removing workload."),
		},
		{
			Event: domain.Event{Kind: domain.EventStarted},
			Error: errors.New(errors.CodeApplyError, "failed to write file"),
		},
	}

	require.NoError(t, r.Report(context.Background(), outcomes))
	assert.NotContains(t, buf.String(), "s3cret")

	var report jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, jsonSummary{Dispatched: 3, Applied: 1, TornDown: 1, Errors: 1}, report.Summary)
	require.Len(t, report.Events, 3)

	applied := report.Events[0]
	assert.Equal(t, "applied", applied.Result)
	assert.Equal(t, "7", applied.Event.ID)
	assert.Equal(t, &appStatus, applied.AppStatus)
	require.Len(t, applied.Differences, 1)
	assert.Equal(t, "******", applied.Differences[0].ExpectedValue)
	assert.Equal(t, "", applied.Differences[0].ActualValue)

	assert.Equal(t, domain.StatusMaintenance, report.Events[1].Status.State)

	failed := report.Events[2]
	require.NotNil(t, failed.Error)
	assert.Equal(t, errors.CodeApplyError, failed.Error.Code)
	assert.Contains(t, failed.Error.Message, "failed to write file")
}
