package json

import (
	"context"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/reporting"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Reporter struct {
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

func NewReporter(w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{writer: w, logger: logger}, nil
}

type jsonReport struct {
	Summary jsonSummary  `json:"summary"`
	Events  []jsonResult `json:"events"`
}

type jsonSummary struct {
	Dispatched int `json:"dispatched"`
	Applied    int `json:"applied"`
	NoOp       int `json:"no_op"`
	TornDown   int `json:"torn_down"`
	Blocked    int `json:"blocked"`
	Errors     int `json:"errors"`
}

type jsonResult struct {
	Result      string              `json:"result"`
	Event       domain.Event        `json:"event"`
	Action      domain.ActionKind   `json:"action,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	Status      domain.UnitStatus   `json:"status"`
	AppStatus   *domain.UnitStatus  `json:"app_status,omitempty"`
	Teardown    []string            `json:"teardown,omitempty"`
	Differences []jsonAttributeDiff `json:"differences,omitempty"`
	Error       *jsonError          `json:"error,omitempty"`
}

type jsonAttributeDiff struct {
	AttributeName string `json:"attribute_name"`
	ExpectedValue any    `json:"expected_value"`
	ActualValue   any    `json:"actual_value"`
	Details       string `json:"details,omitempty"`
}

type jsonError struct {
	Code       errors.Code `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, outcomes []domain.Outcome) error {
	report := jsonReport{
		Summary: jsonSummary{Dispatched: len(outcomes)},
		Events:  make([]jsonResult, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}
		item := jsonResult{
			Result:    reporting.Label(o),
			Event:     o.Event,
			Action:    o.Action.Kind,
			Reason:    o.Action.Reason,
			Status:    o.Status,
			AppStatus: o.Action.AppStatus,
			Teardown:  o.Action.Teardown,
		}
		switch item.Result {
		case "applied":
			report.Summary.Applied++
		case "no_op":
			report.Summary.NoOp++
		case "torn_down":
			report.Summary.TornDown++
		case "blocked":
			report.Summary.Blocked++
		case "error":
			report.Summary.Errors++
			item.Error = &jsonError{Code: errors.GetCode(o.Error), Message: o.Error.Error()}
			if msg, suggestion, ok := errors.GetUserFacingMessage(o.Error); ok {
				item.Error.Message = msg
				item.Error.Suggestion = suggestion
			}
		}
		for _, diff := range o.Action.Differences {
			item.Differences = append(item.Differences, jsonAttributeDiff{
				AttributeName: diff.AttributeName,
				ExpectedValue: reporting.Value(diff.AttributeName, diff.ExpectedValue),
				ActualValue:   reporting.Value(diff.AttributeName, diff.ActualValue),
				Details:       diff.Details,
			})
		}
		report.Events = append(report.Events, item)
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return errors.Wrap(err, errors.CodeReportError, "failed to encode JSON report")
	}
	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
