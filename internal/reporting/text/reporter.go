package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
	"github.com/olusolaa/redis-k8s-charm/internal/reporting"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var _ ports.Reporter = (*Reporter)(nil)

// NewReporter writes to w, or stdout when w is nil. Color is off unless
// stdout is a terminal.
func NewReporter(cfg Config, w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	if cfg.NoColor || w != os.Stdout || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	return &Reporter{config: cfg, writer: w, logger: logger}, nil
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(r.writer, "No events dispatched.")
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()

	fmt.Fprintln(tw, "Lifecycle Dispatch Report")
	fmt.Fprintln(tw, "=========================")
	fmt.Fprintln(tw, "Result\tEvent\tUnit Status\tDetails")
	fmt.Fprintln(tw, "------\t-----\t-----------\t-------")

	counts := map[string]int{}
	for _, o := range outcomes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		label := reporting.Label(o)
		counts[label]++

		var result, details string
		switch label {
		case "error":
			result = magenta("[ERROR]")
			details = formatError(o.Error)
		case "applied":
			result = yellow("[APPLY]")
			details = fmt.Sprintf("%s; %s", o.Action.Reason, formatDiffs(o.Action.Differences))
		case "torn_down":
			result = cyan("[TEARDOWN]")
			details = o.Action.Reason
		case "blocked":
			result = red("[BLOCKED]")
			details = o.Action.Reason
		case "no_op":
			result = green("[OK]")
			details = o.Action.Reason
		default:
			result = "[UNKNOWN]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", result, reporting.EventName(o.Event), formatStatus(o.Status), details)
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Events Dispatched:\t%d\n", len(outcomes))
	fmt.Fprintf(tw, "Applied:\t%s\n", yellow(counts["applied"]))
	fmt.Fprintf(tw, "No-op:\t%s\n", green(counts["no_op"]))
	fmt.Fprintf(tw, "Torn down:\t%s\n", cyan(counts["torn_down"]))
	fmt.Fprintf(tw, "Blocked:\t%s\n", red(counts["blocked"]))
	fmt.Fprintf(tw, "Errors:\t%s\n", magenta(counts["error"]))
	return nil
}

func formatStatus(s domain.UnitStatus) string {
	if s.State == "" {
		return "-"
	}
	if s.Message == "" {
		return string(s.State)
	}
	return fmt.Sprintf("%s: %s", s.State, s.Message)
}

func formatError(err error) string {
	details := fmt.Sprintf("Dispatch failed: %v", err)
	if msg, suggestion, ok := errors.GetUserFacingMessage(err); ok {
		details += fmt.Sprintf(" (%s %s)", msg, suggestion)
	}
	return details
}

func formatDiffs(diffs []domain.AttributeDiff) string {
	if len(diffs) == 0 {
		return "no attribute differences recorded"
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d attributes differ: ", len(diffs)))
	for i, diff := range diffs {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(fmt.Sprintf("%s=[Expected: %v, Actual: %v]",
			diff.AttributeName,
			formatValue(reporting.Value(diff.AttributeName, diff.ExpectedValue)),
			formatValue(reporting.Value(diff.AttributeName, diff.ActualValue))))
		if diff.Details != "" {
			builder.WriteString(fmt.Sprintf(" (%s)", diff.Details))
		}
	}
	return builder.String()
}

func formatValue(value any) string {
	const maxLen = 100
	str := fmt.Sprintf("%v", value)
	if len(str) > maxLen {
		return str[:maxLen-3] + "..."
	}
	return str
}
