// Package reporting holds helpers shared by the report formats.
package reporting

import (
	"fmt"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

const Redacted = "******"

// Value renders an attribute value for display, masking sensitive attributes.
func Value(attribute string, value any) any {
	if _, sensitive := domain.SensitiveKeys[attribute]; sensitive {
		if s, ok := value.(string); ok && s == "" {
			return ""
		}
		return Redacted
	}
	return value
}

// Label names the outcome for humans and machines alike.
func Label(o domain.Outcome) string {
	switch {
	case o.Error != nil:
		return "error"
	case o.Action.Kind == domain.ActionApplySpec:
		return "applied"
	case o.Action.Kind == domain.ActionTeardown:
		return "torn_down"
	case o.Action.Kind == domain.ActionReportError:
		return "blocked"
	case o.Action.Kind == domain.ActionNoOp:
		return "no_op"
	default:
		return "unknown"
	}
}

// EventName is the event kind, suffixed with the remote unit for relation events.
func EventName(e domain.Event) string {
	if e.Relation != nil && e.Relation.RemoteUnit != "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Relation.RemoteUnit)
	}
	return string(e.Kind)
}
