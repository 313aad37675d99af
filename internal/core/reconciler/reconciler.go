// Package reconciler decides what a Redis unit should do in response to a
// lifecycle event. It performs no I/O; callers inject the observed workload
// and the configuration and act on the returned domain.Action.
package reconciler

import (
	"fmt"

	"github.com/olusolaa/redis-k8s-charm/internal/core/domain"
)

const (
	MsgPodReady       = "Pod is ready."
	MsgAppReady       = "Redis pod ready."
	MsgPodTerminating = "Pod is terminating."
	MsgRemoving       = "Removing workload."

	ReasonNonLeader      = "spec changes ignored by non-leader"
	ReasonInSync         = "workload matches desired state"
	ReasonAbsent         = "workload not running"
	ReasonDrifted        = "workload differs from desired state"
	ReasonMissingPayload = "relation event missing payload"
	ReasonStopping       = "unit stopping"
	ReasonStatus         = "status refresh"
)

// Reconcile maps (event, observed, config) to a single idempotent action.
// Invalid input never panics; it produces an ActionReportError.
func Reconcile(event domain.Event, observed domain.ObservedState, config domain.Configuration) domain.Action {
	switch event.Kind {
	case domain.EventRemoved:
		return domain.Action{
			Kind:     domain.ActionTeardown,
			Teardown: []string{},
			Reason:   "application removed",
			Status:   domain.Maintenance(MsgRemoving),
		}
	case domain.EventStopped:
		return noOp(ReasonStopping, domain.Maintenance(MsgPodTerminating))
	}

	if reason := Problem(config); reason != "" {
		return reportError(reason)
	}
	if !event.Kind.Known() {
		return reportError(fmt.Sprintf("unsupported event: %s", event.Kind))
	}

	if event.Kind.IsRelation() {
		if event.Relation == nil || event.Relation.RemoteUnit == "" {
			return reportError(ReasonMissingPayload)
		}
		peers, reason := applyRelation(event, config.Peers)
		if reason != "" {
			return reportError(reason)
		}
		config.Peers = peers
	}

	if event.Kind == domain.EventUpdateStatus || event.Kind.StatusOnly() {
		return noOp(ReasonStatus, domain.Active(""))
	}
	if !config.Leader {
		return noOp(ReasonNonLeader, domain.Active(MsgPodReady))
	}

	desired := Desired(config)
	if observed.Present {
		diffs := diffSpecs(desired.WorkloadSpec, observed.WorkloadSpec)
		if len(diffs) == 0 {
			return noOp(ReasonInSync, domain.Active(MsgPodReady))
		}
		return applySpec(desired, diffs, ReasonDrifted)
	}
	return applySpec(desired, diffSpecs(desired.WorkloadSpec, domain.WorkloadSpec{}), ReasonAbsent)
}

func applyRelation(event domain.Event, peers []domain.Peer) ([]domain.Peer, string) {
	if event.Kind == domain.EventRelationDeparted {
		return removePeer(peers, event.Relation.RemoteUnit), ""
	}
	peer, ok := PeerFromPayload(event.Relation)
	if !ok {
		// the unit joined but has not published an address yet
		return peers, ""
	}
	if reason := peerProblem(peer); reason != "" {
		return nil, reason
	}
	return mergePeer(peers, peer), ""
}

func applySpec(desired domain.DesiredState, diffs []domain.AttributeDiff, reason string) domain.Action {
	app := domain.Active(MsgAppReady)
	return domain.Action{
		Kind:        domain.ActionApplySpec,
		Desired:     &desired,
		Differences: diffs,
		Reason:      reason,
		Status:      domain.Active(MsgPodReady),
		AppStatus:   &app,
	}
}

func noOp(reason string, status domain.UnitStatus) domain.Action {
	return domain.Action{Kind: domain.ActionNoOp, Reason: reason, Status: status}
}

func reportError(reason string) domain.Action {
	return domain.Action{Kind: domain.ActionReportError, Reason: reason, Status: domain.Blocked(reason)}
}
