package domain

import "strings"

// EventKind tags a lifecycle event. Values are the framework hook names.
type EventKind string

const (
	EventInstalled        EventKind = "install"
	EventStarted          EventKind = "start"
	EventConfigChanged    EventKind = "config-changed"
	EventUpgradeRequested EventKind = "upgrade-charm"
	EventLeaderElected    EventKind = "leader-elected"
	EventRelationChanged  EventKind = "relation-changed"
	EventRelationDeparted EventKind = "relation-departed"
	EventUpdateStatus     EventKind = "update-status"
	EventStopped          EventKind = "stop"
	EventRemoved          EventKind = "remove"

	// Delivered by the framework but carrying nothing to reconcile.
	EventRelationCreated       EventKind = "relation-created"
	EventRelationBroken        EventKind = "relation-broken"
	EventLeaderSettingsChanged EventKind = "leader-settings-changed"
)

const relationJoined = "relation-joined"

var knownEventKinds = map[EventKind]struct{}{
	EventInstalled:        {},
	EventStarted:          {},
	EventConfigChanged:    {},
	EventUpgradeRequested: {},
	EventLeaderElected:    {},
	EventRelationChanged:  {},
	EventRelationDeparted: {},
	EventUpdateStatus:     {},
	EventStopped:          {},
	EventRemoved:          {},

	EventRelationCreated:       {},
	EventRelationBroken:        {},
	EventLeaderSettingsChanged: {},
}

var statusOnlyKinds = map[EventKind]struct{}{
	EventRelationCreated:       {},
	EventRelationBroken:        {},
	EventLeaderSettingsChanged: {},
}

func (k EventKind) String() string {
	return string(k)
}

func (k EventKind) Known() bool {
	_, ok := knownEventKinds[k]
	return ok
}

// StatusOnly reports whether the event only asks for a status refresh.
func (k EventKind) StatusOnly() bool {
	_, ok := statusOnlyKinds[k]
	return ok
}

// HookKind maps a framework hook name to its event kind. Relation hooks are
// named <relation>-relation-<change>; the relation name is returned with the
// kind. A joining peer is handled as a change of its relation data, and
// relation-broken follows the departure of every remote unit.
func HookKind(hook string) (EventKind, string) {
	for _, suffix := range []string{
		string(EventRelationChanged), relationJoined, string(EventRelationDeparted),
		string(EventRelationCreated), string(EventRelationBroken),
	} {
		var relation string
		switch {
		case hook == suffix:
		case strings.HasSuffix(hook, "-"+suffix):
			relation = strings.TrimSuffix(hook, "-"+suffix)
		default:
			continue
		}
		if suffix == relationJoined {
			suffix = string(EventRelationChanged)
		}
		return EventKind(suffix), relation
	}
	return EventKind(hook), ""
}

// IsRelation reports whether the event carries a relation payload.
func (k EventKind) IsRelation() bool {
	return k == EventRelationChanged || k == EventRelationDeparted
}

// Event is a single lifecycle notification delivered by the framework.
type Event struct {
	Kind     EventKind        `json:"kind"`
	ID       string           `json:"id,omitempty"`
	Relation *RelationPayload `json:"relation,omitempty"`
}

// RelationPayload is the relation data attached to relation events.
type RelationPayload struct {
	Name       string            `json:"name"`
	RemoteUnit string            `json:"remote_unit"`
	Data       map[string]string `json:"data,omitempty"`
}
