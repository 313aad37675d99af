package domain

type ActionKind string

const (
	ActionNoOp        ActionKind = "NO_OP"
	ActionApplySpec   ActionKind = "APPLY_SPEC"
	ActionTeardown    ActionKind = "TEARDOWN"
	ActionReportError ActionKind = "REPORT_ERROR"
)

type StatusState string

const (
	StatusActive      StatusState = "active"
	StatusBlocked     StatusState = "blocked"
	StatusWaiting     StatusState = "waiting"
	StatusMaintenance StatusState = "maintenance"
)

// UnitStatus is the status the caller surfaces to the operator.
type UnitStatus struct {
	State   StatusState `json:"state"`
	Message string      `json:"message,omitempty"`
}

func Active(msg string) UnitStatus { return UnitStatus{State: StatusActive, Message: msg} }
func Blocked(msg string) UnitStatus { return UnitStatus{State: StatusBlocked, Message: msg} }
func Waiting(msg string) UnitStatus { return UnitStatus{State: StatusWaiting, Message: msg} }
func Maintenance(msg string) UnitStatus { return UnitStatus{State: StatusMaintenance, Message: msg} }

type AttributeDiff struct {
	AttributeName string
	ExpectedValue any
	ActualValue   any
	Details       string
}

// Action is the decision the reconciler hands back to its caller.
// Desired is set only for ActionApplySpec; Reason explains NoOp and ReportError.
type Action struct {
	Kind        ActionKind
	Desired     *DesiredState
	Differences []AttributeDiff
	Teardown    []string
	Reason      string
	Status      UnitStatus
	AppStatus   *UnitStatus
}

// Outcome records what happened to one delivered event.
type Outcome struct {
	Event   Event
	Action  Action
	Applied bool
	Status  UnitStatus
	Error   error
}
