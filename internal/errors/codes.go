package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeConfigNotFound   Code = "CONFIG_NOT_FOUND"
	CodeNotImplemented   Code = "NOT_IMPLEMENTED"
	CodeTimeout          Code = "TIMEOUT_ERROR"

	// Lifecycle inputs
	CodeObservedReadError  Code = "OBSERVED_STATE_READ_ERROR"
	CodeObservedParseError Code = "OBSERVED_STATE_PARSE_ERROR"
	CodeRelationReadError  Code = "RELATION_READ_ERROR"
	CodeRelationWriteError Code = "RELATION_WRITE_ERROR"
	CodeEventSourceError   Code = "EVENT_SOURCE_ERROR"
	CodeUnsupportedEvent   Code = "UNSUPPORTED_EVENT"

	// Effects applied on behalf of the reconciler
	CodeApplyError    Code = "APPLY_ERROR"
	CodeTeardownError Code = "TEARDOWN_ERROR"
	CodeRenderError   Code = "RENDER_ERROR"
	CodeReportError   Code = "REPORT_ERROR"
	CodeProbeError    Code = "PROBE_ERROR"
	CodeDispatchError Code = "DISPATCH_ERROR"

	// Image registry
	CodeRegistryAPIError  Code = "REGISTRY_API_ERROR"
	CodeRegistryAuthError Code = "REGISTRY_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"

	// HCL charm options
	CodeHCLParseError  Code = "HCL_PARSE_ERROR"
	CodeHCLDecodeError Code = "HCL_DECODE_ERROR"
)

func (c Code) String() string {
	return string(c)
}
