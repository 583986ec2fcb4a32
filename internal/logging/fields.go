package logging

// Field names shared by every component.
const (
	FieldRequestID  = "request_id"
	FieldTransport  = "transport"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration"
	FieldRemoteAddr = "remote_addr"
	FieldTool       = "tool"
	FieldProjectID  = "project_id"
	FieldAttempt    = "attempt"
	FieldError      = "error"
	FieldComponent  = "component"
)
