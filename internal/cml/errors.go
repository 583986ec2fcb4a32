package cml

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnexpected Kind = iota
	KindMissingParam
	KindInvalidParam
	KindMissingConfig
	KindTransport
	KindTimeout
	KindHTTPStatus
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindMissingParam:
		return "missing_param"
	case KindInvalidParam:
		return "invalid_param"
	case KindMissingConfig:
		return "missing_config"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unexpected"
	}
}

// Error is the only error type returned by Client.Do. Message is safe to show
// to a tool caller; Details carries the remote error object when there is one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details any
	Err     error

	retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind != KindMissingParam && e.Kind != KindInvalidParam {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func MissingParam(name string) *Error {
	return &Error{Kind: KindMissingParam, Message: "Missing required parameter: " + name}
}

func InvalidParam(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParam, Message: fmt.Sprintf(format, args...)}
}

func MissingConfig(field string) *Error {
	return &Error{Kind: KindMissingConfig, Message: fmt.Sprintf("Missing %s in configuration", field)}
}

// KindOf reports the Kind of err, or KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func isRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.retryable
}
