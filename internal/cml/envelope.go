package cml

import "errors"

// Envelope is what every tool returns.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail converts any error into a failed envelope.
func Fail(err error) Envelope {
	if err == nil {
		return Envelope{Message: "Unexpected error"}
	}
	var e *Error
	if errors.As(err, &e) {
		return Envelope{Message: e.Message, Details: e.Details}
	}
	return Envelope{Message: "Unexpected error: " + err.Error()}
}
