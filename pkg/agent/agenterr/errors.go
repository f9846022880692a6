package agenterr

import (
	"errors"
	"fmt"
)

// Code is a stable, client-facing error code. Codes never change once
// shipped; clients key retry/resume behavior off them.
type Code string

const (
	CodeConfiguration     Code = "CONFIGURATION_ERROR"
	CodeProvider          Code = "PROVIDER_ERROR"
	CodeStreaming         Code = "STREAMING_ERROR"
	CodeUnknownCapability Code = "UNKNOWN_CAPABILITY"
	CodeCacheUnavailable  Code = "CACHE_UNAVAILABLE"
	CodeCheckpointBackend Code = "CHECKPOINT_BACKEND_UNAVAILABLE"
)

// Error is a classified failure. Everything crossing the orchestrator
// boundary is wrapped in one of these so callers get a stable code and a
// user-presentable message instead of internals.
type Error struct {
	Code    Code
	Message string // safe to show to an end user
	Err     error  // underlying cause, for logs only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func Configuration(message string) *Error {
	return &Error{Code: CodeConfiguration, Message: message}
}

func Provider(cause error) *Error {
	return &Error{
		Code:    CodeProvider,
		Message: "The model provider is temporarily unavailable. Please try again.",
		Err:     cause,
	}
}

func Streaming(cause error) *Error {
	return &Error{
		Code:    CodeStreaming,
		Message: "Something went wrong while generating the response. Your conversation is safe and you can retry.",
		Err:     cause,
	}
}

func UnknownCapability(name string) *Error {
	return &Error{
		Code:    CodeUnknownCapability,
		Message: "The assistant referenced a capability that is not available.",
		Err:     fmt.Errorf("unknown capability: %s", name),
	}
}

// Classify maps any error to its taxonomy entry, defaulting to a
// streaming-level failure for unclassified errors.
func Classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Streaming(err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
