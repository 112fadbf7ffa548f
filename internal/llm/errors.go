package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamExhausted reports that every attempt against the provider failed.
	ErrUpstreamExhausted = errors.New("model provider unavailable")
	// ErrMalformedResponse reports a reply that does not carry usable function arguments.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrNoToolCall reports a reply in which the model did not call the function.
	ErrNoToolCall = errors.New("model did not call the function")
)

// ExhaustedError is returned by Invoker when the retry budget is spent.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("model call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error { return []error{ErrUpstreamExhausted, e.Err} }

// MalformedResponseError describes why a completion could not be turned into activities.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return "malformed model response: " + e.Reason
	}
	return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedResponse}
	}
	return []error{ErrMalformedResponse, e.Err}
}
