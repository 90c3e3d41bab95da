package api

import (
	"errors"
	"fmt"
)

// Kind classifies an Error
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindValidation means the request was rejected before it was sent.
	KindValidation
	// KindMalformedResponse means a 2xx response had an unexpected shape.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindValidation:
		return "validation"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// NetworkErrorMessage is shown when the server cannot be reached
const NetworkErrorMessage = "Network error: Unable to connect to the server. Please check if the server is running."

// Error is the single error type surfaced by the client
type Error struct {
	Kind       Kind
	Message    string
	Status     int
	Details    string
	Suggestion string
	// Payload holds the offending body for malformed responses.
	Payload []byte
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError builds a KindValidation error
func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// MalformedResponseError builds a KindMalformedResponse error carrying the payload
func MalformedResponseError(msg string, payload []byte) *Error {
	return &Error{Kind: KindMalformedResponse, Message: msg, Payload: payload}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Describe formats err for terminal output, adding details and suggestion when present.
func Describe(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	msg := apiErr.Message
	if apiErr.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, apiErr.Details)
	}
	if apiErr.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, apiErr.Suggestion)
	}
	return msg
}
