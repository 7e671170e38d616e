package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the console.

// ErrTransport indicates the request never produced a response
// (connectivity failure, DNS, timeout). There is no envelope to read.
type ErrTransport struct {
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrAPI indicates the server responded with an envelope signalling
// failure. Message is the human-readable text from the envelope.
type ErrAPI struct {
	StatusCode int
	Message    string
}

func (e *ErrAPI) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// ErrValidation indicates a client-side form violation. It never
// reaches the network.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrorMessage extracts a user-facing message from any store error,
// falling back to a generic text when the transport itself failed and
// no envelope message exists.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *ErrAPI
	var transportErr *ErrTransport
	var validationErr *ErrValidation

	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
	case errors.As(err, &transportErr):
		return "Something went wrong. Please check your connection and try again."
	case errors.As(err, &validationErr):
		return validationErr.Message
	}
	return err.Error()
}
