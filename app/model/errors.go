package model

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a summarization is already in flight for the document.
	ErrBusy = errors.New("summarization already in progress")

	ErrHistoryEntryNotFound = errors.New("history entry not found")

	// ErrSuperseded is returned when a response arrives for a document that was replaced meanwhile.
	ErrSuperseded = errors.New("document was superseded")
)

// TransportError means the service could not be reached at all.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s]: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a non-success status from a known endpoint.
type ServiceError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service error [%s]: status %d", e.Endpoint, e.Status)
	}

	return fmt.Sprintf("service error [%s]: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// ValidationError is raised before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
