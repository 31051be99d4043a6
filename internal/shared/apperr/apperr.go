package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// AuthorizationError reports a role or ownership mismatch.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// ValidationError carries per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field problem and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
	return e
}

// OrNil returns nil when no field was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PreconditionError blocks an operation the current state does not allow.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// NotFoundError reports a missing resource or a nested resource that does
// not belong to its parent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ExternalServiceError wraps a failure of object storage, the LLM or the PDF renderer.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func Forbidden(message string) error { return &AuthorizationError{Message: message} }

func Invalid(field, message string) error {
	return (&ValidationError{}).Add(field, message)
}

func Precondition(message string) error { return &PreconditionError{Message: message} }

func NotFound(resource string) error { return &NotFoundError{Resource: resource} }

func External(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}
