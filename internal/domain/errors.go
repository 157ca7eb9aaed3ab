package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrRemote         = errors.New("remote failure")
	ErrPartialFailure = errors.New("partial failure")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a room, folder or file was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (empty name, malformed PIN, oversized file,
	// cross-room folder reference)
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates a permission failure (non-owner mutation, locked room)
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (room, folder)
	ResourceID   string // ID or key of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// RemoteError wraps a gateway failure (database, object storage, identity) with the
// operation and target that produced it.
type RemoteError struct {
	Op     string // e.g. "delete folder"
	Target string // id, key or name the operation worked on
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Target, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) StatusCode() int { return http.StatusBadGateway }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// NewRemoteError wraps err as a RemoteError unless it already carries a domain kind
// (not found, conflict, validation, permission, auth), which are returned unchanged.
func NewRemoteError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrRemote) {
		return err
	}
	return &RemoteError{Op: op, Target: target, Err: err}
}

// ItemError is one failed item of a batch operation.
type ItemError struct {
	Name   string `json:"name"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// PartialFailureError reports a batch where some items failed. Items lists only the
// failures; Succeeded counts the rest.
type PartialFailureError struct {
	Op        string
	Succeeded int
	Items     []ItemError
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed", e.Op, len(e.Items), len(e.Items)+e.Succeeded)
}

func (e *PartialFailureError) StatusCode() int { return http.StatusMultiStatus }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }
