package annotation

import (
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports malformed or missing fields, either caught before
// a request is sent or returned by the server with an itemized list.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

// AuthorizationError is an unauthenticated write (401) or a write by an
// actor other than the creator (403).
type AuthorizationError struct {
	Status  int
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// Unauthenticated reports whether the actor has to sign in first.
func (e *AuthorizationError) Unauthenticated() bool {
	return e.Status == http.StatusUnauthorized
}

// NotFoundError reports a document or annotation id that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// FetchError is a transport failure or an unexpected response status.
type FetchError struct {
	// Zero when no response was received.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	return fmt.Sprintf("request failed with status %d: %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
