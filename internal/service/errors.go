// Package service implements the application logic between the HTTP layer
// and the store.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials covers wrong username, wrong password and
	// unknown accounts alike so callers can't probe which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified blocks login until the verification link is used.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrInvalidToken covers unknown, malformed, revoked and consumed
	// tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned for structurally valid tokens past
	// their expiry.
	ErrExpiredToken = errors.New("expired token")

	ErrInvalidMFACode    = errors.New("invalid MFA code")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")

	ErrForbidden = errors.New("operation not permitted")
)

// ValidationError aggregates per-field validation failures so a form can
// show all problems at once instead of one per round trip.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator collects field errors during request validation.
type validator struct {
	fields map[string]string
}

func newValidator() *validator {
	return &validator{fields: make(map[string]string)}
}

// Fail records the first error for a field. Later failures for the same
// field are ignored so the most specific message wins.
func (v *validator) Fail(field, msg string) {
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = msg
	}
}

// Err returns a *ValidationError when any field failed, nil otherwise.
func (v *validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
