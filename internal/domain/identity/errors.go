package identity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the identity core. Callers classify with errors.Is.
var (
	// ErrInvalidCredentials means the backend rejected the supplied
	// username/password. Retryable by re-entering credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnreachable means the backend could not be reached or failed
	// transiently. Retryable.
	ErrUnreachable = errors.New("auth backend unreachable")

	// ErrMalformedResponse means the backend replied successfully but the
	// payload violated the contract (missing token or profile). Surfaced,
	// not retried.
	ErrMalformedResponse = errors.New("malformed auth response")

	// ErrNoSession is returned by a SessionStore when no record is persisted.
	ErrNoSession = errors.New("no session record")

	// ErrNotAuthenticated is returned by operations that require a live
	// authenticated session, e.g. token refresh.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed signals that a token refresh failed and the session
	// was terminated. Callers must treat it as "now logged out".
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrLoginSuperseded means a login response arrived after a logout or a
	// newer login attempt and was discarded. The session state is whatever
	// the later operation produced.
	ErrLoginSuperseded = errors.New("login superseded")

	// ErrNoPrincipal means neither an authenticated session nor a guest
	// record was available at order time. Should be unreachable when the
	// access guard is honored; treated as a recoverable redirect, not a crash.
	ErrNoPrincipal = errors.New("no principal available")
)

// ValidationError reports guest-info fields that failed validation.
// Recoverable by correcting input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for a single field, empty when the field passed.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}
