package places

import (
	"fmt"
	"strings"
)

// TransportError indicates the provider could not be reached (network failure
// or timeout). Safe to retry with backoff; never drives a status transition.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("places: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError indicates the provider rejected the credentials (401/403-equivalent).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("places: HTTP %d: %s", e.StatusCode, e.Message)
}

// ProviderError is a well-formed rejection from the provider (any non-2xx
// response that is not an auth failure).
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("places: HTTP %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// ValidationError indicates the payload is missing required fields. Raised
// before any network call, so no attempt is consumed.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "places: payload missing required fields: " + strings.Join(e.Missing, ", ")
}
