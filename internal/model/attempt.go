package model

import "time"

// AttemptOutcome is the terminal result of one publish attempt.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeFailure AttemptOutcome = "failure"
)

// ErrorKind classifies a failed attempt into exactly one taxonomy kind.
type ErrorKind string

const (
	// ErrKindValidation: malformed/incomplete input. Never retried.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindCredentialsNotFound: the agency has no provider credentials configured.
	ErrKindCredentialsNotFound ErrorKind = "credentials_not_found"
	// ErrKindAuth: the provider rejected the credentials (401/403).
	ErrKindAuth ErrorKind = "auth"
	// ErrKindTransport: network or timeout failure. Status left unchanged.
	ErrKindTransport ErrorKind = "transport"
	// ErrKindProvider: a well-formed rejection from the provider. Drives a
	// real status transition.
	ErrKindProvider ErrorKind = "provider"
	// ErrKindAlreadyInProgress: another publish for the same location is in flight.
	ErrKindAlreadyInProgress ErrorKind = "already_in_progress"
)

// SyncAttempt records one publish orchestration. It is ephemeral: the caller
// decides whether to log it via the store.
type SyncAttempt struct {
	LocationID        string         `json:"location_id"`
	AgencyID          string         `json:"agency_id"`
	StartedAt         time.Time      `json:"started_at"`
	Outcome           AttemptOutcome `json:"outcome"`
	Status            SyncStatus     `json:"status"`
	ProviderListingID string         `json:"provider_listing_id,omitempty"`
	ErrorKind         ErrorKind      `json:"error_kind,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// Failed reports whether the attempt ended in failure.
func (a *SyncAttempt) Failed() bool {
	return a.Outcome == OutcomeFailure
}
