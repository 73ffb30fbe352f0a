package syncer

import (
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/model"
)

// Report is the uniform, caller-safe outcome handed to dashboards and
// automation. Messages are stable per error kind and never include raw
// payloads or credentials.
type Report struct {
	Success           bool             `json:"success"`
	Status            model.SyncStatus `json:"status,omitempty"`
	ProviderListingID string           `json:"provider_listing_id,omitempty"`
	Message           string           `json:"message"`
}

// Normalize converts a finished sync attempt into a Report.
func Normalize(attempt *model.SyncAttempt) Report {
	if attempt == nil {
		return Report{Message: "internal error while syncing; try again shortly"}
	}

	r := Report{
		Success:           attempt.Outcome == model.OutcomeSuccess,
		Status:            attempt.Status,
		ProviderListingID: attempt.ProviderListingID,
	}

	if r.Success {
		r.Message = "listing published; provider status: " + string(attempt.Status)
		return r
	}

	switch attempt.ErrorKind {
	case model.ErrKindValidation:
		r.Message = "listing data is incomplete: " + attempt.Error
	case model.ErrKindCredentialsNotFound:
		r.Message = "agency has no provider credentials configured; connect the provider account first"
	case model.ErrKindAuth:
		r.Message = "provider rejected the agency credentials; reconnect the provider account"
	case model.ErrKindTransport:
		r.Message = "provider unreachable; listing status was left unchanged, try again shortly"
	case model.ErrKindProvider:
		r.Message = "provider rejected the listing: " + attempt.Error
	case model.ErrKindAlreadyInProgress:
		r.Message = "a publish for this location is already running; wait for it to finish"
	default:
		r.Message = "sync failed; try again shortly"
	}
	return r
}

// NormalizeProbe converts a probe result into a Report. A probe is successful
// only when the provider is both reachable and authorized.
func NormalizeProbe(res *ProbeResult) Report {
	if res == nil {
		return Report{Message: "internal error while probing; try again shortly"}
	}
	return Report{
		Success: res.Reachable && res.Authorized,
		Message: res.Message,
	}
}

// NormalizeError converts a repository fault into a Report without leaking
// internals to the caller. The fault itself goes to the log only.
func NormalizeError(err error) Report {
	zap.L().Debug("repository fault during sync", zap.Error(err))
	return Report{Message: "internal error while syncing; try again shortly"}
}
