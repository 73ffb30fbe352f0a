package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/pkg/places"
)

// ProbeResult describes the outcome of a connectivity probe. Reachable and
// Authorized are independent: a provider can answer while rejecting the
// agency's credentials.
type ProbeResult struct {
	Reachable  bool   `json:"reachable"`
	Authorized bool   `json:"authorized"`
	Message    string `json:"message"`
}

// Probe performs a side-effect-free connectivity check for an agency. It never
// mutates any location's sync status and always returns a result, even when
// the provider is down.
func (s *Syncer) Probe(ctx context.Context, agencyID string) *ProbeResult {
	log := zap.L().With(zap.String("agency_id", agencyID))

	creds, err := s.store.GetCredentials(ctx, agencyID)
	if err != nil {
		log.Error("credential lookup failed", zap.Error(err))
		return &ProbeResult{
			Message: "credential lookup failed; check the listings store",
		}
	}
	if creds == nil {
		return &ProbeResult{
			Message: "agency has no provider credentials configured; connect the provider account first",
		}
	}

	res, err := s.client.TestAccess(ctx, places.Credentials{Token: creds.Token})
	if err != nil {
		var authErr *places.AuthError
		if errors.As(err, &authErr) {
			return &ProbeResult{
				Reachable: true,
				Message:   "provider rejected the agency credentials; reconnect the provider account",
			}
		}

		var provErr *places.ProviderError
		if errors.As(err, &provErr) {
			return &ProbeResult{
				Reachable: true,
				Message:   provErr.Message,
			}
		}

		log.Warn("provider unreachable", zap.Error(err))
		return &ProbeResult{
			Message: "provider unreachable; try again shortly",
		}
	}

	out := &ProbeResult{
		Reachable:  res.Reachable,
		Authorized: res.Authorized,
		Message:    res.ProviderMessage,
	}
	if out.Message == "" {
		if out.Authorized {
			out.Message = "provider connection is healthy"
		} else {
			out.Message = "provider reachable but the agency is not authorized"
		}
	}
	return out
}
