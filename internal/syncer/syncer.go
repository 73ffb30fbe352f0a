// Package syncer drives synchronization between local locations and the
// listings provider: single publish attempts, connectivity probes, and the
// reconciliation sweep.
package syncer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/inflight"
	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/internal/resilience"
	"github.com/localpulse/listings-cli/internal/store"
	"github.com/localpulse/listings-cli/pkg/places"
)

const defaultPublishTimeout = 30 * time.Second

// Syncer owns every sync_status mutation. All other code treats the status as
// read-only.
type Syncer struct {
	store          store.Store
	client         places.Client
	guard          *inflight.Guard
	breaker        *resilience.CircuitBreaker
	publishTimeout time.Duration
}

// Option configures the Syncer.
type Option func(*Syncer)

// WithPublishTimeout bounds each publish attempt. An attempt exceeding it is
// classified as transport failure and leaves the status unchanged.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithCircuitBreaker replaces the breaker guarding reconciliation polls.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(s *Syncer) {
		s.breaker = cb
	}
}

// New creates a Syncer over the given store and provider client.
func New(st store.Store, client places.Client, opts ...Option) *Syncer {
	s := &Syncer{
		store:          st,
		client:         client,
		guard:          inflight.NewGuard(),
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		cfg := resilience.DefaultCircuitBreakerConfig()
		cfg.ShouldTrip = isTransportFailure
		s.breaker = resilience.NewCircuitBreaker(cfg)
	}
	return s
}

// Publish drives one synchronization attempt for a location end-to-end. The
// returned attempt is always non-nil and carries the classified outcome; the
// error return is reserved for repository faults.
func (s *Syncer) Publish(ctx context.Context, agencyID, locationID string) (*model.SyncAttempt, error) {
	log := zap.L().With(
		zap.String("agency_id", agencyID),
		zap.String("location_id", locationID),
	)

	attempt := &model.SyncAttempt{
		LocationID: locationID,
		AgencyID:   agencyID,
		StartedAt:  time.Now().UTC(),
	}

	loc, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, eris.Wrap(err, "syncer: load location")
	}
	attempt.Status = loc.SyncStatus

	release, err := s.guard.TryAcquire(agencyID, locationID)
	if err != nil {
		attempt.Outcome = model.OutcomeFailure
		attempt.ErrorKind = model.ErrKindAlreadyInProgress
		attempt.Error = "another publish for this location is in flight"
		return attempt, nil
	}
	// Released on every exit path, including timeout and panic.
	defer release()

	creds, err := s.store.GetCredentials(ctx, agencyID)
	if err != nil {
		return nil, eris.Wrap(err, "syncer: load credentials")
	}
	if creds == nil {
		attempt.Outcome = model.OutcomeFailure
		attempt.ErrorKind = model.ErrKindCredentialsNotFound
		attempt.Error = "agency has no provider credentials configured"
		return attempt, nil
	}

	if missing := loc.MissingFields(); len(missing) > 0 {
		attempt.Outcome = model.OutcomeFailure
		attempt.ErrorKind = model.ErrKindValidation
		attempt.Error = "missing required fields: " + strings.Join(missing, ", ")
		return attempt, nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	res, err := s.client.Publish(pubCtx, places.Credentials{Token: creds.Token}, payloadFor(loc))
	if err != nil {
		kind, detail := classify(err)
		attempt.Outcome = model.OutcomeFailure
		attempt.ErrorKind = kind
		attempt.Error = detail

		// Only an explicit provider rejection moves the status; transport and
		// auth failures are transient from the state machine's point of view.
		if kind == model.ErrKindProvider {
			next := model.NextStatus(loc.SyncStatus, model.EventRejected)
			if next != loc.SyncStatus {
				if uerr := s.store.UpdateSyncStatus(ctx, locationID, next, ""); uerr != nil {
					return nil, eris.Wrap(uerr, "syncer: persist rejection")
				}
			}
			attempt.Status = next
		}

		log.Warn("publish failed",
			zap.String("kind", string(kind)),
			zap.String("status", string(attempt.Status)),
		)
		return attempt, nil
	}

	next := loc.SyncStatus
	for _, event := range eventsForPublishState(res.State) {
		next = model.NextStatus(next, event)
	}

	if err := s.store.UpdateSyncStatus(ctx, locationID, next, res.ProviderListingID); err != nil {
		return nil, eris.Wrap(err, "syncer: persist status")
	}

	attempt.Outcome = model.OutcomeSuccess
	attempt.Status = next
	attempt.ProviderListingID = res.ProviderListingID

	log.Info("publish succeeded",
		zap.String("provider_listing_id", res.ProviderListingID),
		zap.String("status", string(next)),
	)
	return attempt, nil
}

// payloadFor maps the canonical location onto the provider wire payload.
func payloadFor(loc *model.Location) places.ListingPayload {
	return places.ListingPayload{
		Name:      loc.Name,
		Street:    loc.Street,
		City:      loc.City,
		Country:   loc.Country,
		Phone:     loc.Phone,
		Website:   loc.Website,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}

// eventsForPublishState maps the provider's publish response onto status
// events. A synchronously-live response applies accepted then confirmed_live
// so the transition stays inside the published table.
func eventsForPublishState(state places.ListingState) []model.ProviderEvent {
	switch state {
	case places.StateLive:
		return []model.ProviderEvent{model.EventAccepted, model.EventConfirmedLive}
	case places.StateReview:
		return []model.ProviderEvent{model.EventAccepted, model.EventFlaggedForReview}
	case places.StateSuspended:
		return []model.ProviderEvent{model.EventRejected}
	default:
		// pending or any future state the provider adds: acceptance only.
		return []model.ProviderEvent{model.EventAccepted}
	}
}

// eventForRemoteState maps a polled listing state onto a single status event.
// A remote "pending" carries no new information and maps to no event.
func eventForRemoteState(state places.ListingState) (model.ProviderEvent, bool) {
	switch state {
	case places.StateLive:
		return model.EventConfirmedLive, true
	case places.StateReview:
		return model.EventFlaggedForReview, true
	case places.StateSuspended:
		return model.EventRejected, true
	default:
		return "", false
	}
}

// classify maps a provider client error into exactly one taxonomy kind with a
// caller-safe detail string.
func classify(err error) (model.ErrorKind, string) {
	var valErr *places.ValidationError
	if errors.As(err, &valErr) {
		return model.ErrKindValidation, "missing required fields: " + strings.Join(valErr.Missing, ", ")
	}

	var authErr *places.AuthError
	if errors.As(err, &authErr) {
		return model.ErrKindAuth, "provider rejected the agency credentials"
	}

	var provErr *places.ProviderError
	if errors.As(err, &provErr) {
		return model.ErrKindProvider, provErr.Message
	}

	// Transport failures, timeouts, and malformed responses: nothing
	// well-formed came back, so the status must not move.
	return model.ErrKindTransport, "provider unreachable or timed out"
}

// isTransportFailure reports whether err should count toward the circuit
// breaker's failure threshold.
func isTransportFailure(err error) bool {
	var transportErr *places.TransportError
	return errors.As(err, &transportErr) || resilience.IsTransient(err)
}
