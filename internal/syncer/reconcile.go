package syncer

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/internal/resilience"
	"github.com/localpulse/listings-cli/internal/store"
	"github.com/localpulse/listings-cli/pkg/places"
)

const defaultSweepConcurrency = 8

// SweepOptions configures a reconciliation sweep.
type SweepOptions struct {
	// AgencyID restricts the sweep to one agency. Empty sweeps every agency.
	AgencyID string

	// Concurrency bounds parallel provider polls. Default: 8.
	Concurrency int

	// Retry controls per-location poll retries.
	Retry resilience.RetryConfig
}

// SweepResult summarizes a reconciliation sweep.
type SweepResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Reconcile polls the provider for every location that holds a provider
// listing id and applies any resulting status transitions. Locations with a
// publish in flight are skipped rather than raced. Per-location failures are
// counted, not fatal; the error return is reserved for repository faults.
func (s *Syncer) Reconcile(ctx context.Context, opts SweepOptions) (*SweepResult, error) {
	log := zap.L().With(zap.String("agency_id", opts.AgencyID))

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}

	locations, err := s.store.ListLocations(ctx, store.LocationFilter{
		AgencyID:   opts.AgencyID,
		HasListing: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "syncer: list locations for sweep")
	}

	log.Info("reconcile sweep starting",
		zap.Int("locations", len(locations)),
		zap.Int("concurrency", concurrency),
	)

	var (
		mu     sync.Mutex
		result SweepResult
	)
	credCache := newCredentialCache(s.store)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, loc := range locations {
		g.Go(func() error {
			outcome := s.reconcileOne(gctx, credCache, loc, opts.Retry)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case sweepUpdated:
				result.Checked++
				result.Updated++
			case sweepUnchanged:
				result.Checked++
			case sweepSkipped:
				result.Skipped++
			case sweepFailed:
				result.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "syncer: reconcile sweep")
	}

	log.Info("reconcile sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return &result, nil
}

type sweepOutcome int

const (
	sweepUnchanged sweepOutcome = iota
	sweepUpdated
	sweepSkipped
	sweepFailed
)

func (s *Syncer) reconcileOne(ctx context.Context, creds *credentialCache, loc model.Location, retry resilience.RetryConfig) sweepOutcome {
	log := zap.L().With(
		zap.String("agency_id", loc.AgencyID),
		zap.String("location_id", loc.ID),
	)

	release, err := s.guard.TryAcquire(loc.AgencyID, loc.ID)
	if err != nil {
		log.Debug("skipping location with publish in flight")
		return sweepSkipped
	}
	defer release()

	// The list snapshot can be stale by the time the guard is held: a publish
	// may have finished in between. The transition must be computed from the
	// row as it stands inside the guard.
	current, err := s.store.GetLocation(ctx, loc.ID)
	if err != nil {
		log.Error("location reload failed", zap.Error(err))
		return sweepFailed
	}
	if current.ProviderListingID == "" {
		return sweepUnchanged
	}

	agencyCreds, err := creds.get(ctx, loc.AgencyID)
	if err != nil {
		log.Error("credential lookup failed", zap.Error(err))
		return sweepFailed
	}
	if agencyCreds == nil {
		log.Warn("agency has no provider credentials, cannot reconcile")
		return sweepFailed
	}

	if retry.ShouldRetry == nil {
		retry.ShouldRetry = isTransportFailure
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("fetch listing status")
	}

	state, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (places.ListingState, error) {
		return resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (places.ListingState, error) {
			return s.client.FetchStatus(ctx, places.Credentials{Token: agencyCreds.Token}, current.ProviderListingID)
		})
	})
	if err != nil {
		// Transient or otherwise, the local status stays put until the
		// provider answers.
		log.Warn("status poll failed", zap.Error(err))
		return sweepFailed
	}

	event, ok := eventForRemoteState(state)
	if !ok {
		return sweepUnchanged
	}

	next := model.NextStatus(current.SyncStatus, event)
	if next == current.SyncStatus {
		return sweepUnchanged
	}

	if err := s.store.UpdateSyncStatus(ctx, current.ID, next, current.ProviderListingID); err != nil {
		log.Error("status update failed", zap.Error(err))
		return sweepFailed
	}

	log.Info("status reconciled",
		zap.String("from", string(current.SyncStatus)),
		zap.String("to", string(next)),
	)
	return sweepUpdated
}

// credentialCache memoizes per-agency credential lookups for the duration of
// one sweep.
type credentialCache struct {
	store store.Store

	mu    sync.Mutex
	creds map[string]*model.Credentials
}

func newCredentialCache(st store.Store) *credentialCache {
	return &credentialCache{
		store: st,
		creds: make(map[string]*model.Credentials),
	}
}

func (c *credentialCache) get(ctx context.Context, agencyID string) (*model.Credentials, error) {
	c.mu.Lock()
	cached, ok := c.creds[agencyID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	creds, err := c.store.GetCredentials(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.creds[agencyID] = creds
	c.mu.Unlock()
	return creds, nil
}
