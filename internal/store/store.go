// Package store persists locations, agency credentials, and the optional
// sync-attempt audit trail.
package store

import (
	"context"

	"github.com/localpulse/listings-cli/internal/model"
)

// LocationFilter specifies criteria for listing locations.
type LocationFilter struct {
	AgencyID   string           `json:"agency_id,omitempty"`
	Status     model.SyncStatus `json:"status,omitempty"`
	HasListing bool             `json:"has_listing,omitempty"` // only locations with a provider listing id
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the sync core.
type Store interface {
	// Locations
	CreateLocation(ctx context.Context, loc model.Location) (*model.Location, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)
	ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error)
	// UpdateSyncStatus writes the new status and provider listing id in a
	// single-row update, atomic with respect to concurrent sweeps.
	UpdateSyncStatus(ctx context.Context, id string, status model.SyncStatus, providerListingID string) error

	// Credentials
	GetCredentials(ctx context.Context, agencyID string) (*model.Credentials, error)
	UpsertCredentials(ctx context.Context, creds model.Credentials) error

	// Attempt audit trail (caller-chosen; the orchestrator never logs directly)
	LogAttempt(ctx context.Context, attempt model.SyncAttempt) error
	ListAttempts(ctx context.Context, locationID string, limit int) ([]model.SyncAttempt, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
