// Package model defines the location record, the sync-status state machine,
// and the outcome types shared across the sync core.
package model

import "time"

// SyncStatus represents a location's state relative to the listings provider.
type SyncStatus string

const (
	// SyncStatusPendingUpload means the location was created locally and has
	// never been successfully sent, or the last publish attempt failed.
	SyncStatusPendingUpload SyncStatus = "pending_upload"
	// SyncStatusPending means the provider accepted the listing and it is
	// awaiting provider-side review.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusUnderReview means the provider flagged the listing for manual review.
	SyncStatusUnderReview SyncStatus = "under_review"
	// SyncStatusActive means the provider confirms the listing is live.
	SyncStatusActive SyncStatus = "active"
	// SyncStatusSuspended means the provider rejected or disabled the listing.
	SyncStatusSuspended SyncStatus = "suspended"
)

// AllSyncStatuses is the closed set of valid sync statuses. The storage CHECK
// constraint enumerates the same values; the two must change in lock-step.
var AllSyncStatuses = []SyncStatus{
	SyncStatusPendingUpload,
	SyncStatusPending,
	SyncStatusUnderReview,
	SyncStatusActive,
	SyncStatusSuspended,
}

// Valid reports whether s is a member of the closed enumeration.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusPendingUpload, SyncStatusPending, SyncStatusUnderReview,
		SyncStatusActive, SyncStatusSuspended:
		return true
	default:
		return false
	}
}

// Location is a business listing owned by one agency.
type Location struct {
	ID                string     `json:"id"`
	AgencyID          string     `json:"agency_id"`
	Name              string     `json:"name"`
	Street            string     `json:"street"`
	City              string     `json:"city"`
	Country           string     `json:"country"`
	Phone             string     `json:"phone"`
	Website           string     `json:"website,omitempty"`
	Latitude          float64    `json:"latitude"`
	Longitude         float64    `json:"longitude"`
	SyncStatus        SyncStatus `json:"sync_status"`
	ProviderListingID string     `json:"provider_listing_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// MissingFields returns the names of required fields that are absent. A
// location with any missing field must not be published.
func (l *Location) MissingFields() []string {
	var missing []string
	if l.Name == "" {
		missing = append(missing, "name")
	}
	if l.Street == "" {
		missing = append(missing, "street")
	}
	if l.City == "" {
		missing = append(missing, "city")
	}
	if l.Country == "" {
		missing = append(missing, "country")
	}
	if l.Phone == "" {
		missing = append(missing, "phone")
	}
	if l.Latitude == 0 && l.Longitude == 0 {
		missing = append(missing, "coordinates")
	}
	return missing
}

// Credentials holds an agency's provider access token. Looked up by agency id,
// never embedded in Location or SyncAttempt.
type Credentials struct {
	AgencyID  string    `json:"agency_id"`
	Token     string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
