package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus_TransientFailureNeverMoves(t *testing.T) {
	t.Parallel()

	for _, s := range AllSyncStatuses {
		assert.Equal(t, s, NextStatus(s, EventTransientFailure), string(s))
	}
}

func TestNextStatus_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current SyncStatus
		event   ProviderEvent
		want    SyncStatus
	}{
		{"first publish accepted", SyncStatusPendingUpload, EventAccepted, SyncStatusPending},
		{"first publish rejected", SyncStatusPendingUpload, EventRejected, SyncStatusSuspended},
		{"review confirms live", SyncStatusPending, EventConfirmedLive, SyncStatusActive},
		{"manual review confirms live", SyncStatusUnderReview, EventConfirmedLive, SyncStatusActive},
		{"flagged during review", SyncStatusPending, EventFlaggedForReview, SyncStatusUnderReview},
		{"live listing rejected", SyncStatusActive, EventRejected, SyncStatusSuspended},
		{"review listing rejected", SyncStatusUnderReview, EventRejected, SyncStatusSuspended},
		{"pending listing rejected", SyncStatusPending, EventRejected, SyncStatusSuspended},
		{"republish after suspension", SyncStatusSuspended, EventAccepted, SyncStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NextStatus(tt.current, tt.event))
		})
	}
}

// Pairs outside the table are no-ops: silence never drives a transition.
func TestNextStatus_UnlistedPairsUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current SyncStatus
		event   ProviderEvent
	}{
		{"active listing re-accepted", SyncStatusActive, EventAccepted},
		{"pending listing re-accepted", SyncStatusPending, EventAccepted},
		{"live confirm before any upload", SyncStatusPendingUpload, EventConfirmedLive},
		{"live confirm while suspended", SyncStatusSuspended, EventConfirmedLive},
		{"review flag while active", SyncStatusActive, EventFlaggedForReview},
		{"reject while suspended", SyncStatusSuspended, EventRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.current, NextStatus(tt.current, tt.event))
		})
	}
}
