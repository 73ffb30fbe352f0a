package model

// ProviderEvent is an explicit provider response driving a status transition.
// Transitions are never inferred from silence.
type ProviderEvent string

const (
	// EventAccepted: the provider accepted the listing submission.
	EventAccepted ProviderEvent = "accepted"
	// EventRejected: the provider rejected or disabled the listing.
	EventRejected ProviderEvent = "rejected"
	// EventFlaggedForReview: the provider flagged the listing for manual review.
	EventFlaggedForReview ProviderEvent = "flagged_for_review"
	// EventConfirmedLive: the provider confirms the listing is live.
	EventConfirmedLive ProviderEvent = "confirmed_live"
	// EventTransientFailure: network/timeout failure; never moves the status.
	EventTransientFailure ProviderEvent = "transient_failure"
)

// NextStatus computes the status following an explicit provider event. Pairs
// outside the transition table leave the status unchanged, so flaky
// connectivity can never move a listing to suspended or pending_upload.
func NextStatus(current SyncStatus, event ProviderEvent) SyncStatus {
	switch event {
	case EventTransientFailure:
		return current
	case EventAccepted:
		if current == SyncStatusPendingUpload || current == SyncStatusSuspended {
			return SyncStatusPending
		}
	case EventRejected:
		switch current {
		case SyncStatusPendingUpload, SyncStatusPending, SyncStatusUnderReview, SyncStatusActive:
			return SyncStatusSuspended
		}
	case EventFlaggedForReview:
		if current == SyncStatusPending {
			return SyncStatusUnderReview
		}
	case EventConfirmedLive:
		if current == SyncStatusPending || current == SyncStatusUnderReview {
			return SyncStatusActive
		}
	}
	return current
}
