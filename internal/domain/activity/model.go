package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeScanRecorded     ActivityType = "scan_recorded"
	TypeScanRejected     ActivityType = "scan_rejected"
	TypeHistoryCleared   ActivityType = "history_cleared"
	TypeIdentityCreated  ActivityType = "identity_created"
	TypeIdentityUpdated  ActivityType = "identity_updated"
	TypeIdentityDeleted  ActivityType = "identity_deleted"
	TypeBackupRestored   ActivityType = "backup_restored"
	TypeSyncConfigured   ActivityType = "sync_configured"
	TypeSyncPushed       ActivityType = "sync_pushed"
	TypeSyncPulled       ActivityType = "sync_pulled"
	TypeSyncDisconnected ActivityType = "sync_disconnected"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ActivityType ActivityType `json:"type"`
	BadgeCode    string       `json:"badge_code,omitempty"`
	SubjectID    string       `json:"subject_id,omitempty"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
