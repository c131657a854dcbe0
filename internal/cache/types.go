package cache

import "time"

// SyncState of a locally recorded attendance event. Transitions are monotone:
// pending -> synced (terminal) or pending -> failed(n) -> pending again on the
// next flush. A synced event never leaves that state.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

// AttendanceEvent is one recognition attempt recorded locally, independent of
// network availability. Events are only removed by the retention trim.
type AttendanceEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	UserName     string    `json:"user_name"`
	Success      bool      `json:"success"`
	Distance     float64   `json:"distance,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	DisplayImage string    `json:"display_image,omitempty"`
	State        SyncState `json:"sync_state"`
	Attempts     int       `json:"sync_attempts,omitempty"`
	CachedAt     time.Time `json:"cached_at"`
	SyncedAt     time.Time `json:"synced_at,omitzero"`
}

// Unsynced reports whether the event still needs to reach the server.
func (e *AttendanceEvent) Unsynced() bool {
	return e.State != SyncSynced
}
