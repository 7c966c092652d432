package presence

import "time"

// Record marks one session as active on a project. Stale records are
// filtered out by readers rather than actively deleted.
type Record struct {
	ProjectID string    `json:"project_id"`
	Identity  string    `json:"identity"`
	SessionID string    `json:"session_id"`
	LastSeen  time.Time `json:"last_seen"`
}

// Collaborator is the reader-facing view of an active session.
type Collaborator struct {
	Identity  string    `json:"identity"`
	SessionID string    `json:"session_id"`
	LastSeen  time.Time `json:"last_seen"`
}
