package lock

import "time"

// EditLock grants one (identity, session) pair exclusive rights to edit the
// collectively-shared fields of a project. At most one non-expired lock
// exists per project at any instant.
type EditLock struct {
	ProjectID     string    `json:"project_id"`
	OwnerIdentity string    `json:"owner_identity"`
	SessionID     string    `json:"session_id"`
	AcquiredAt    time.Time `json:"acquired_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// OwnedBy reports whether the lock belongs to the given identity and session.
func (l *EditLock) OwnedBy(identity, sessionID string) bool {
	return l.OwnerIdentity == identity && l.SessionID == sessionID
}

// Expired reports whether the lease has lapsed at the given instant.
func (l *EditLock) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// AcquireResult reports the outcome of an acquisition attempt. Denial is an
// expected outcome, not an error: transport failures are returned separately.
type AcquireResult struct {
	Acquired bool      `json:"acquired"`
	Lock     *EditLock `json:"lock,omitempty"`
	Holder   *EditLock `json:"holder,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Message  string    `json:"message,omitempty"`

	// RenewBy is when the holder should call Extend next. A holder that
	// misses it risks losing the lock at ExpiresAt.
	RenewBy time.Time `json:"renew_by,omitzero"`
}

// ReasonLocked is the denial reason when another live lease holds the lock.
const ReasonLocked = "locked"
