package lock

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultLease is how long a lock lives without renewal. Lease expiry is
	// the authoritative recovery path for a vanished holder: the server never
	// renews a lease on a client's behalf.
	DefaultLease = 5 * time.Minute
	// DefaultHeartbeatInterval is the renewal cadence advertised to a
	// successful acquirer, well inside the lease window.
	DefaultHeartbeatInterval = 30 * time.Second
)

// Service implements acquire / release / extend / force-release semantics on
// top of the lock store adapter. Renewal is client-driven: a holder keeps the
// lock by calling Extend before RenewBy, and a holder that goes silent, for
// whatever reason, loses it at ExpiresAt.
type Service struct {
	store       Store
	logger      *slog.Logger
	lease       time.Duration
	interval    time.Duration
	adminSecret string
	now         func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLease overrides the lease duration.
func WithLease(d time.Duration) Option {
	return func(s *Service) { s.lease = d }
}

// WithHeartbeatInterval overrides the advertised renewal cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

// WithAdminSecret enables force-release with the given shared secret.
func WithAdminSecret(secret string) Option {
	return func(s *Service) { s.adminSecret = secret }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a lock service.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   logger,
		lease:    DefaultLease,
		interval: DefaultHeartbeatInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire attempts to take the project's edit lock for (identity, sessionID).
// The same owner always succeeds and extends its own lease; an expired lock
// held by someone else is overwritten; a live foreign lock denies with the
// holder attached for display. A successful result carries RenewBy, the
// deadline for the holder's next Extend call.
func (s *Service) Acquire(ctx context.Context, projectID, identity, sessionID string) (AcquireResult, error) {
	var res AcquireResult
	err := s.store.RunLockTxn(ctx, projectID, func(current *EditLock) (TxnOutcome, *EditLock) {
		now := s.now()
		if current != nil && !current.OwnedBy(identity, sessionID) && !current.Expired(now) {
			holder := *current
			res = AcquireResult{
				Acquired: false,
				Holder:   &holder,
				Reason:   ReasonLocked,
				Message:  fmt.Sprintf("Le document est en cours de modification par %s", current.OwnerIdentity),
			}
			return TxnNone, nil
		}

		acquiredAt := now
		if current != nil && current.OwnedBy(identity, sessionID) {
			acquiredAt = current.AcquiredAt
		}
		lk := &EditLock{
			ProjectID:     projectID,
			OwnerIdentity: identity,
			SessionID:     sessionID,
			AcquiredAt:    acquiredAt,
			ExpiresAt:     now.Add(s.lease),
			LastHeartbeat: now,
		}
		res = AcquireResult{Acquired: true, Lock: lk, RenewBy: now.Add(s.interval)}
		return TxnPut, lk
	})
	if err != nil {
		return AcquireResult{}, fmt.Errorf("acquiring lock: %w", err)
	}

	if res.Acquired {
		s.logger.Info("lock acquired", "project", projectID, "identity", identity, "session", sessionID)
	} else {
		s.logger.Info("lock denied", "project", projectID, "identity", identity, "holder", res.Holder.OwnerIdentity)
	}
	return res, nil
}

// Release deletes the lock if the caller owns it. Returns false otherwise.
func (s *Service) Release(ctx context.Context, projectID, identity, sessionID string) (bool, error) {
	released := false
	err := s.store.RunLockTxn(ctx, projectID, func(current *EditLock) (TxnOutcome, *EditLock) {
		if current == nil || !current.OwnedBy(identity, sessionID) {
			return TxnNone, nil
		}
		released = true
		return TxnDelete, nil
	})
	if err != nil {
		return false, fmt.Errorf("releasing lock: %w", err)
	}
	if released {
		s.logger.Info("lock released", "project", projectID, "identity", identity)
	}
	return released, nil
}

// Extend refreshes the lease if the caller still owns the lock. Returns
// false when ownership was lost (expired and taken over, or force-released);
// a client seeing false must stop editing and re-acquire.
func (s *Service) Extend(ctx context.Context, projectID, identity, sessionID string) (bool, error) {
	extended := false
	err := s.store.RunLockTxn(ctx, projectID, func(current *EditLock) (TxnOutcome, *EditLock) {
		if current == nil || !current.OwnedBy(identity, sessionID) {
			return TxnNone, nil
		}
		now := s.now()
		lk := *current
		lk.ExpiresAt = now.Add(s.lease)
		lk.LastHeartbeat = now
		extended = true
		return TxnPut, &lk
	})
	if err != nil {
		return false, fmt.Errorf("extending lock: %w", err)
	}
	return extended, nil
}

// ForceRelease unconditionally deletes the lock after validating the shared
// admin secret. An empty configured secret disables the operation.
func (s *Service) ForceRelease(ctx context.Context, projectID, adminSecret string) error {
	if s.adminSecret == "" {
		return ErrForceReleaseDisabled
	}
	if subtle.ConstantTimeCompare([]byte(adminSecret), []byte(s.adminSecret)) != 1 {
		return ErrBadAdminSecret
	}

	err := s.store.RunLockTxn(ctx, projectID, func(current *EditLock) (TxnOutcome, *EditLock) {
		if current == nil {
			return TxnNone, nil
		}
		return TxnDelete, nil
	})
	if err != nil {
		return fmt.Errorf("force-releasing lock: %w", err)
	}
	s.logger.Warn("lock force-released", "project", projectID)
	return nil
}

// Get returns the current lock record for display, nil when unlocked.
func (s *Service) Get(ctx context.Context, projectID string) (*EditLock, error) {
	lk, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading lock: %w", err)
	}
	return lk, nil
}
