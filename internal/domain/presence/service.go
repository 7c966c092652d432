package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultHeartbeatInterval is the beat cadence advertised to clients.
	DefaultHeartbeatInterval = 5 * time.Second
	// DefaultStaleThreshold is how old a record may be and still count as
	// active.
	DefaultStaleThreshold = 15 * time.Second
)

// Tracker records liveness beats and computes the active collaborator set.
// Beats are client-driven: a session that vanishes simply stops beating and
// drops out of the active set once its record goes stale. Informational
// only: nothing in locking or sync gates on presence.
type Tracker struct {
	repo     Repository
	logger   *slog.Logger
	interval time.Duration
	stale    time.Duration
	now      func() time.Time
}

// Option configures the tracker.
type Option func(*Tracker)

// WithHeartbeatInterval overrides the advertised beat cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(t *Tracker) { t.interval = d }
}

// WithStaleThreshold overrides the inactivity threshold.
func WithStaleThreshold(d time.Duration) Option {
	return func(t *Tracker) { t.stale = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a presence tracker.
func NewTracker(repo Repository, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		repo:     repo,
		logger:   logger,
		interval: DefaultHeartbeatInterval,
		stale:    DefaultStaleThreshold,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Beat writes or refreshes the session's presence record. Clients call it at
// the advertised cadence; a session that stops calling goes stale on its own.
func (t *Tracker) Beat(ctx context.Context, projectID, identity, sessionID string) error {
	rec := &Record{
		ProjectID: projectID,
		Identity:  identity,
		SessionID: sessionID,
		LastSeen:  t.now(),
	}
	if err := t.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("writing presence: %w", err)
	}
	return nil
}

// Stop removes the session's record. Removal is best-effort: a killed
// process leaves a record that readers filter out once stale.
func (t *Tracker) Stop(ctx context.Context, projectID, sessionID string) error {
	if err := t.repo.Remove(ctx, projectID, sessionID); err != nil {
		return fmt.Errorf("removing presence: %w", err)
	}
	return nil
}

// Active returns the collaborators whose last beat is within the staleness
// threshold.
func (t *Tracker) Active(ctx context.Context, projectID string) ([]Collaborator, error) {
	records, err := t.repo.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing presence: %w", err)
	}

	cutoff := t.now().Add(-t.stale)
	var active []Collaborator
	for _, rec := range records {
		if rec.LastSeen.Before(cutoff) {
			continue
		}
		active = append(active, Collaborator{
			Identity:  rec.Identity,
			SessionID: rec.SessionID,
			LastSeen:  rec.LastSeen,
		})
	}
	return active, nil
}

// HeartbeatEvery returns the beat cadence clients should follow.
func (t *Tracker) HeartbeatEvery() time.Duration {
	return t.interval
}
