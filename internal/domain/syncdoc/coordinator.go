package syncdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// SaveStrategy names the write path chosen for a save request.
type SaveStrategy string

const (
	// StrategyNone means nothing differed from the synced state.
	StrategyNone SaveStrategy = "none"
	// StrategyFull rewrites the entire document.
	StrategyFull SaveStrategy = "full_snapshot"
	// StrategyBatch writes only the changed participant records, as one
	// atomic batch.
	StrategyBatch SaveStrategy = "participant_batch"
	// StrategyFields writes only the dirty simple fields plus the shared
	// parameters block, with an optimistic version check.
	StrategyFields SaveStrategy = "granular_fields"
)

// SaveResult reports what a save request actually wrote.
type SaveResult struct {
	Strategy            SaveStrategy `json:"strategy"`
	Version             int64        `json:"version"`
	ChangedParticipants []int        `json:"changed_participants,omitempty"`
	FellBackToFull      bool         `json:"fell_back_to_full,omitempty"`
}

// ChangeNotification is one event on the remote store's live-update channel.
// Origin carries the writer's session ID so clients can drop their own echo.
type ChangeNotification struct {
	ProjectID string             `json:"project_id"`
	Version   int64              `json:"version"`
	Origin    string             `json:"origin"`
	Snapshot  *scenario.Snapshot `json:"snapshot,omitempty"`
}

// Coordinator orchestrates saves and inbound change handling for one client
// session. It chooses the cheapest correct write for each mutation, keeps the
// client's known version, and runs the conflict state machine.
type Coordinator struct {
	projectID string
	identity  string
	sessionID string

	scenarios    ScenarioStore
	participants ParticipantStore
	cache        SnapshotCache
	tracker      *scenario.FieldTracker
	logger       *slog.Logger
	now          func() time.Time
	onAdopt      func(*scenario.Snapshot)

	// Overlapping saves from the same client are rejected, not queued.
	saving atomic.Bool

	mu           sync.Mutex
	loaded       bool
	knownVersion int64
	lastSynced   []scenario.Participant
	local        *scenario.Snapshot
	conflicts    *conflictMachine
}

// CoordinatorOption configures a coordinator.
type CoordinatorOption func(*Coordinator)

// WithCache attaches the local fallback snapshot cache.
func WithCache(cache SnapshotCache) CoordinatorOption {
	return func(c *Coordinator) { c.cache = cache }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// WithOnAdopt registers a callback fired when a remote snapshot is adopted
// during conflict resolution, so the consuming application can re-render.
func WithOnAdopt(fn func(*scenario.Snapshot)) CoordinatorOption {
	return func(c *Coordinator) { c.onAdopt = fn }
}

// NewCoordinator creates a coordinator for one (identity, session) pair.
func NewCoordinator(
	projectID, identity, sessionID string,
	scenarios ScenarioStore,
	participants ParticipantStore,
	tracker *scenario.FieldTracker,
	logger *slog.Logger,
	opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		projectID:    projectID,
		identity:     identity,
		sessionID:    sessionID,
		scenarios:    scenarios,
		participants: participants,
		tracker:      tracker,
		logger:       logger,
		now:          time.Now,
		conflicts:    newConflictMachine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the current snapshot, validates it, and primes the
// coordinator's known version and synced participant state. A store failure
// surfaces to the caller: a fresh load never falls back silently to the
// local cache.
func (c *Coordinator) Load(ctx context.Context) (*scenario.Snapshot, error) {
	snap, err := c.scenarios.Get(ctx, c.projectID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if err := scenario.ValidateSnapshot(snap); err != nil {
		return nil, err
	}

	if snap.ParticipantsInSubcollection {
		records, err := c.participants.List(ctx, c.projectID)
		if err != nil {
			return nil, fmt.Errorf("loading participants: %w", err)
		}
		snap.Participants = participantsFromRecords(records)
	}

	c.mu.Lock()
	c.loaded = true
	c.knownVersion = snap.Version
	c.lastSynced = cloneParticipants(snap.Participants)
	c.local = snap
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Store(c.projectID, snap); err != nil {
			c.logger.Warn("local cache refresh failed", "project", c.projectID, "error", err)
		}
	}
	return snap, nil
}

// LoadFromCache reads the local fallback snapshot. Only for use when the
// remote store is unreachable or not configured; the caller makes that call,
// never this coordinator.
func (c *Coordinator) LoadFromCache() (*scenario.Snapshot, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("no local cache configured")
	}
	snap, err := c.cache.Load(c.projectID)
	if err != nil {
		return nil, fmt.Errorf("loading cached snapshot: %w", err)
	}
	if err := scenario.ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save decides the cheapest correct write for the given working snapshot and
// executes it. Decision order:
//
//  1. reject if a save is already in flight for this client;
//  2. full-snapshot write when the participant list changed length, or when
//     more than one participant changed on the legacy array layout;
//  3. atomic participant batch when the document is migrated and one or more
//     participants changed;
//  4. granular field update (dirty simple fields + shared params) with an
//     optimistic version check, falling back to a full write on mismatch;
//  5. on success, advance the known version and the synced participant
//     snapshot, clear the tracker, refresh the local cache.
func (c *Coordinator) Save(ctx context.Context, snap *scenario.Snapshot) (SaveResult, error) {
	if !c.saving.CompareAndSwap(false, true) {
		return SaveResult{}, ErrSaveInProgress
	}
	defer c.saving.Store(false)

	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return SaveResult{}, ErrNotLoaded
	}
	known := c.knownVersion
	lastSynced := c.lastSynced
	c.mu.Unlock()

	changed := scenario.ChangedIndices(lastSynced, snap.Participants)
	lengthChanged := len(snap.Participants) != len(lastSynced)
	dirty := c.tracker.DirtyFields()
	now := c.now()

	result := SaveResult{Strategy: StrategyNone, Version: known, ChangedParticipants: changed}

	switch {
	case lengthChanged || (!snap.ParticipantsInSubcollection && len(changed) > 1):
		version, err := c.fullWrite(ctx, snap, known, now)
		if err != nil {
			return SaveResult{}, err
		}
		result.Strategy = StrategyFull
		result.Version = version
		c.logger.Info("full document save", "project", c.projectID, "version", version)

	case snap.ParticipantsInSubcollection && len(changed) > 0:
		if err := c.batchWrite(ctx, snap, changed, now); err != nil {
			return SaveResult{}, err
		}
		result.Strategy = StrategyBatch
		c.logger.Info("participant batch save", "project", c.projectID, "count", len(changed))

		// Dirty simple fields ride along in the same save request.
		if len(dirty) > 0 {
			version, fellBack, err := c.fieldWrite(ctx, snap, dirty, known, now)
			if err != nil {
				return SaveResult{}, err
			}
			result.Version = version
			result.FellBackToFull = fellBack
		}

	case len(changed) == 1:
		// Legacy array layout, single participant: the whole array travels
		// as one granular field.
		dirty = append(dirty, repository.FieldParticipants)
		version, fellBack, err := c.fieldWrite(ctx, snap, dirty, known, now)
		if err != nil {
			return SaveResult{}, err
		}
		result.Strategy = StrategyFields
		result.Version = version
		result.FellBackToFull = fellBack
		c.logger.Info("granular update", "project", c.projectID, "version", version, "fields", dirty)

	case len(dirty) > 0:
		version, fellBack, err := c.fieldWrite(ctx, snap, dirty, known, now)
		if err != nil {
			return SaveResult{}, err
		}
		result.Strategy = StrategyFields
		result.Version = version
		result.FellBackToFull = fellBack
		c.logger.Info("granular update", "project", c.projectID, "version", version, "fields", dirty)

	default:
		return result, nil
	}

	c.mu.Lock()
	c.knownVersion = result.Version
	c.lastSynced = cloneParticipants(snap.Participants)
	local := *snap
	local.Version = result.Version
	local.LastModifiedBy = c.identity
	local.LastModifiedAt = now
	c.local = &local
	c.mu.Unlock()

	c.tracker.Clear()

	if c.cache != nil {
		if err := c.cache.Store(c.projectID, &local); err != nil {
			c.logger.Warn("local cache refresh failed", "project", c.projectID, "error", err)
		}
	}
	return result, nil
}

// ObserveRemote handles one inbound change notification. Own echoes and
// notifications arriving before the first load are ignored; a remote version
// beyond the known one raises a conflict for user decision.
func (c *Coordinator) ObserveRemote(n ChangeNotification) *ConflictReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.Origin == c.sessionID {
		return nil
	}
	if !c.loaded {
		return nil
	}
	if n.Version <= c.knownVersion {
		return nil
	}

	report := &ConflictReport{
		HasConflict: true,
		Local:       c.local,
		Remote:      n.Snapshot,
		Reason: fmt.Sprintf(
			"Le document a été modifié par un autre utilisateur (version distante %d, version locale %d)",
			n.Version, c.knownVersion),
	}
	c.conflicts.detect(report)
	c.logger.Info("conflict detected", "project", c.projectID,
		"remote_version", n.Version, "known_version", c.knownVersion)
	return report
}

// Resolve applies the user's whole-document choice for the pending conflict.
// "remote" returns the adopted snapshot; "local" and "cancel" return nil.
func (c *Coordinator) Resolve(ctx context.Context, choice Resolution) (*scenario.Snapshot, error) {
	switch choice {
	case ResolutionLocal, ResolutionRemote, ResolutionCancel:
	default:
		return nil, ErrUnknownResolution
	}

	c.mu.Lock()
	report, err := c.conflicts.resolve()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if choice != ResolutionRemote {
		c.logger.Info("conflict dismissed", "project", c.projectID, "choice", string(choice))
		return nil, nil
	}

	remote := report.Remote
	if remote == nil {
		remote, err = c.scenarios.Get(ctx, c.projectID)
		if err != nil {
			return nil, fmt.Errorf("fetching remote snapshot: %w", err)
		}
		if remote.ParticipantsInSubcollection {
			records, err := c.participants.List(ctx, c.projectID)
			if err != nil {
				return nil, fmt.Errorf("fetching remote participants: %w", err)
			}
			remote.Participants = participantsFromRecords(records)
		}
	}
	if err := scenario.ValidateSnapshot(remote); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.knownVersion = remote.Version
	c.lastSynced = cloneParticipants(remote.Participants)
	c.local = remote
	c.mu.Unlock()

	c.tracker.Clear()

	if c.cache != nil {
		if err := c.cache.Store(c.projectID, remote); err != nil {
			c.logger.Warn("local cache refresh failed", "project", c.projectID, "error", err)
		}
	}
	if c.onAdopt != nil {
		c.onAdopt(remote)
	}
	c.logger.Info("remote snapshot adopted", "project", c.projectID, "version", remote.Version)
	return remote, nil
}

// KnownVersion returns the last version this client observed or wrote.
func (c *Coordinator) KnownVersion() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.knownVersion
}

// ConflictState returns the resolver's current state.
func (c *Coordinator) ConflictState() ConflictState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conflicts.state
}

// PendingConflict returns the detected conflict report, nil if none.
func (c *Coordinator) PendingConflict() *ConflictReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conflicts.report
}

// SessionID returns the session this coordinator belongs to.
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Tracker returns the field change tracker for this session.
func (c *Coordinator) Tracker() *scenario.FieldTracker {
	return c.tracker
}

func (c *Coordinator) fullWrite(ctx context.Context, snap *scenario.Snapshot, known int64, now time.Time) (int64, error) {
	doc := *snap
	doc.ProjectID = c.projectID
	doc.Version = known + 1
	doc.LastModifiedBy = c.identity
	doc.LastModifiedAt = now
	if err := c.scenarios.Replace(ctx, &doc); err != nil {
		return 0, fmt.Errorf("full snapshot write: %w", err)
	}
	return doc.Version, nil
}

func (c *Coordinator) batchWrite(ctx context.Context, snap *scenario.Snapshot, changed []int, now time.Time) error {
	changes := make([]repository.ParticipantChange, 0, len(changed))
	for _, i := range changed {
		changes = append(changes, repository.ParticipantChange{
			DisplayOrder: i,
			Participant:  snap.Participants[i],
			By:           c.identity,
			At:           now,
		})
	}
	if err := c.participants.BatchUpdate(ctx, c.projectID, changes); err != nil {
		return fmt.Errorf("participant batch write: %w", err)
	}
	return nil
}

func (c *Coordinator) fieldWrite(ctx context.Context, snap *scenario.Snapshot, dirty []string, known int64, now time.Time) (version int64, fellBack bool, err error) {
	fields := make(map[string]any, len(dirty))
	for _, f := range dirty {
		switch f {
		case repository.FieldDeedDate:
			fields[f] = snap.DeedDate
		case repository.FieldFormulaParams:
			fields[f] = snap.FormulaParams
		case repository.FieldParticipants:
			if snap.ParticipantsInSubcollection {
				// The migrated layout keeps the embedded array empty;
				// participant changes travel through the batch path.
				c.logger.Warn("embedded participants field ignored on migrated document",
					"project", c.projectID)
				continue
			}
			fields[f] = snap.Participants
		default:
			c.logger.Warn("unknown dirty field skipped", "field", f)
		}
	}

	upd := repository.FieldUpdate{
		Fields:          fields,
		Params:          snap.ProjectParams,
		ExpectedVersion: known,
		By:              c.identity,
		At:              now,
	}
	err = c.scenarios.UpdateFields(ctx, c.projectID, upd)
	if err == nil {
		return known + 1, false, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return 0, false, fmt.Errorf("granular field update: %w", err)
	}

	// Version mismatch on the granular path falls back to a full write
	// rather than failing the save outright.
	c.logger.Warn("granular update version mismatch, falling back to full write",
		"project", c.projectID, "expected_version", known)
	version, err = c.fullWrite(ctx, snap, known, now)
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

func cloneParticipants(ps []scenario.Participant) []scenario.Participant {
	if ps == nil {
		return nil
	}
	out := make([]scenario.Participant, len(ps))
	copy(out, ps)
	for i := range out {
		if ps[i].LotsOwned != nil {
			out[i].LotsOwned = append([]scenario.Lot(nil), ps[i].LotsOwned...)
		}
		if ps[i].Purchase != nil {
			p := *ps[i].Purchase
			out[i].Purchase = &p
		}
		if ps[i].ExitDate != nil {
			d := *ps[i].ExitDate
			out[i].ExitDate = &d
		}
		if ps[i].InterestRateOverride != nil {
			v := *ps[i].InterestRateOverride
			out[i].InterestRateOverride = &v
		}
		if ps[i].InsuranceRateOverride != nil {
			v := *ps[i].InsuranceRateOverride
			out[i].InsuranceRateOverride = &v
		}
	}
	return out
}

func participantsFromRecords(records []scenario.ParticipantRecord) []scenario.Participant {
	out := make([]scenario.Participant, len(records))
	for i, rec := range records {
		out[i] = rec.Participant
	}
	return out
}
