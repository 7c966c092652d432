package repository

import (
	"context"
	"time"

	"github.com/castorcoop/scenariosync/internal/domain/lock"
	"github.com/castorcoop/scenariosync/internal/domain/presence"
	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

// ScenarioRepository manages the project-level scenario document
type ScenarioRepository interface {
	Get(ctx context.Context, projectID string) (*scenario.Snapshot, error)
	Create(ctx context.Context, snap *scenario.Snapshot) error
	// Replace writes the full document unconditionally with the version
	// carried by snap. On the migrated layout the participant subcollection
	// is rewritten in the same transaction and the document keeps an empty
	// embedded array.
	Replace(ctx context.Context, snap *scenario.Snapshot) error
	// UpdateFields writes only the given simple fields plus the shared
	// parameters block, guarded by an optimistic version check. Returns
	// ErrConflict when the stored version differs from ExpectedVersion.
	UpdateFields(ctx context.Context, projectID string, upd FieldUpdate) error
}

// FieldUpdate describes a granular update of simple document fields.
type FieldUpdate struct {
	// Fields maps dirty field names (FieldDeedDate, FieldFormulaParams) to
	// their new values.
	Fields map[string]any
	// Params is the shared-parameters block, always included.
	Params          scenario.ProjectParams
	ExpectedVersion int64
	By              string
	At              time.Time
}

// Field names accepted by FieldUpdate. FieldParticipants carries the whole
// embedded array and is only valid on the legacy (non-migrated) layout.
const (
	FieldDeedDate      = "deed_date"
	FieldFormulaParams = "formula_params"
	FieldParticipants  = "participants"
)

// ParticipantRepository manages standalone per-participant records
// (the post-migration layout)
type ParticipantRepository interface {
	List(ctx context.Context, projectID string) ([]scenario.ParticipantRecord, error)
	Get(ctx context.Context, projectID string, displayOrder int) (*scenario.ParticipantRecord, error)
	// BatchUpdate applies all changes in one transaction: each touched
	// record's version is read, incremented and written atomically with the
	// new field values. All changes commit or none do.
	BatchUpdate(ctx context.Context, projectID string, changes []ParticipantChange) error
}

// ParticipantChange is one entry of a batched participant write.
type ParticipantChange struct {
	DisplayOrder int
	Participant  scenario.Participant
	By           string
	At           time.Time
}

// LockStore is the lock store adapter: one atomic read-modify-write
// transaction per call, over the single lock record of a project
type LockStore interface {
	RunLockTxn(ctx context.Context, projectID string, fn lock.TxnFunc) error
	Get(ctx context.Context, projectID string) (*lock.EditLock, error)
}

// PresenceRepository manages per-session liveness records
type PresenceRepository interface {
	Upsert(ctx context.Context, rec *presence.Record) error
	Remove(ctx context.Context, projectID, sessionID string) error
	List(ctx context.Context, projectID string) ([]presence.Record, error)
}

// MigrationStore supports the one-time array-to-subcollection migration
type MigrationStore interface {
	// IsMigrated reads the document's migration flag. Callers treat a read
	// failure as "not migrated" so the migration is retried, never skipped.
	IsMigrated(ctx context.Context, projectID string) (bool, error)
	// CommitMigration writes every per-participant record, sets the
	// migration flag and clears the embedded array in a single transaction.
	CommitMigration(ctx context.Context, projectID string, records []scenario.ParticipantRecord) error
}
