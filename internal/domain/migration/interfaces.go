package migration

import (
	"context"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

// ScenarioStore reads the project document being migrated.
type ScenarioStore interface {
	Get(ctx context.Context, projectID string) (*scenario.Snapshot, error)
}

// ParticipantStore reads back per-participant records for validation.
type ParticipantStore interface {
	List(ctx context.Context, projectID string) ([]scenario.ParticipantRecord, error)
}

// Store carries the migration-specific storage operations.
type Store interface {
	IsMigrated(ctx context.Context, projectID string) (bool, error)
	CommitMigration(ctx context.Context, projectID string, records []scenario.ParticipantRecord) error
}
