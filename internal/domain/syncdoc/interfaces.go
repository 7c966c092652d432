package syncdoc

import (
	"context"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// ScenarioStore provides the project document operations the coordinator
// needs.
type ScenarioStore interface {
	Get(ctx context.Context, projectID string) (*scenario.Snapshot, error)
	Replace(ctx context.Context, snap *scenario.Snapshot) error
	UpdateFields(ctx context.Context, projectID string, upd repository.FieldUpdate) error
}

// ParticipantStore provides the per-participant batched write used on the
// migrated layout.
type ParticipantStore interface {
	List(ctx context.Context, projectID string) ([]scenario.ParticipantRecord, error)
	BatchUpdate(ctx context.Context, projectID string, changes []repository.ParticipantChange) error
}

// SnapshotCache is the local fallback store, refreshed after every
// successful sync and conflict resolution.
type SnapshotCache interface {
	Store(projectID string, snap *scenario.Snapshot) error
	Load(projectID string) (*scenario.Snapshot, error)
}
