package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// migratedBy stamps records created by the migration itself.
const migratedBy = "migration"

// Service performs the one-time, atomic transition of participant storage
// from the embedded array to one record per participant.
type Service struct {
	scenarios    ScenarioStore
	participants ParticipantStore
	store        Store
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a migrator.
func NewService(scenarios ScenarioStore, participants ParticipantStore, store Store, logger *slog.Logger) *Service {
	return &Service{
		scenarios:    scenarios,
		participants: participants,
		store:        store,
		logger:       logger,
		now:          time.Now,
	}
}

// Migrate moves the project's participants into standalone records. The
// whole batch (every record insert, the migration flag, clearing the array)
// commits in one transaction: either the entire migration lands or none of
// it does. Running it again is a no-op reporting AlreadyMigrated.
func (s *Service) Migrate(ctx context.Context, projectID string) Result {
	migrated, err := s.store.IsMigrated(ctx, projectID)
	if err != nil {
		// Fail-safe: when the flag is unreadable, retry the migration
		// rather than silently skipping it.
		s.logger.Warn("migration flag unreadable, assuming not migrated",
			"project", projectID, "error", err)
		migrated = false
	}
	if migrated {
		return Result{Success: true, AlreadyMigrated: true, MigratedCount: 0}
	}

	snap, err := s.scenarios.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{Error: fmt.Sprintf("project document %s not found", projectID)}
		}
		return Result{Error: fmt.Sprintf("loading project document: %v", err)}
	}
	if len(snap.Participants) == 0 {
		return Result{Error: "project document has no participant array"}
	}

	now := s.now()
	records := make([]scenario.ParticipantRecord, len(snap.Participants))
	for i, p := range snap.Participants {
		records[i] = scenario.ParticipantRecord{
			Participant:    p,
			Version:        1,
			LastModifiedBy: migratedBy,
			LastModifiedAt: now,
			DisplayOrder:   i,
		}
	}

	if err := s.store.CommitMigration(ctx, projectID, records); err != nil {
		return Result{Error: fmt.Sprintf("committing migration batch: %v", err)}
	}

	s.logger.Info("storage migrated to per-participant records",
		"project", projectID, "count", len(records))
	return Result{Success: true, MigratedCount: len(records)}
}

// Validate independently re-reads the project document and every expected
// participant record after a migration.
func (s *Service) Validate(ctx context.Context, projectID string, expectedCount int) error {
	snap, err := s.scenarios.Get(ctx, projectID)
	if err != nil {
		return fmt.Errorf("reloading project document: %w", err)
	}
	if !snap.ParticipantsInSubcollection {
		return fmt.Errorf("migration flag not set on project %s", projectID)
	}
	if len(snap.Participants) != 0 {
		return fmt.Errorf("embedded participant array not cleared on project %s", projectID)
	}

	records, err := s.participants.List(ctx, projectID)
	if err != nil {
		return fmt.Errorf("listing participant records: %w", err)
	}
	if len(records) != expectedCount {
		return fmt.Errorf("expected %d participant records, found %d", expectedCount, len(records))
	}

	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		if rec.DisplayOrder < 0 || rec.DisplayOrder >= expectedCount {
			return fmt.Errorf("participant record with display order %d out of range", rec.DisplayOrder)
		}
		if seen[rec.DisplayOrder] {
			return fmt.Errorf("duplicate display order %d", rec.DisplayOrder)
		}
		seen[rec.DisplayOrder] = true
	}
	return nil
}
