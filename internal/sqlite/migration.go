package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// MigrationStore implements repository.MigrationStore for SQLite
type MigrationStore struct {
	db *DB
}

// NewMigrationStore creates a new MigrationStore
func NewMigrationStore(db *DB) *MigrationStore {
	return &MigrationStore{db: db}
}

// IsMigrated reads the project's migration flag.
func (s *MigrationStore) IsMigrated(ctx context.Context, projectID string) (bool, error) {
	var inSub int
	err := s.db.QueryRowContext(ctx,
		`SELECT participants_in_subcollection FROM scenarios WHERE project_id = ?`,
		projectID).Scan(&inSub)
	if err == sql.ErrNoRows {
		return false, repository.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to read migration flag: %w", err)
	}
	return inSub != 0, nil
}

// CommitMigration writes every participant record, sets the migration flag,
// and clears the embedded array, all in one transaction. Either the whole
// migration lands or none of it does.
func (s *MigrationStore) CommitMigration(ctx context.Context, projectID string, records []scenario.ParticipantRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		doc, err := json.Marshal(scenario.EncodeParticipant(rec.Participant))
		if err != nil {
			return fmt.Errorf("failed to marshal participant %d: %w", rec.DisplayOrder, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO participants (project_id, display_order, doc, version, last_modified_by, last_modified_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, rec.DisplayOrder, string(doc), rec.Version, rec.LastModifiedBy, rec.LastModifiedAt)
		if err != nil {
			if isConstraintViolation(err, "FOREIGN KEY") {
				return fmt.Errorf("project %s: %w", projectID, repository.ErrNotFound)
			}
			return fmt.Errorf("failed to insert participant %d: %w", rec.DisplayOrder, err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE scenarios
		SET participants = '[]', participants_in_subcollection = 1, version = version + 1
		WHERE project_id = ?
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to flip migration flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
