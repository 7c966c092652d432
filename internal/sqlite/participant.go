package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// ParticipantRepository implements repository.ParticipantRepository for SQLite
type ParticipantRepository struct {
	db *DB
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// List returns all participant records of a project in display order.
func (r *ParticipantRepository) List(ctx context.Context, projectID string) ([]scenario.ParticipantRecord, error) {
	query := `
		SELECT display_order, doc, version, last_modified_by, last_modified_at
		FROM participants
		WHERE project_id = ?
		ORDER BY display_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var records []scenario.ParticipantRecord
	for rows.Next() {
		rec, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return records, nil
}

// Get retrieves one participant record by display order.
func (r *ParticipantRepository) Get(ctx context.Context, projectID string, displayOrder int) (*scenario.ParticipantRecord, error) {
	query := `
		SELECT display_order, doc, version, last_modified_by, last_modified_at
		FROM participants
		WHERE project_id = ? AND display_order = ?
	`

	row := r.db.QueryRowContext(ctx, query, projectID, displayOrder)
	rec, err := scanParticipant(row.Scan)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// BatchUpdate applies all changes in one transaction. Each record's current
// version is read inside the transaction, incremented, and written together
// with the new field values; every change commits or none does. Untouched
// records stay untouched.
func (r *ParticipantRepository) BatchUpdate(ctx context.Context, projectID string, changes []repository.ParticipantChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, change := range changes {
		var version int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM participants WHERE project_id = ? AND display_order = ?`,
			projectID, change.DisplayOrder,
		).Scan(&version)
		if err == sql.ErrNoRows {
			return fmt.Errorf("participant %d: %w", change.DisplayOrder, repository.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read participant version: %w", err)
		}

		doc, err := json.Marshal(scenario.EncodeParticipant(change.Participant))
		if err != nil {
			return fmt.Errorf("failed to marshal participant %d: %w", change.DisplayOrder, err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE participants
			SET doc = ?, version = ?, last_modified_by = ?, last_modified_at = ?
			WHERE project_id = ? AND display_order = ?
		`, string(doc), version+1, change.By, change.At, projectID, change.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to update participant %d: %w", change.DisplayOrder, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit participant batch: %w", err)
	}
	return nil
}

type scanFunc func(dest ...any) error

func scanParticipant(scan scanFunc) (*scenario.ParticipantRecord, error) {
	var (
		rec    scenario.ParticipantRecord
		rawDoc string
	)
	err := scan(&rec.DisplayOrder, &rawDoc, &rec.Version, &rec.LastModifiedBy, &rec.LastModifiedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}

	var doc scenario.ParticipantDoc
	if err := json.Unmarshal([]byte(rawDoc), &doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt participant record: %v", scenario.ErrInvalidParticipant, err)
	}
	p, err := scenario.ResolveParticipant(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scenario.ErrInvalidParticipant, err)
	}
	rec.Participant = p
	return &rec, nil
}
