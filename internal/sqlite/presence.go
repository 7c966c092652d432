package sqlite

import (
	"context"
	"fmt"

	"github.com/castorcoop/scenariosync/internal/domain/presence"
)

// PresenceRepository implements repository.PresenceRepository for SQLite
type PresenceRepository struct {
	db *DB
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(db *DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Upsert writes or refreshes a session's presence record.
func (r *PresenceRepository) Upsert(ctx context.Context, rec *presence.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO presence (project_id, session_id, identity, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, session_id) DO UPDATE SET
			identity = excluded.identity,
			last_seen = excluded.last_seen
	`, rec.ProjectID, rec.SessionID, rec.Identity, rec.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}

// Remove deletes a session's presence record.
func (r *PresenceRepository) Remove(ctx context.Context, projectID, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM presence WHERE project_id = ? AND session_id = ?`,
		projectID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}
	return nil
}

// List returns every presence record of a project, stale ones included;
// staleness filtering is the reader's job.
func (r *PresenceRepository) List(ctx context.Context, projectID string) ([]presence.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, session_id, identity, last_seen
		FROM presence
		WHERE project_id = ?
		ORDER BY last_seen DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}
	defer rows.Close()

	var records []presence.Record
	for rows.Next() {
		var rec presence.Record
		if err := rows.Scan(&rec.ProjectID, &rec.SessionID, &rec.Identity, &rec.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presence rows: %w", err)
	}
	return records, nil
}
