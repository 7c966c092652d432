package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/castorcoop/scenariosync/internal/domain/lock"
)

// LockStore implements the lock store adapter on SQLite. Each call wraps one
// read-modify-write in a single transaction; SQLite's single-writer model
// guarantees that two simultaneous callers serialize, so at most one of them
// sees the project as unlocked.
type LockStore struct {
	db *DB
}

// NewLockStore creates a new LockStore
func NewLockStore(db *DB) *LockStore {
	return &LockStore{db: db}
}

// RunLockTxn reads the project's lock row, runs the decision closure, and
// applies its outcome, all inside one transaction.
func (s *LockStore) RunLockTxn(ctx context.Context, projectID string, fn lock.TxnFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin lock transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanLock(tx.QueryRowContext(ctx, `
		SELECT project_id, owner_identity, session_id, acquired_at, expires_at, last_heartbeat
		FROM edit_locks
		WHERE project_id = ?
	`, projectID))
	if err != nil {
		return err
	}

	outcome, next := fn(current)
	switch outcome {
	case lock.TxnNone:

	case lock.TxnPut:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO edit_locks (project_id, owner_identity, session_id, acquired_at, expires_at, last_heartbeat)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(project_id) DO UPDATE SET
				owner_identity = excluded.owner_identity,
				session_id = excluded.session_id,
				acquired_at = excluded.acquired_at,
				expires_at = excluded.expires_at,
				last_heartbeat = excluded.last_heartbeat
		`, next.ProjectID, next.OwnerIdentity, next.SessionID,
			next.AcquiredAt, next.ExpiresAt, next.LastHeartbeat)
		if err != nil {
			return fmt.Errorf("failed to write lock: %w", err)
		}

	case lock.TxnDelete:
		_, err = tx.ExecContext(ctx, `DELETE FROM edit_locks WHERE project_id = ?`, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete lock: %w", err)
		}

	default:
		return fmt.Errorf("unknown lock transaction outcome %d", outcome)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lock transaction: %w", err)
	}
	return nil
}

// Get returns the current lock row, nil when the project is unlocked.
func (s *LockStore) Get(ctx context.Context, projectID string) (*lock.EditLock, error) {
	return scanLock(s.db.QueryRowContext(ctx, `
		SELECT project_id, owner_identity, session_id, acquired_at, expires_at, last_heartbeat
		FROM edit_locks
		WHERE project_id = ?
	`, projectID))
}

func scanLock(row *sql.Row) (*lock.EditLock, error) {
	var lk lock.EditLock
	err := row.Scan(&lk.ProjectID, &lk.OwnerIdentity, &lk.SessionID,
		&lk.AcquiredAt, &lk.ExpiresAt, &lk.LastHeartbeat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}
	return &lk, nil
}
