package presence

import "context"

// Repository persists presence records.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Remove(ctx context.Context, projectID, sessionID string) error
	List(ctx context.Context, projectID string) ([]Record, error)
}
