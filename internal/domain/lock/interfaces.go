package lock

import "context"

// TxnOutcome tells the store what to do with the lock row after the decision
// closure has run.
type TxnOutcome int

const (
	// TxnNone leaves the stored lock untouched.
	TxnNone TxnOutcome = iota
	// TxnPut writes the returned lock, replacing any existing one.
	TxnPut
	// TxnDelete removes the stored lock.
	TxnDelete
)

// TxnFunc is the decision closure run inside the store's transaction.
// current is nil when no lock row exists.
type TxnFunc func(current *EditLock) (TxnOutcome, *EditLock)

// Store is the lock store adapter: a single atomic read-modify-write
// primitive over the one lock record per project. The read, the decision and
// the write must happen in one transaction so that two simultaneous callers
// cannot both succeed.
type Store interface {
	RunLockTxn(ctx context.Context, projectID string, fn TxnFunc) error
	Get(ctx context.Context, projectID string) (*EditLock, error)
}
