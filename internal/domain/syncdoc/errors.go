package syncdoc

import "errors"

var (
	// ErrSaveInProgress indicates a save is already in flight for this
	// client. Concurrent saves are rejected, not queued.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNotLoaded indicates the coordinator has no snapshot yet.
	ErrNotLoaded = errors.New("no snapshot loaded")
	// ErrNoConflict indicates a resolution was requested without a detected
	// conflict.
	ErrNoConflict = errors.New("no conflict to resolve")
	// ErrUnknownResolution indicates an unsupported resolution choice.
	ErrUnknownResolution = errors.New("unknown conflict resolution")
)
