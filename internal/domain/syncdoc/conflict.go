package syncdoc

import "github.com/castorcoop/scenariosync/internal/domain/scenario"

// Resolution is the user's whole-document choice for a detected conflict.
// There is no field-level merge.
type Resolution string

const (
	// ResolutionLocal discards the conflict and keeps editing; the next save
	// will be a full-snapshot write (last write wins at that point).
	ResolutionLocal Resolution = "local"
	// ResolutionRemote adopts the remote snapshot as the new local state.
	ResolutionRemote Resolution = "remote"
	// ResolutionCancel discards the conflict without any state mutation.
	ResolutionCancel Resolution = "cancel"
)

// ConflictState is the resolver's position in its state machine.
type ConflictState string

const (
	ConflictNone     ConflictState = "none"
	ConflictDetected ConflictState = "detected"
)

// ConflictReport surfaces a detected divergence between the version this
// client last observed and the version held by the remote store.
type ConflictReport struct {
	HasConflict bool               `json:"has_conflict"`
	Local       *scenario.Snapshot `json:"local,omitempty"`
	Remote      *scenario.Snapshot `json:"remote,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

// conflictMachine holds the NoConflict -> Detected -> Resolved transitions.
// Resolution returns the machine to NoConflict for the next detection.
type conflictMachine struct {
	state  ConflictState
	report *ConflictReport
}

func newConflictMachine() *conflictMachine {
	return &conflictMachine{state: ConflictNone}
}

func (m *conflictMachine) detect(report *ConflictReport) {
	m.state = ConflictDetected
	m.report = report
}

func (m *conflictMachine) resolve() (*ConflictReport, error) {
	if m.state != ConflictDetected || m.report == nil {
		return nil, ErrNoConflict
	}
	report := m.report
	m.state = ConflictNone
	m.report = nil
	return report, nil
}
