package scenario

import (
	"fmt"
	"strings"
)

// ValidateSnapshot checks the structural integrity of a loaded snapshot.
// Loaded data is never trusted: a snapshot that fails here is rejected
// outright rather than partially applied.
func ValidateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if strings.TrimSpace(snap.ProjectID) == "" {
		return fmt.Errorf("%w: missing project id", ErrInvalidSnapshot)
	}
	if snap.Version < 0 {
		return fmt.Errorf("%w: negative version %d", ErrInvalidSnapshot, snap.Version)
	}
	for i := range snap.Participants {
		if err := ValidateParticipant(&snap.Participants[i]); err != nil {
			return fmt.Errorf("participant %d: %w", i, err)
		}
	}
	return nil
}

// ValidateParticipant checks a single resolved participant.
func ValidateParticipant(p *Participant) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidParticipant)
	}
	if p.Contribution < 0 || p.Surface < 0 || p.PersonalLoan < 0 {
		return fmt.Errorf("%w: negative financial input", ErrInvalidParticipant)
	}
	if p.ExitDate != nil && !p.EntryDate.IsZero() && p.ExitDate.Before(p.EntryDate) {
		return fmt.Errorf("%w: exit date before entry date", ErrInvalidParticipant)
	}
	for _, lot := range p.LotsOwned {
		if lot.Surface < 0 || lot.Tantiemes < 0 {
			return fmt.Errorf("%w: negative lot value", ErrInvalidParticipant)
		}
	}
	return nil
}
