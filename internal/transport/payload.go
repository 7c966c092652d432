package transport

import (
	"time"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/domain/syncdoc"
)

// snapshotPayload is the wire form of a project snapshot. Participants travel
// in their raw document form both directions, so a client omitting an
// optional field gets the same defaults the storage load boundary applies.
type snapshotPayload struct {
	ProjectID                   string                    `json:"project_id"`
	Participants                []scenario.ParticipantDoc `json:"participants"`
	ParticipantsInSubcollection bool                      `json:"participants_in_subcollection"`
	ProjectParams               scenario.ProjectParams    `json:"project_params"`
	DeedDate                    string                    `json:"deed_date"`
	FormulaParams               scenario.FormulaParams    `json:"formula_params"`
	Version                     int64                     `json:"version"`
	LastModifiedBy              string                    `json:"last_modified_by"`
	LastModifiedAt              time.Time                 `json:"last_modified_at"`
}

func encodeSnapshot(snap *scenario.Snapshot) *snapshotPayload {
	if snap == nil {
		return nil
	}
	return &snapshotPayload{
		ProjectID:                   snap.ProjectID,
		Participants:                scenario.EncodeParticipants(snap.Participants),
		ParticipantsInSubcollection: snap.ParticipantsInSubcollection,
		ProjectParams:               snap.ProjectParams,
		DeedDate:                    snap.DeedDate,
		FormulaParams:               snap.FormulaParams,
		Version:                     snap.Version,
		LastModifiedBy:              snap.LastModifiedBy,
		LastModifiedAt:              snap.LastModifiedAt,
	}
}

func (p *snapshotPayload) toSnapshot() (*scenario.Snapshot, error) {
	participants, err := scenario.ResolveParticipants(p.Participants)
	if err != nil {
		return nil, err
	}
	return &scenario.Snapshot{
		ProjectID:                   p.ProjectID,
		Participants:                participants,
		ParticipantsInSubcollection: p.ParticipantsInSubcollection,
		ProjectParams:               p.ProjectParams,
		DeedDate:                    p.DeedDate,
		FormulaParams:               p.FormulaParams,
		Version:                     p.Version,
		LastModifiedBy:              p.LastModifiedBy,
		LastModifiedAt:              p.LastModifiedAt,
	}, nil
}

// conflictPayload mirrors syncdoc.ConflictReport with snapshots in wire form.
type conflictPayload struct {
	HasConflict bool             `json:"has_conflict"`
	Local       *snapshotPayload `json:"local,omitempty"`
	Remote      *snapshotPayload `json:"remote,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

func encodeConflict(report *syncdoc.ConflictReport) conflictPayload {
	if report == nil {
		return conflictPayload{HasConflict: false}
	}
	return conflictPayload{
		HasConflict: report.HasConflict,
		Local:       encodeSnapshot(report.Local),
		Remote:      encodeSnapshot(report.Remote),
		Reason:      report.Reason,
	}
}
