package scenario_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

func TestResolveParticipant_Defaults(t *testing.T) {
	p, err := scenario.ResolveParticipant(scenario.ParticipantDoc{Name: "Anne"})
	require.NoError(t, err)

	require.Equal(t, "Anne", p.Name)
	require.True(t, p.Enabled, "absent enabled flag defaults to true")
	require.Zero(t, p.Contribution)
	require.Zero(t, p.Surface)
	require.True(t, p.EntryDate.IsZero())
	require.Nil(t, p.ExitDate)
}

func TestResolveParticipant_ExplicitlyDisabled(t *testing.T) {
	disabled := false
	p, err := scenario.ResolveParticipant(scenario.ParticipantDoc{Name: "Anne", Enabled: &disabled})
	require.NoError(t, err)
	require.False(t, p.Enabled)
}

func TestResolveParticipant_Dates(t *testing.T) {
	p, err := scenario.ResolveParticipant(scenario.ParticipantDoc{
		Name:      "Benoît",
		EntryDate: "2024-03-01",
		ExitDate:  "2027-09-15",
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), p.EntryDate)
	require.NotNil(t, p.ExitDate)
	require.Equal(t, time.Date(2027, 9, 15, 0, 0, 0, 0, time.UTC), *p.ExitDate)

	_, err = scenario.ResolveParticipant(scenario.ParticipantDoc{Name: "Benoît", EntryDate: "01/03/2024"})
	require.Error(t, err)
}

func TestResolveParticipants_PositionPreserved(t *testing.T) {
	docs := []scenario.ParticipantDoc{{Name: "Anne"}, {Name: "Benoît"}, {Name: "Claire"}}
	ps, err := scenario.ResolveParticipants(docs)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	require.Equal(t, "Benoît", ps[1].Name)
}

func TestEncodeParticipant_RoundTrip(t *testing.T) {
	exit := time.Date(2027, 9, 15, 0, 0, 0, 0, time.UTC)
	rate := 3.1
	orig := scenario.Participant{
		Name:                 "Claire",
		Enabled:              false,
		Contribution:         42000,
		Surface:              65.5,
		RoomCount:            3,
		EntryDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExitDate:             &exit,
		InterestRateOverride: &rate,
		LotsOwned:            []scenario.Lot{{ID: "lot-1", Surface: 65.5, Tantiemes: 130}},
	}

	doc := scenario.EncodeParticipant(orig)
	require.Equal(t, "2024-03-01", doc.EntryDate)
	require.Equal(t, "2027-09-15", doc.ExitDate)
	require.NotNil(t, doc.Enabled)
	require.False(t, *doc.Enabled)

	back, err := scenario.ResolveParticipant(doc)
	require.NoError(t, err)
	require.Empty(t, scenario.ChangedIndices(
		[]scenario.Participant{orig}, []scenario.Participant{back}))
}

func TestValidateSnapshot(t *testing.T) {
	require.ErrorIs(t, scenario.ValidateSnapshot(nil), scenario.ErrInvalidSnapshot)

	snap := &scenario.Snapshot{ProjectID: "  "}
	require.ErrorIs(t, scenario.ValidateSnapshot(snap), scenario.ErrInvalidSnapshot)

	snap = &scenario.Snapshot{ProjectID: "castor", Version: -1}
	require.ErrorIs(t, scenario.ValidateSnapshot(snap), scenario.ErrInvalidSnapshot)

	snap = &scenario.Snapshot{
		ProjectID:    "castor",
		Version:      3,
		Participants: []scenario.Participant{participantFixture("Anne")},
	}
	require.NoError(t, scenario.ValidateSnapshot(snap))

	snap.Participants[0].Contribution = -1
	require.ErrorIs(t, scenario.ValidateSnapshot(snap), scenario.ErrInvalidParticipant)
}

func TestValidateParticipant_ExitBeforeEntry(t *testing.T) {
	p := participantFixture("Anne")
	exit := p.EntryDate.AddDate(-1, 0, 0)
	p.ExitDate = &exit
	require.ErrorIs(t, scenario.ValidateParticipant(&p), scenario.ErrInvalidParticipant)
}
