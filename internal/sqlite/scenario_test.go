package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
	"github.com/castorcoop/scenariosync/internal/sqlite"
)

func TestScenarioRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)
	got, err := repo.Get(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, seeded.ProjectID, got.ProjectID)
	require.Equal(t, seeded.Version, got.Version)
	require.Equal(t, seeded.DeedDate, got.DeedDate)
	require.Equal(t, seeded.ProjectParams, got.ProjectParams)
	require.Empty(t, scenario.ChangedIndices(seeded.Participants, got.Participants))

	_, err = repo.Get(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScenarioRepository_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)
	err := repo.Create(ctx, seeded)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestScenarioRepository_Get_ResolvesLegacyDefaults(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	// An older document where the enabled flag and most numbers are absent.
	_, err := db.Exec(`
		INSERT INTO scenarios (project_id, participants, version)
		VALUES ('legacy', '[{"name":"Anne"},{"name":"Benoît","enabled":false}]', 1)
	`)
	require.NoError(t, err)

	repo := sqlite.NewScenarioRepository(db)
	got, err := repo.Get(ctx, "legacy")
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	require.True(t, got.Participants[0].Enabled)
	require.False(t, got.Participants[1].Enabled)
	require.Zero(t, got.Participants[0].Contribution)
}

func TestScenarioRepository_Get_CorruptArrayRejected(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.Exec(`INSERT INTO scenarios (project_id, participants, version) VALUES ('bad', '{oops', 1)`)
	require.NoError(t, err)

	repo := sqlite.NewScenarioRepository(db)
	_, err = repo.Get(ctx, "bad")
	require.ErrorIs(t, err, scenario.ErrInvalidSnapshot)
}

func TestScenarioRepository_Replace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)

	updated := *seeded
	updated.Participants = append([]scenario.Participant(nil), seeded.Participants...)
	updated.Participants[0].Surface = 120
	updated.Version = 2
	updated.LastModifiedBy = "anne"
	require.NoError(t, repo.Replace(ctx, &updated))

	got, err := repo.Get(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, float64(120), got.Participants[0].Surface)

	updated.ProjectID = "unknown"
	require.ErrorIs(t, repo.Replace(ctx, &updated), repository.ErrNotFound)
}

func TestScenarioRepository_Replace_MigratedRewritesSubcollection(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)
	participants := sqlite.NewParticipantRepository(db)

	migrated := *seeded
	migrated.ParticipantsInSubcollection = true
	migrated.Participants = append([]scenario.Participant(nil), seeded.Participants...)
	migrated.Participants[1].MonthlyIncome = 3100
	migrated.Version = 2
	migrated.LastModifiedAt = time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Replace(ctx, &migrated))

	got, err := repo.Get(ctx, "castor")
	require.NoError(t, err)
	require.True(t, got.ParticipantsInSubcollection)
	require.Empty(t, got.Participants, "embedded array stays empty on the migrated layout")

	records, err := participants.List(ctx, "castor")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, float64(3100), records[1].MonthlyIncome)
}

func TestScenarioRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)
	at := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	err := repo.UpdateFields(ctx, "castor", repository.FieldUpdate{
		Fields: map[string]any{
			repository.FieldDeedDate:      "2026-06-01",
			repository.FieldFormulaParams: scenario.FormulaParams{PortageRate: 0.03},
		},
		Params:          scenario.ProjectParams{PurchasePrice: 870000},
		ExpectedVersion: 1,
		By:              "anne",
		At:              at,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, "2026-06-01", got.DeedDate)
	require.Equal(t, 0.03, got.FormulaParams.PortageRate)
	require.Equal(t, float64(870000), got.ProjectParams.PurchasePrice)
	require.Equal(t, "anne", got.LastModifiedBy)
	// Participants are untouched by a granular field write.
	require.Len(t, got.Participants, 2)
}

func TestScenarioRepository_UpdateFields_VersionConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)

	err := repo.UpdateFields(ctx, "castor", repository.FieldUpdate{
		Fields:          map[string]any{repository.FieldDeedDate: "2026-06-01"},
		ExpectedVersion: 99,
		By:              "anne",
		At:              time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	err = repo.UpdateFields(ctx, "unknown", repository.FieldUpdate{
		Fields:          map[string]any{repository.FieldDeedDate: "2026-06-01"},
		ExpectedVersion: 1,
		By:              "anne",
		At:              time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScenarioRepository_UpdateFields_ParticipantsAsField(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)

	changed := append([]scenario.Participant(nil), seeded.Participants...)
	changed[0].Contribution = 55000

	err := repo.UpdateFields(ctx, "castor", repository.FieldUpdate{
		Fields:          map[string]any{repository.FieldParticipants: changed},
		Params:          seeded.ProjectParams,
		ExpectedVersion: 1,
		By:              "anne",
		At:              time.Now(),
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, float64(55000), got.Participants[0].Contribution)
}

func TestScenarioRepository_UpdateFields_UnknownField(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedScenario(t, db, "castor")

	repo := sqlite.NewScenarioRepository(db)
	err := repo.UpdateFields(ctx, "castor", repository.FieldUpdate{
		Fields:          map[string]any{"nonsense": 1},
		ExpectedVersion: 1,
	})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
