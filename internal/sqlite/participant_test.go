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

// seedMigrated seeds a project and moves its participants into standalone
// records.
func seedMigrated(t *testing.T, db *sqlite.DB, projectID string) []scenario.ParticipantRecord {
	t.Helper()

	snap := seedScenario(t, db, projectID)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	records := make([]scenario.ParticipantRecord, len(snap.Participants))
	for i, p := range snap.Participants {
		records[i] = scenario.ParticipantRecord{
			Participant:    p,
			Version:        1,
			LastModifiedBy: "migration",
			LastModifiedAt: now,
			DisplayOrder:   i,
		}
	}
	store := sqlite.NewMigrationStore(db)
	require.NoError(t, store.CommitMigration(context.Background(), projectID, records))
	return records
}

func TestParticipantRepository_ListAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedMigrated(t, db, "castor")

	repo := sqlite.NewParticipantRepository(db)

	records, err := repo.List(ctx, "castor")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 0, records[0].DisplayOrder)
	require.Equal(t, "Anne", records[0].Name)
	require.Equal(t, "Benoît", records[1].Name)

	rec, err := repo.Get(ctx, "castor", 1)
	require.NoError(t, err)
	require.Equal(t, "Benoît", rec.Name)
	require.Equal(t, int64(1), rec.Version)

	_, err = repo.Get(ctx, "castor", 7)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestParticipantRepository_BatchUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedMigrated(t, db, "castor")

	repo := sqlite.NewParticipantRepository(db)
	at := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	changedAnne := seeded[0].Participant
	changedAnne.Surface = 120
	changedBenoit := seeded[1].Participant
	changedBenoit.Contribution = 41000

	err := repo.BatchUpdate(ctx, "castor", []repository.ParticipantChange{
		{DisplayOrder: 0, Participant: changedAnne, By: "anne", At: at},
		{DisplayOrder: 1, Participant: changedBenoit, By: "anne", At: at},
	})
	require.NoError(t, err)

	records, err := repo.List(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, float64(120), records[0].Surface)
	require.Equal(t, int64(2), records[0].Version, "each touched record's version bumps")
	require.Equal(t, float64(41000), records[1].Contribution)
	require.Equal(t, "anne", records[1].LastModifiedBy)
}

func TestParticipantRepository_BatchUpdate_AtomicOnMissingRecord(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seeded := seedMigrated(t, db, "castor")

	repo := sqlite.NewParticipantRepository(db)

	changed := seeded[0].Participant
	changed.Surface = 120

	err := repo.BatchUpdate(ctx, "castor", []repository.ParticipantChange{
		{DisplayOrder: 0, Participant: changed, By: "anne", At: time.Now()},
		{DisplayOrder: 9, Participant: changed, By: "anne", At: time.Now()},
	})
	require.ErrorIs(t, err, repository.ErrNotFound)

	// The valid change in the same batch must not have landed.
	records, err := repo.List(ctx, "castor")
	require.NoError(t, err)
	require.Equal(t, float64(80), records[0].Surface)
	require.Equal(t, int64(1), records[0].Version)
}

func TestParticipantRepository_BatchUpdate_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedMigrated(t, db, "castor")

	repo := sqlite.NewParticipantRepository(db)
	require.NoError(t, repo.BatchUpdate(ctx, "castor", nil))
}
