package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/sqlite"
)

// newTestDB opens a file-backed database so every connection sees the same
// data (":memory:" gives each pooled connection its own database).
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

func seedScenario(t *testing.T, db *sqlite.DB, projectID string) *scenario.Snapshot {
	t.Helper()

	snap := &scenario.Snapshot{
		ProjectID: projectID,
		Participants: []scenario.Participant{
			{Name: "Anne", Enabled: true, Contribution: 50000, Surface: 80,
				EntryDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			{Name: "Benoît", Enabled: true, Contribution: 38000, Surface: 65,
				EntryDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		},
		ProjectParams:  scenario.ProjectParams{PurchasePrice: 850000, NotaryRate: 0.08, LoanRate: 3.4, LoanYears: 25},
		DeedDate:       "2026-01-15",
		FormulaParams:  scenario.FormulaParams{PortageRate: 0.02, IndexationRate: 0.015},
		Version:        1,
		LastModifiedBy: "seed",
		LastModifiedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	repo := sqlite.NewScenarioRepository(db)
	require.NoError(t, repo.Create(context.Background(), snap))
	return snap
}
