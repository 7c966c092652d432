package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/presence"
	"github.com/castorcoop/scenariosync/internal/sqlite"
)

func TestPresenceRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite.NewPresenceRepository(db)

	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &presence.Record{
		ProjectID: "castor", SessionID: "sess-a", Identity: "anne", LastSeen: t0,
	}))
	require.NoError(t, repo.Upsert(ctx, &presence.Record{
		ProjectID: "castor", SessionID: "sess-b", Identity: "benoit", LastSeen: t0.Add(time.Second),
	}))

	// A heartbeat refreshes the existing row instead of adding one.
	require.NoError(t, repo.Upsert(ctx, &presence.Record{
		ProjectID: "castor", SessionID: "sess-a", Identity: "anne", LastSeen: t0.Add(5 * time.Second),
	}))

	records, err := repo.List(ctx, "castor")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "sess-a", records[0].SessionID, "most recent first")
	require.True(t, records[0].LastSeen.Equal(t0.Add(5*time.Second)))

	require.NoError(t, repo.Remove(ctx, "castor", "sess-a"))
	records, err = repo.List(ctx, "castor")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "sess-b", records[0].SessionID)

	// Removing an unknown session is not an error.
	require.NoError(t, repo.Remove(ctx, "castor", "sess-z"))
}

func TestPresenceRepository_ListScopedByProject(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite.NewPresenceRepository(db)

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &presence.Record{ProjectID: "p1", SessionID: "s1", Identity: "anne", LastSeen: now}))
	require.NoError(t, repo.Upsert(ctx, &presence.Record{ProjectID: "p2", SessionID: "s2", Identity: "benoit", LastSeen: now}))

	records, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "anne", records[0].Identity)
}
