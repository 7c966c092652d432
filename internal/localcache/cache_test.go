package localcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/localcache"
)

func TestCache_StoreAndLoad(t *testing.T) {
	c := localcache.New(t.TempDir())

	snap := &scenario.Snapshot{
		ProjectID: "castor",
		Version:   12,
		DeedDate:  "2026-01-15",
		Participants: []scenario.Participant{
			{Name: "Anne", Enabled: true, Contribution: 50000},
		},
	}
	require.NoError(t, c.Store("castor", snap))

	got, err := c.Load("castor")
	require.NoError(t, err)
	require.Equal(t, snap, got)
}

func TestCache_LoadMissing(t *testing.T) {
	c := localcache.New(t.TempDir())
	_, err := c.Load("castor")
	require.ErrorIs(t, err, localcache.ErrNotCached)
}

func TestCache_CorruptedFileRejected(t *testing.T) {
	dir := t.TempDir()
	c := localcache.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "castor.json"), []byte("{truncated"), 0o644))

	_, err := c.Load("castor")
	require.Error(t, err)
	require.NotErrorIs(t, err, localcache.ErrNotCached)
	require.Contains(t, err.Error(), "corrupted")
}

func TestCache_StoreOverwrites(t *testing.T) {
	c := localcache.New(t.TempDir())

	require.NoError(t, c.Store("castor", &scenario.Snapshot{ProjectID: "castor", Version: 1}))
	require.NoError(t, c.Store("castor", &scenario.Snapshot{ProjectID: "castor", Version: 2}))

	got, err := c.Load("castor")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
}
