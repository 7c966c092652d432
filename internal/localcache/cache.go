// Package localcache is the offline fallback store: one JSON snapshot file
// per project, refreshed after every successful sync. It is consulted only
// when the remote store is unreachable or not configured.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

// ErrNotCached indicates no snapshot has been cached for the project.
var ErrNotCached = errors.New("no cached snapshot")

// Cache stores snapshots under a directory, one file per project.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Store writes the snapshot atomically (temp file + rename).
func (c *Cache) Store(projectID string, snap *scenario.Snapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := c.path(projectID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads the cached snapshot. Corrupted JSON is an error, never trusted:
// the operator is alerted instead of the app running on garbage.
func (c *Cache) Load(projectID string) (*scenario.Snapshot, error) {
	data, err := os.ReadFile(c.path(projectID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached snapshot: %w", err)
	}

	var snap scenario.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupted cached snapshot for %s: %w", projectID, err)
	}
	return &snap, nil
}

func (c *Cache) path(projectID string) string {
	return filepath.Join(c.dir, projectID+".json")
}
