package migration

// Result reports the outcome of a migration run. Migration is idempotent:
// a second run on the same project reports AlreadyMigrated with no writes.
type Result struct {
	Success         bool   `json:"success"`
	MigratedCount   int    `json:"migrated_count"`
	AlreadyMigrated bool   `json:"already_migrated,omitempty"`
	Error           string `json:"error,omitempty"`
}
