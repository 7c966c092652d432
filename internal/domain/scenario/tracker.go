package scenario

import (
	"sort"
	"sync"
	"time"
)

// FieldTracker records which simple (non-participant) fields were mutated
// locally since the last successful save. Pure bookkeeping, no I/O.
type FieldTracker struct {
	mu       sync.Mutex
	dirty    map[string]struct{}
	lastSave time.Time
}

// NewFieldTracker creates an empty tracker.
func NewFieldTracker() *FieldTracker {
	return &FieldTracker{dirty: make(map[string]struct{})}
}

// MarkDirty records a single mutated field.
func (t *FieldTracker) MarkDirty(field string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty[field] = struct{}{}
}

// MarkManyDirty records several mutated fields at once.
func (t *FieldTracker) MarkManyDirty(fields []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range fields {
		t.dirty[f] = struct{}{}
	}
}

// Clear empties the dirty set and stamps the save time.
func (t *FieldTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = make(map[string]struct{})
	t.lastSave = time.Now()
}

// IsDirty reports whether any field is dirty.
func (t *FieldTracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty) > 0
}

// IsFieldDirty reports whether a specific field is dirty.
func (t *FieldTracker) IsFieldDirty(field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.dirty[field]
	return ok
}

// DirtyFields returns the dirty field names in sorted order.
func (t *FieldTracker) DirtyFields() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := make([]string, 0, len(t.dirty))
	for f := range t.dirty {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// LastSave returns the time of the last successful save, zero if none.
func (t *FieldTracker) LastSave() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSave
}
