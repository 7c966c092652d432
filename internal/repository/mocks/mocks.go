package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/castorcoop/scenariosync/internal/domain/lock"
	"github.com/castorcoop/scenariosync/internal/domain/presence"
	"github.com/castorcoop/scenariosync/internal/domain/scenario"
	"github.com/castorcoop/scenariosync/internal/repository"
)

// ScenarioRepository is a mock for repository.ScenarioRepository.
type ScenarioRepository struct {
	mock.Mock
}

func (m *ScenarioRepository) Get(ctx context.Context, projectID string) (*scenario.Snapshot, error) {
	args := m.Called(ctx, projectID)
	if snap, ok := args.Get(0).(*scenario.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) Create(ctx context.Context, snap *scenario.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *ScenarioRepository) Replace(ctx context.Context, snap *scenario.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *ScenarioRepository) UpdateFields(ctx context.Context, projectID string, upd repository.FieldUpdate) error {
	args := m.Called(ctx, projectID, upd)
	return args.Error(0)
}

// ParticipantRepository is a mock for repository.ParticipantRepository.
type ParticipantRepository struct {
	mock.Mock
}

func (m *ParticipantRepository) List(ctx context.Context, projectID string) ([]scenario.ParticipantRecord, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]scenario.ParticipantRecord); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) Get(ctx context.Context, projectID string, displayOrder int) (*scenario.ParticipantRecord, error) {
	args := m.Called(ctx, projectID, displayOrder)
	if rec, ok := args.Get(0).(*scenario.ParticipantRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) BatchUpdate(ctx context.Context, projectID string, changes []repository.ParticipantChange) error {
	args := m.Called(ctx, projectID, changes)
	return args.Error(0)
}

// LockStore is a mock for repository.LockStore. RunLockTxn executes the
// decision closure against the lock held in Current, emulating the store's
// atomic read-modify-write.
type LockStore struct {
	mock.Mock

	Current *lock.EditLock
}

func (m *LockStore) RunLockTxn(ctx context.Context, projectID string, fn lock.TxnFunc) error {
	args := m.Called(ctx, projectID)
	if err := args.Error(0); err != nil {
		return err
	}
	outcome, lk := fn(m.Current)
	switch outcome {
	case lock.TxnPut:
		m.Current = lk
	case lock.TxnDelete:
		m.Current = nil
	}
	return nil
}

func (m *LockStore) Get(ctx context.Context, projectID string) (*lock.EditLock, error) {
	args := m.Called(ctx, projectID)
	if lk, ok := args.Get(0).(*lock.EditLock); ok {
		return lk, args.Error(1)
	}
	return nil, args.Error(1)
}

// PresenceRepository is a mock for repository.PresenceRepository.
type PresenceRepository struct {
	mock.Mock
}

func (m *PresenceRepository) Upsert(ctx context.Context, rec *presence.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *PresenceRepository) Remove(ctx context.Context, projectID, sessionID string) error {
	args := m.Called(ctx, projectID, sessionID)
	return args.Error(0)
}

func (m *PresenceRepository) List(ctx context.Context, projectID string) ([]presence.Record, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]presence.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MigrationStore is a mock for repository.MigrationStore.
type MigrationStore struct {
	mock.Mock
}

func (m *MigrationStore) IsMigrated(ctx context.Context, projectID string) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MigrationStore) CommitMigration(ctx context.Context, projectID string, records []scenario.ParticipantRecord) error {
	args := m.Called(ctx, projectID, records)
	return args.Error(0)
}

// SnapshotCache is a mock for syncdoc.SnapshotCache.
type SnapshotCache struct {
	mock.Mock
}

func (m *SnapshotCache) Store(projectID string, snap *scenario.Snapshot) error {
	args := m.Called(projectID, snap)
	return args.Error(0)
}

func (m *SnapshotCache) Load(projectID string) (*scenario.Snapshot, error) {
	args := m.Called(projectID)
	if snap, ok := args.Get(0).(*scenario.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}
