package syncdoc

import (
	"context"
	"log/slog"
	"sync"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

// Manager hands out one coordinator per (project, session) pair and fans
// inbound change notifications out to every coordinator except the writer.
type Manager struct {
	scenarios    ScenarioStore
	participants ParticipantStore
	cache        SnapshotCache
	logger       *slog.Logger

	mu           sync.Mutex
	coordinators map[string]*Coordinator
}

// NewManager creates a coordinator manager.
func NewManager(scenarios ScenarioStore, participants ParticipantStore, cache SnapshotCache, logger *slog.Logger) *Manager {
	return &Manager{
		scenarios:    scenarios,
		participants: participants,
		cache:        cache,
		logger:       logger,
		coordinators: make(map[string]*Coordinator),
	}
}

// Coordinator returns the coordinator for the given session, creating and
// priming it on first use.
func (m *Manager) Coordinator(ctx context.Context, projectID, identity, sessionID string) (*Coordinator, error) {
	key := projectID + "/" + sessionID

	m.mu.Lock()
	if c, ok := m.coordinators[key]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	opts := []CoordinatorOption{}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache))
	}
	c := NewCoordinator(projectID, identity, sessionID,
		m.scenarios, m.participants, scenario.NewFieldTracker(), m.logger, opts...)
	if _, err := c.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.coordinators[key]; ok {
		return existing, nil
	}
	m.coordinators[key] = c
	return c, nil
}

// Observe delivers a change notification to every coordinator on the
// project. Each coordinator applies its own echo and version filtering.
func (m *Manager) Observe(n ChangeNotification) {
	m.mu.Lock()
	coords := make([]*Coordinator, 0, len(m.coordinators))
	for _, c := range m.coordinators {
		if c.projectID == n.ProjectID {
			coords = append(coords, c)
		}
	}
	m.mu.Unlock()

	for _, c := range coords {
		c.ObserveRemote(n)
	}
}

// Drop forgets the session's coordinator, on clean shutdown of a client.
func (m *Manager) Drop(projectID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coordinators, projectID+"/"+sessionID)
}
