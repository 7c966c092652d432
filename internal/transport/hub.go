package transport

import (
	"log/slog"
	"sync"

	"github.com/castorcoop/scenariosync/internal/domain/syncdoc"
)

// subscriberBuffer bounds per-watcher queues; a watcher that cannot keep up
// loses notifications rather than blocking writers.
const subscriberBuffer = 16

// Hub is the live-update channel: every successful write is broadcast to all
// watchers of the project, carrying the writer's session ID so each client
// can drop its own echo.
type Hub struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// Subscription receives change notifications for one project.
type Subscription struct {
	C chan syncdoc.ChangeNotification

	hub       *Hub
	projectID string
}

// NewHub creates a notification hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a watcher on a project.
func (h *Hub) Subscribe(projectID string) *Subscription {
	sub := &Subscription{
		C:         make(chan syncdoc.ChangeNotification, subscriberBuffer),
		hub:       h,
		projectID: projectID,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[*Subscription]struct{})
	}
	h.subs[projectID][sub] = struct{}{}
	return sub
}

// Cancel removes the subscription.
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	delete(s.hub.subs[s.projectID], s)
}

// Broadcast delivers a notification to every watcher of the project.
// Delivery is best-effort and never blocks the writer.
func (h *Hub) Broadcast(n syncdoc.ChangeNotification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[n.ProjectID] {
		select {
		case sub.C <- n:
		default:
			h.logger.Warn("slow watcher, notification dropped", "project", n.ProjectID)
		}
	}
}
