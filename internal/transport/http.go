package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castorcoop/scenariosync/internal/domain/lock"
	"github.com/castorcoop/scenariosync/internal/domain/migration"
	"github.com/castorcoop/scenariosync/internal/domain/presence"
	"github.com/castorcoop/scenariosync/internal/domain/syncdoc"
)

// Services bundles everything the HTTP layer dispatches to.
type Services struct {
	Locks     *lock.Service
	Sync      *syncdoc.Manager
	Migration *migration.Service
	Presence  *presence.Tracker
}

// Server wires HTTP handlers.
type Server struct {
	svcs   Services
	hub    *Hub
	logger *slog.Logger
}

// NewRouter creates the HTTP router with identity middleware.
func NewRouter(svcs Services, hub *Hub, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{svcs: svcs, hub: hub, logger: logger}

	r.Get("/health", srv.handleHealth)

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Get("/", srv.handleLoad)
		r.Post("/save", srv.handleSave)

		r.Get("/lock", srv.handleLockStatus)
		r.Post("/lock/acquire", srv.handleAcquire)
		r.Post("/lock/release", srv.handleRelease)
		r.Post("/lock/extend", srv.handleExtend)
		r.Post("/lock/force-release", srv.handleForceRelease)

		r.Get("/conflict", srv.handleConflict)
		r.Post("/conflict/resolve", srv.handleResolve)

		r.Post("/migrate", srv.handleMigrate)
		r.Post("/migrate/validate", srv.handleValidateMigration)

		r.Get("/presence", srv.handlePresence)
		r.Post("/presence/heartbeat", srv.handlePresenceBeat)
		r.Post("/presence/stop", srv.handlePresenceStop)

		r.Get("/watch", srv.handleWatch)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	snap, err := coord.Load(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, encodeSnapshot(snap))
}

type saveRequest struct {
	Snapshot    snapshotPayload `json:"snapshot"`
	DirtyFields []string        `json:"dirty_fields,omitempty"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := req.Snapshot.toSnapshot()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.DirtyFields) > 0 {
		coord.Tracker().MarkManyDirty(req.DirtyFields)
	}

	result, err := coord.Save(r.Context(), snap)
	if errors.Is(err, syncdoc.ErrSaveInProgress) {
		s.writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "save_in_progress",
			"message": "Une sauvegarde est déjà en cours",
		})
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	if result.Strategy != syncdoc.StrategyNone {
		n := syncdoc.ChangeNotification{
			ProjectID: chi.URLParam(r, "projectID"),
			Version:   result.Version,
			Origin:    coord.SessionID(),
		}
		s.svcs.Sync.Observe(n)
		s.hub.Broadcast(n)
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLockStatus(w http.ResponseWriter, r *http.Request) {
	lk, err := s.svcs.Locks.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"lock": lk})
}

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	identity, _ := IdentityFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.svcs.Locks.Acquire(r.Context(), projectID, identity, sessionID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	identity, _ := IdentityFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	released, err := s.svcs.Locks.Release(r.Context(), projectID, identity, sessionID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"released": released})
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	identity, _ := IdentityFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	extended, err := s.svcs.Locks.Extend(r.Context(), projectID, identity, sessionID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"extended": extended})
}

type forceReleaseRequest struct {
	AdminSecret string `json:"admin_secret"`
}

func (s *Server) handleForceRelease(w http.ResponseWriter, r *http.Request) {
	var req forceReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.svcs.Locks.ForceRelease(r.Context(), chi.URLParam(r, "projectID"), req.AdminSecret)
	if errors.Is(err, lock.ErrBadAdminSecret) || errors.Is(err, lock.ErrForceReleaseDisabled) {
		s.writeError(w, http.StatusForbidden, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"released": true})
}

func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, encodeConflict(coord.PendingConflict()))
}

type resolveRequest struct {
	Choice syncdoc.Resolution `json:"choice"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	coord, ok := s.coordinator(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	adopted, err := coord.Resolve(r.Context(), req.Choice)
	if errors.Is(err, syncdoc.ErrNoConflict) || errors.Is(err, syncdoc.ErrUnknownResolution) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"adopted": adopted})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	result := s.svcs.Migration.Migrate(r.Context(), chi.URLParam(r, "projectID"))
	s.writeJSON(w, http.StatusOK, result)
}

type validateMigrationRequest struct {
	ExpectedCount int `json:"expected_count"`
}

func (s *Server) handleValidateMigration(w http.ResponseWriter, r *http.Request) {
	var req validateMigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.svcs.Migration.Validate(r.Context(), chi.URLParam(r, "projectID"), req.ExpectedCount)
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	active, err := s.svcs.Presence.Active(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"active": active})
}

func (s *Server) handlePresenceBeat(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	identity, _ := IdentityFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	if err := s.svcs.Presence.Beat(r.Context(), projectID, identity, sessionID); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"beat_every": s.svcs.Presence.HeartbeatEvery().String(),
	})
}

func (s *Server) handlePresenceStop(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	sessionID, _ := SessionIDFromContext(r.Context())

	if err := s.svcs.Presence.Stop(r.Context(), projectID, sessionID); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) coordinator(w http.ResponseWriter, r *http.Request) (*syncdoc.Coordinator, bool) {
	projectID := chi.URLParam(r, "projectID")
	identity, _ := IdentityFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	coord, err := s.svcs.Sync.Coordinator(r.Context(), projectID, identity, sessionID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return nil, false
	}
	return coord, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
