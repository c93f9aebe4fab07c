// Package relay is a self-hostable backend for the activity stream: a REST
// API for sessions and activity logs plus a websocket fan-out of each
// session's live entries. It backs local development and the integration
// tests; the hosted platform exposes the same surface.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/provider"
)

// Server wires the store, the hub and the HTTP surface together.
type Server struct {
	store    *Store
	hub      *Hub
	log      *zap.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer creates a relay server. A nil logger disables logging.
func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		store: NewStore(),
		hub:   NewHub(log),
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions", s.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{id}", s.handleUpdateSession).Methods(http.MethodPatch)
	r.HandleFunc("/v1/sessions/{id}/activities", s.handleListActivities).Methods(http.MethodGet)
	r.HandleFunc("/v1/activities", s.handleAppendActivity).Methods(http.MethodPost)
	r.HandleFunc("/v1/stream/{topic}", s.handleStream).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler returns the HTTP handler, for mounting under httptest or a parent
// mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("relay listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in domain.LiveSession
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session payload")
		return
	}
	if in.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	created := s.store.CreateSession(in)
	s.log.Debug("session created",
		zap.String("session_id", created.ID),
		zap.String("project_id", created.ProjectID))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var patch provider.SessionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch payload")
		return
	}
	updated, err := s.store.UpdateSession(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	status := domain.SessionStatus(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, s.store.ListSessions(projectID, status))
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.GetSession(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.ListActivities(id))
}

func (s *Server) handleAppendActivity(w http.ResponseWriter, r *http.Request) {
	var in domain.ActivityLogEntry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	if in.SessionID == "" || in.Title == "" {
		writeError(w, http.StatusBadRequest, "session_id and title are required")
		return
	}
	created, err := s.store.AppendActivity(in)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.hub.Broadcast(provider.Topic(created.SessionID), *created)
	writeJSON(w, http.StatusCreated, created)
}

// handleStream upgrades to websocket and forwards every broadcast entry for
// the topic until either side closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	// Register before the handshake completes: once the client's dial
	// returns, broadcasts must already reach this subscriber.
	sub := s.hub.subscribe(topic)
	defer s.hub.unsubscribe(topic, sub)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	defer conn.Close()
	s.log.Debug("stream subscriber connected", zap.String("topic", topic))

	// Reader exists only to observe the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-sub.send:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				s.log.Debug("stream write failed", zap.String("topic", topic), zap.Error(err))
				return
			}
		case <-done:
			s.log.Debug("stream subscriber disconnected", zap.String("topic", topic))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
