// Package httpapi exposes the studio facade over REST for UI frontends.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"clipforge/internal/logging"
	"clipforge/internal/studio"
)

const component = "httpapi"

// Server serves the project and editing API.
type Server struct {
	app    *studio.Studio
	logger *slog.Logger
	bind   string

	httpServer *http.Server
}

// New constructs the API server.
func New(app *studio.Studio, bind string, logger *slog.Logger) *Server {
	s := &Server{
		app:    app,
		logger: logging.NewComponentLogger(logger, component),
		bind:   bind,
	}

	cors := handlers.CORS(
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	s.httpServer = &http.Server{
		Addr:         bind,
		Handler:      cors(s.Router()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/start", s.handleStartGeneration).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/edits", s.handleSubmitEdit).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/jobs", s.handleListJobs).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/overlays", s.handleAddOverlay).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/overlays/{overlayID}", s.handleUpdateOverlay).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}/overlays/{overlayID}", s.handleRemoveOverlay).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/audio-tracks", s.handleAddAudioTrack).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/audio-tracks/{trackID}/volume", s.handleSetAudioVolume).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}/audio-tracks/{trackID}", s.handleRemoveAudioTrack).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/timeline", s.handleAddTimelineTrack).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/effects", s.handleAddEffect).Methods(http.MethodPost)
	api.HandleFunc("/filters", s.handleListFilters).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

// Start begins serving on the configured bind address.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return err
	}
	s.logger.Info("api listening", slog.String("bind", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api serve", logging.Error(err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
