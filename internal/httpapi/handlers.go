package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"clipforge/internal/editing"
	"clipforge/internal/logging"
	"clipforge/internal/plan"
	"clipforge/internal/project"
	"clipforge/internal/sequencer"
	"clipforge/internal/services"
)

type projectPayload struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Input        project.Input `json:"input"`
	Output       *outputView   `json:"output,omitempty"`
	EditingData  *editing.Data `json:"editing_data,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type outputView struct {
	VideoPath     string  `json:"video_path"`
	ThumbnailPath string  `json:"thumbnail_path"`
	Duration      float64 `json:"duration"`
}

type jobPayload struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func projectView(p *project.Project) projectPayload {
	view := projectPayload{
		ID:           p.ID,
		Title:        p.Title,
		Status:       string(p.Status),
		Input:        p.Input,
		EditingData:  p.EditingData,
		ErrorMessage: p.ErrorMessage,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Output != nil {
		view.Output = &outputView{
			VideoPath:     p.Output.VideoPath,
			ThumbnailPath: p.Output.ThumbnailPath,
			Duration:      p.Output.Duration,
		}
	}
	return view
}

func jobView(job sequencer.Job) jobPayload {
	return jobPayload{
		ID:        job.ID,
		ProjectID: job.ProjectID,
		Kind:      string(job.Kind),
		Label:     job.Label,
		Status:    string(job.Status),
		Error:     job.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Health(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Kind  string `json:"input_kind"`
		Input string `json:"input_content"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	kind, _ := project.ParseInputKind(req.Kind)
	created, err := s.app.CreateProject(r.Context(), req.Title, project.Input{
		Kind:    kind,
		Content: req.Input,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, projectView(created))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var statuses []project.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := project.ParseStatus(raw)
		if !ok {
			s.writeError(w, r, services.Wrap(services.ErrValidation, component, "list",
				"unknown status "+raw, nil))
			return
		}
		statuses = append(statuses, status)
	}

	projects, err := s.app.ListProjects(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]projectPayload, 0, len(projects))
	for _, p := range projects {
		views = append(views, projectView(p))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projectView(p))
}

func (s *Server) handleStartGeneration(w http.ResponseWriter, r *http.Request) {
	job, started, err := s.app.StartGeneration(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !started {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_completed"})
		return
	}
	s.writeJSON(w, http.StatusAccepted, jobView(job))
}

func (s *Server) handleSubmitEdit(w http.ResponseWriter, r *http.Request) {
	var op plan.Operation
	if !s.decode(w, r, &op) {
		return
	}

	job, err := s.app.SubmitEdit(r.Context(), mux.Vars(r)["id"], op)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, jobView(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.app.Jobs(mux.Vars(r)["id"])
	views := make([]jobPayload, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, jobView(job))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddOverlay(w http.ResponseWriter, r *http.Request) {
	var overlay editing.TextOverlay
	if !s.decode(w, r, &overlay) {
		return
	}
	id, err := s.app.AddTextOverlay(r.Context(), mux.Vars(r)["id"], overlay)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateOverlay(w http.ResponseWriter, r *http.Request) {
	var overlay editing.TextOverlay
	if !s.decode(w, r, &overlay) {
		return
	}
	vars := mux.Vars(r)
	if err := s.app.UpdateTextOverlay(r.Context(), vars["id"], vars["overlayID"], overlay); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": vars["overlayID"]})
}

func (s *Server) handleRemoveOverlay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.app.RemoveTextOverlay(r.Context(), vars["id"], vars["overlayID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddAudioTrack(w http.ResponseWriter, r *http.Request) {
	var track editing.AudioTrack
	if !s.decode(w, r, &track) {
		return
	}
	id, err := s.app.AddAudioTrack(r.Context(), mux.Vars(r)["id"], track)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSetAudioVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume float64 `json:"volume"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	if err := s.app.SetAudioVolume(r.Context(), vars["id"], vars["trackID"], req.Volume); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": vars["trackID"]})
}

func (s *Server) handleRemoveAudioTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.app.RemoveAudioTrack(r.Context(), vars["id"], vars["trackID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTimelineTrack(w http.ResponseWriter, r *http.Request) {
	var track editing.TimelineTrack
	if !s.decode(w, r, &track) {
		return
	}
	id, err := s.app.AddTimelineTrack(r.Context(), mux.Vars(r)["id"], track)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAddEffect(w http.ResponseWriter, r *http.Request) {
	var effect editing.Effect
	if !s.decode(w, r, &effect) {
		return
	}
	id, err := s.app.AddEffect(r.Context(), mux.Vars(r)["id"], effect)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleListFilters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"filters":       plan.FilterNames(),
		"speed_presets": plan.SpeedPresets,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, component, "decode", "invalid request body", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case services.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrEngineNotReady):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
