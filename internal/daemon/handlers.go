package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"signcast/internal/api"
	"signcast/internal/artifacts"
	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/logging"
	"signcast/internal/services"
)

func (s *apiServer) handleGenerations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleJobList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.daemon.Submit(r.Context(), req.SubjectRef, req.Text, req.AvatarModel)
	if err != nil {
		if services.IsInputError(err) {
			s.writeError(w, http.StatusUnprocessableEntity, services.Details(err).Message)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
		JobID:  job.JobID,
		Status: string(job.State),
	})
}

func (s *apiServer) handleJobList(w http.ResponseWriter, r *http.Request) {
	var states []jobs.State
	for _, value := range r.URL.Query()["status"] {
		state, ok := jobs.ParseState(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+value)
			return
		}
		states = append(states, state)
	}

	views, err := s.daemon.gateway.List(r.Context(), states...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: views})
}

func (s *apiServer) handleGeneration(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/generations/")
	if jobID == "" || strings.Contains(jobID, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.daemon.gateway.Job(r.Context(), jobID)
		if errors.Is(err, jobs.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{Job: view})
	case http.MethodDelete:
		err := s.daemon.jobs.Cancel(r.Context(), jobID)
		if errors.Is(err, jobs.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if errors.Is(err, jobs.ErrStaleTransition) {
			s.writeError(w, http.StatusConflict, "job already finished")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": string(jobs.StateError)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleArtifact(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/artifacts/")
	if rest == "sweep" {
		s.handleSweep(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	switch {
	case action == "preview" && r.Method == http.MethodGet:
		s.handlePreview(w, r, id)
	case action == "promote" && r.Method == http.MethodPost:
		s.handlePromote(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.handleArtifactDelete(w, r, id)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request, id string) {
	reader, artifact, err := s.daemon.artifacts.Open(r.Context(), id)
	if errors.Is(err, artifacts.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `inline; filename="`+artifact.ID+`.mp4"`)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Debug("preview stream interrupted",
			logging.String(logging.FieldArtifactID, id),
			logging.Error(err),
		)
	}
}

func (s *apiServer) handlePromote(w http.ResponseWriter, r *http.Request, id string) {
	var req api.PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "owner_id is required")
		return
	}

	artifact, err := s.daemon.artifacts.Promote(r.Context(), id, req.OwnerID)
	if errors.Is(err, artifacts.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ArtifactResponse{
		ArtifactID:  artifact.ID,
		State:       string(artifact.State),
		StoragePath: artifact.StoragePath,
	})
}

func (s *apiServer) handleArtifactDelete(w http.ResponseWriter, r *http.Request, id string) {
	err := s.daemon.artifacts.DeleteTemp(r.Context(), id)
	if errors.Is(err, artifacts.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		if services.IsInputError(err) {
			s.writeError(w, http.StatusUnprocessableEntity, services.Details(err).Message)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"artifact_id": id, "state": "deleted"})
}

func (s *apiServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result, err := s.daemon.artifacts.SweepExpired(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SweepResponse{
		Removed:  result.Removed,
		Orphans:  result.Orphans,
		Failures: len(result.Failures),
	})
}

func (s *apiServer) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	models := dictionary.AvatarModels()
	names := make([]string, 0, len(models))
	for _, model := range models {
		names = append(names, string(model))
	}
	s.writeJSON(w, http.StatusOK, api.ModelsResponse{Models: names})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health := s.daemon.Health(r.Context())
	code := http.StatusOK
	if !health.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, health)
}
