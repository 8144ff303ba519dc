package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/service"
	"github.com/vedran77/projectdesk/pkg/validator"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	log            *zap.Logger
}

func NewProjectHandler(projectService *service.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, log: log}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		h.log.Error("list projects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if projects == nil {
		projects = []domain.Project{}
	}

	writeJSON(w, http.StatusOK, dataEnvelope{Data: projects})
}

// Assign takes {"userId": "<uuid>"} to assign and {"userId": null} (or "")
// to unassign. The key itself is required.
func (h *ProjectHandler) Assign(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var body map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	raw, present := body["userId"]
	if !present {
		errs := make(validator.ValidationErrors)
		errs.Add("userId", "userId is required")
		writeValidationErrors(w, errs)
		return
	}

	var userID *uuid.UUID
	if raw != nil && *raw != "" {
		id, err := uuid.Parse(*raw)
		if err != nil {
			errs := make(validator.ValidationErrors)
			errs.Add("userId", "userId must be a valid id")
			writeValidationErrors(w, errs)
			return
		}
		userID = &id
	}

	project, err := h.projectService.Assign(r.Context(), projectID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "Project not found")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.log.Error("assign project failed", zap.Stringer("project_id", projectID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dataEnvelope{Data: project})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	if err := h.projectService.Delete(r.Context(), projectID); err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		h.log.Error("delete project failed", zap.Stringer("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
