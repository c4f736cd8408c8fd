package httptransport

import (
	"net/http"

	"geonosis/internal/domain"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapProjectSummaries(projects))
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req domain.NewProject
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	project, err := h.service.CreateProject(r.Context(), req)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapProject(project))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapProject(project))
}

func (h *Handler) GetProjectWithFeatures(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	detail, err := h.service.GetProjectWithFeatures(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapProjectDetail(detail))
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var patch domain.ProjectPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.badRequest(w, err)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), id, patch)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapProject(project))
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	deleted, err := h.service.DeleteProject(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	if !deleted {
		h.handleDomainError(w, domain.NewNotFound(domain.EntityProject, id))
		return
	}
	respondJSON(w, http.StatusOK, messagePayload{Message: "Project deleted"})
}
