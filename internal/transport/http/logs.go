package httptransport

import (
	"net/http"

	"geonosis/internal/domain"
)

func (h *Handler) AppendAgentLog(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var req domain.NewAgentLog
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	req.ProjectID = projectID

	entry, err := h.service.AppendAgentLog(r.Context(), req)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapAgentLog(entry))
}

// ListAgentLogs accepts an optional ?pbi_id= filter.
func (h *Handler) ListAgentLogs(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	pbiID, err := queryID(r, "pbi_id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	logs, err := h.service.ListAgentLogs(r.Context(), projectID, pbiID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapAgentLogs(logs))
}
