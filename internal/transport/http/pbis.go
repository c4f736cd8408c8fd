package httptransport

import (
	"net/http"

	"geonosis/internal/domain"
)

func (h *Handler) ListPBIs(w http.ResponseWriter, r *http.Request) {
	featureID, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	pbis, err := h.service.ListPBIs(r.Context(), featureID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPBIs(pbis))
}

func (h *Handler) CreatePBI(w http.ResponseWriter, r *http.Request) {
	featureID, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var req domain.NewPBI
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	req.FeatureID = featureID

	pbi, err := h.service.CreatePBI(r.Context(), req)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapPBI(pbi))
}

// GetPBI is the only PBI read that carries pr_url, since it needs the owning
// project.
func (h *Handler) GetPBI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	detail, err := h.service.GetPBIDetail(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	payload := mapPBI(detail.PBI)
	payload.PRURL = detail.PRURL
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) UpdatePBI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var patch domain.PBIPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.badRequest(w, err)
		return
	}

	pbi, err := h.service.UpdatePBI(r.Context(), id, patch)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPBI(pbi))
}

func (h *Handler) DeletePBI(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	deleted, err := h.service.DeletePBI(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	if !deleted {
		h.handleDomainError(w, domain.NewNotFound(domain.EntityPBI, id))
		return
	}
	respondJSON(w, http.StatusOK, messagePayload{Message: "PBI deleted"})
}

func (h *Handler) SetBlocker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var req blockerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	pbi, err := h.service.SetBlocker(r.Context(), id, req.BlockedByID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPBI(pbi))
}

func (h *Handler) Blocking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	pbis, err := h.service.Blocking(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPBIs(pbis))
}
