package httptransport

import (
	"net/http"

	"geonosis/internal/domain"
)

func (h *Handler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	var req domain.NewFeature
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	feature, err := h.service.CreateFeature(r.Context(), req)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapFeature(feature))
}

func (h *Handler) BulkCreateFeatures(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkFeatures
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	features, err := h.service.BulkCreateFeatures(r.Context(), req)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mapFeatures(features))
}

func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "project_id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	features, err := h.service.ListFeatures(r.Context(), projectID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapFeatureSummaries(features))
}

func (h *Handler) GetFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	detail, err := h.service.GetFeature(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, featureDetailPayload{
		featurePayload: mapFeature(detail.Feature),
		PBICount:       detail.PBICount,
	})
}

func (h *Handler) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var patch domain.FeaturePatch
	if err := decodeJSON(r, &patch); err != nil {
		h.badRequest(w, err)
		return
	}

	feature, err := h.service.UpdateFeature(r.Context(), id, patch)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapFeature(feature))
}

func (h *Handler) UpdateFeatureStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var req featureStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	feature, err := h.service.UpdateFeatureStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapFeature(feature))
}

func (h *Handler) DeleteFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	deleted, err := h.service.DeleteFeature(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	if !deleted {
		h.handleDomainError(w, domain.NewNotFound(domain.EntityFeature, id))
		return
	}
	respondJSON(w, http.StatusOK, messagePayload{Message: "Feature deleted"})
}
