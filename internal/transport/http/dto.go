package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"geonosis/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Request bodies decode straight into the domain input and patch types; the
// types below cover the few payloads that have no domain counterpart.

type blockerRequest struct {
	BlockedByID *uuid.UUID `json:"blocked_by_id"`
}

type featureStatusRequest struct {
	Status domain.FeatureStatus `json:"status"`
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// pathID parses a UUID route parameter. A malformed id is a validation
// failure on that parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Field: name, Message: "must be a valid UUID"}
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: "must be a valid UUID"}
	}
	return &id, nil
}
