package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"geonosis/internal/domain"

	"github.com/google/uuid"
)

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type projectPayload struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Epic           string    `json:"epic"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	GithubRepoURL  *string   `json:"github_repo_url"`
	GithubRepoName *string   `json:"github_repo_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type projectSummaryPayload struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	FeatureCount int       `json:"feature_count"`
}

type projectDetailPayload struct {
	projectPayload
	Features []featureSummaryPayload `json:"features"`
}

type featurePayload struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	BranchName  *string   `json:"branch_name"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type featureDetailPayload struct {
	featurePayload
	PBICount int `json:"pbi_count"`
}

type featureSummaryPayload struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	BranchName *string   `json:"branch_name"`
	Order      int       `json:"order"`
	PBICount   int       `json:"pbi_count"`
}

type pbiPayload struct {
	ID            uuid.UUID  `json:"id"`
	FeatureID     uuid.UUID  `json:"feature_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	AssignedAgent *string    `json:"assigned_agent"`
	BranchName    *string    `json:"branch_name"`
	PRNumber      *int       `json:"pr_number"`
	PRStatus      *string    `json:"pr_status"`
	PRURL         *string    `json:"pr_url,omitempty"`
	BlockedByID   *uuid.UUID `json:"blocked_by_id"`
	Order         int        `json:"order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type agentLogPayload struct {
	ID          uuid.UUID      `json:"id"`
	ProjectID   uuid.UUID      `json:"project_id"`
	PBIID       *uuid.UUID     `json:"pbi_id"`
	AgentName   string         `json:"agent_name"`
	MessageType string         `json:"message_type"`
	Content     string         `json:"content"`
	ExtraData   map[string]any `json:"extra_data"`
	CreatedAt   time.Time      `json:"created_at"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	})
}

func mapProject(p domain.Project) projectPayload {
	return projectPayload{
		ID:             p.ID,
		Name:           p.Name,
		Epic:           p.Epic,
		Type:           string(p.Type),
		Status:         string(p.Status),
		GithubRepoURL:  p.GithubRepoURL,
		GithubRepoName: p.GithubRepoName,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapProjectSummaries(items []domain.ProjectSummary) []projectSummaryPayload {
	result := make([]projectSummaryPayload, 0, len(items))
	for _, s := range items {
		result = append(result, projectSummaryPayload{
			ID:           s.ID,
			Name:         s.Name,
			Type:         string(s.Type),
			Status:       string(s.Status),
			CreatedAt:    s.CreatedAt,
			FeatureCount: s.FeatureCount,
		})
	}
	return result
}

func mapProjectDetail(d domain.ProjectDetail) projectDetailPayload {
	return projectDetailPayload{
		projectPayload: mapProject(d.Project),
		Features:       mapFeatureSummaries(d.Features),
	}
}

func mapFeature(f domain.Feature) featurePayload {
	return featurePayload{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Name:        f.Name,
		Description: f.Description,
		Status:      string(f.Status),
		BranchName:  f.BranchName,
		Order:       f.Order,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func mapFeatures(items []domain.Feature) []featurePayload {
	result := make([]featurePayload, 0, len(items))
	for _, f := range items {
		result = append(result, mapFeature(f))
	}
	return result
}

func mapFeatureSummaries(items []domain.FeatureSummary) []featureSummaryPayload {
	result := make([]featureSummaryPayload, 0, len(items))
	for _, s := range items {
		result = append(result, featureSummaryPayload{
			ID:         s.ID,
			Name:       s.Name,
			Status:     string(s.Status),
			BranchName: s.BranchName,
			Order:      s.Order,
			PBICount:   s.PBICount,
		})
	}
	return result
}

func mapPBI(p domain.PBI) pbiPayload {
	var prStatus *string
	if p.PRStatus != nil {
		s := string(*p.PRStatus)
		prStatus = &s
	}
	return pbiPayload{
		ID:            p.ID,
		FeatureID:     p.FeatureID,
		Title:         p.Title,
		Description:   p.Description,
		Type:          string(p.Type),
		Status:        string(p.Status),
		AssignedAgent: p.AssignedAgent,
		BranchName:    p.BranchName,
		PRNumber:      p.PRNumber,
		PRStatus:      prStatus,
		BlockedByID:   p.BlockedByID,
		Order:         p.Order,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func mapPBIs(items []domain.PBI) []pbiPayload {
	result := make([]pbiPayload, 0, len(items))
	for _, p := range items {
		result = append(result, mapPBI(p))
	}
	return result
}

func mapAgentLog(l domain.AgentLog) agentLogPayload {
	return agentLogPayload{
		ID:          l.ID,
		ProjectID:   l.ProjectID,
		PBIID:       l.PBIID,
		AgentName:   l.AgentName,
		MessageType: string(l.MessageType),
		Content:     l.Content,
		ExtraData:   l.ExtraData,
		CreatedAt:   l.CreatedAt,
	}
}

func mapAgentLogs(items []domain.AgentLog) []agentLogPayload {
	result := make([]agentLogPayload, 0, len(items))
	for _, l := range items {
		result = append(result, mapAgentLog(l))
	}
	return result
}
