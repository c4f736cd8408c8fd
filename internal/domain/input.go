package domain

import "github.com/google/uuid"

type NewProject struct {
	Name string      `json:"name" validate:"required,max=255"`
	Epic string      `json:"epic" validate:"required"`
	Type ProjectType `json:"type" validate:"omitempty,enum"`
}

// NewFeature creates one feature. An Order of 0 means "after the last sibling".
type NewFeature struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Order       int       `json:"order" validate:"min=0"`
}

type BulkFeatureItem struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	// Order is accepted for shape compatibility; bulk creation always
	// assigns consecutive positions.
	Order *int `json:"order" validate:"omitnil,min=0"`
}

type BulkFeatures struct {
	ProjectID uuid.UUID         `json:"project_id"`
	Features  []BulkFeatureItem `json:"features" validate:"min=1,dive"`
}

type NewPBI struct {
	FeatureID     uuid.UUID  `json:"feature_id"`
	Title         string     `json:"title" validate:"required,max=255"`
	Description   string     `json:"description" validate:"required"`
	Type          PBIType    `json:"type" validate:"required,enum"`
	AssignedAgent *string    `json:"assigned_agent" validate:"omitnil,max=100"`
	BranchName    *string    `json:"branch_name" validate:"omitnil,max=255"`
	BlockedByID   *uuid.UUID `json:"blocked_by_id"`
	Order         int        `json:"order" validate:"min=0"`
}

type NewAgentLog struct {
	ProjectID   uuid.UUID        `json:"project_id"`
	PBIID       *uuid.UUID       `json:"pbi_id"`
	AgentName   string           `json:"agent_name" validate:"required,max=100"`
	MessageType AgentMessageType `json:"message_type" validate:"required,enum"`
	Content     string           `json:"content" validate:"required"`
	ExtraData   map[string]any   `json:"extra_data"`
}
