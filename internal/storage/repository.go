package storage

import (
	"context"
	"time"

	"geonosis/internal/domain"

	"github.com/google/uuid"
)

// Repository hands out units of work. Every write made through the Tx passed to
// fn is committed together when fn returns nil and discarded otherwise.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Health(ctx context.Context) error
}

// Tx exposes row-level reads and writes. Lookups of a missing id return a
// *domain.NotFoundError; the caller owns referential checks and cascades.
type Tx interface {
	ProjectTx
	FeatureTx
	PBITx
	AgentLogTx
}

type ProjectTx interface {
	InsertProject(ctx context.Context, p domain.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (domain.Project, error)
	// ListProjects returns summaries newest first.
	ListProjects(ctx context.Context) ([]domain.ProjectSummary, error)
	UpdateProject(ctx context.Context, p domain.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) (bool, error)
}

type FeatureTx interface {
	InsertFeature(ctx context.Context, f domain.Feature) error
	GetFeature(ctx context.Context, id uuid.UUID) (domain.Feature, error)
	// ListFeatures returns summaries sorted by order, then created_at.
	ListFeatures(ctx context.Context, projectID uuid.UUID) ([]domain.FeatureSummary, error)
	MaxFeatureOrder(ctx context.Context, projectID uuid.UUID) (int, bool, error)
	UpdateFeature(ctx context.Context, f domain.Feature) error
	DeleteFeature(ctx context.Context, id uuid.UUID) (bool, error)
}

type PBITx interface {
	InsertPBI(ctx context.Context, p domain.PBI) error
	GetPBI(ctx context.Context, id uuid.UUID) (domain.PBI, error)
	// ListPBIs returns the feature's PBIs sorted by order, then created_at.
	ListPBIs(ctx context.Context, featureID uuid.UUID) ([]domain.PBI, error)
	MaxPBIOrder(ctx context.Context, featureID uuid.UUID) (int, bool, error)
	UpdatePBI(ctx context.Context, p domain.PBI) error
	DeletePBI(ctx context.Context, id uuid.UUID) (bool, error)
	DeletePBIs(ctx context.Context, featureID uuid.UUID) (int, error)
	// ListBlocking returns every PBI whose blocked_by_id equals id.
	ListBlocking(ctx context.Context, id uuid.UUID) ([]domain.PBI, error)
	// ClearBlockedBy nulls blocked_by_id on every PBI that points at one of ids.
	ClearBlockedBy(ctx context.Context, ids []uuid.UUID, now time.Time) error
}

type AgentLogTx interface {
	InsertAgentLog(ctx context.Context, l domain.AgentLog) error
	// ListAgentLogs returns the project's logs oldest first, optionally only
	// those referencing pbiID.
	ListAgentLogs(ctx context.Context, projectID uuid.UUID, pbiID *uuid.UUID) ([]domain.AgentLog, error)
	// DetachAgentLogs nulls pbi_id on logs referencing one of pbiIDs.
	DetachAgentLogs(ctx context.Context, pbiIDs []uuid.UUID, now time.Time) error
	DeleteAgentLogs(ctx context.Context, projectID uuid.UUID) (int, error)
}
