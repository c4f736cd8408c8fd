package service

import (
	"context"
	"time"

	"geonosis/internal/domain"
	"geonosis/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateProject(ctx context.Context, in domain.NewProject) (domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (domain.Project, error)
	GetProjectWithFeatures(ctx context.Context, id uuid.UUID) (domain.ProjectDetail, error)
	ListProjects(ctx context.Context) ([]domain.ProjectSummary, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch domain.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) (bool, error)

	CreateFeature(ctx context.Context, in domain.NewFeature) (domain.Feature, error)
	BulkCreateFeatures(ctx context.Context, in domain.BulkFeatures) ([]domain.Feature, error)
	GetFeature(ctx context.Context, id uuid.UUID) (domain.FeatureDetail, error)
	ListFeatures(ctx context.Context, projectID uuid.UUID) ([]domain.FeatureSummary, error)
	UpdateFeature(ctx context.Context, id uuid.UUID, patch domain.FeaturePatch) (domain.Feature, error)
	UpdateFeatureStatus(ctx context.Context, id uuid.UUID, status domain.FeatureStatus) (domain.Feature, error)
	DeleteFeature(ctx context.Context, id uuid.UUID) (bool, error)

	CreatePBI(ctx context.Context, in domain.NewPBI) (domain.PBI, error)
	GetPBI(ctx context.Context, id uuid.UUID) (domain.PBI, error)
	GetPBIDetail(ctx context.Context, id uuid.UUID) (domain.PBIDetail, error)
	ListPBIs(ctx context.Context, featureID uuid.UUID) ([]domain.PBI, error)
	UpdatePBI(ctx context.Context, id uuid.UUID, patch domain.PBIPatch) (domain.PBI, error)
	DeletePBI(ctx context.Context, id uuid.UUID) (bool, error)
	SetBlocker(ctx context.Context, id uuid.UUID, blockerID *uuid.UUID) (domain.PBI, error)
	Blocking(ctx context.Context, id uuid.UUID) ([]domain.PBI, error)
	PRURL(ctx context.Context, pbiID uuid.UUID) (string, bool, error)

	AppendAgentLog(ctx context.Context, in domain.NewAgentLog) (domain.AgentLog, error)
	ListAgentLogs(ctx context.Context, projectID uuid.UUID, pbiID *uuid.UUID) ([]domain.AgentLog, error)

	Health(ctx context.Context) error
}

type EntityService struct {
	repo       storage.Repository
	log        *zap.Logger
	clock      func() time.Time
	cycleCheck bool
}

type Option func(*EntityService)

func WithLogger(log *zap.Logger) Option {
	return func(s *EntityService) {
		s.log = log
	}
}

// WithCycleCheck rejects blockers that would close a loop in the blocked-by
// graph. Without it any existing PBI is accepted.
func WithCycleCheck(enabled bool) Option {
	return func(s *EntityService) {
		s.cycleCheck = enabled
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *EntityService) {
		s.clock = clock
	}
}

func New(repo storage.Repository, opts ...Option) *EntityService {
	s := &EntityService{
		repo:  repo,
		log:   zap.NewNop(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EntityService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

// now is truncated to the precision Postgres keeps so values round-trip.
func (s *EntityService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}
