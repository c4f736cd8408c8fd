package service

import (
	"context"
	"errors"

	"geonosis/internal/domain"
	"geonosis/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *EntityService) CreateProject(ctx context.Context, in domain.NewProject) (domain.Project, error) {
	if err := validateInput(in); err != nil {
		return domain.Project{}, err
	}
	if in.Type == "" {
		in.Type = domain.ProjectTypeNew
	}

	project := domain.Project{
		Base:   domain.NewBase(s.now()),
		Name:   in.Name,
		Epic:   in.Epic,
		Type:   in.Type,
		Status: domain.ProjectDraft,
	}
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertProject(ctx, project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *EntityService) GetProject(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	var project domain.Project
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		return err
	})
	return project, err
}

func (s *EntityService) GetProjectWithFeatures(ctx context.Context, id uuid.UUID) (domain.ProjectDetail, error) {
	var detail domain.ProjectDetail
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		project, err := tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		features, err := tx.ListFeatures(ctx, id)
		if err != nil {
			return err
		}
		detail = domain.ProjectDetail{Project: project, Features: features}
		return nil
	})
	return detail, err
}

func (s *EntityService) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	var projects []domain.ProjectSummary
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		projects, err = tx.ListProjects(ctx)
		return err
	})
	return projects, err
}

func (s *EntityService) UpdateProject(ctx context.Context, id uuid.UUID, patch domain.ProjectPatch) (domain.Project, error) {
	if err := validateInput(patch); err != nil {
		return domain.Project{}, err
	}

	var project domain.Project
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(&project)
		project.Touch(s.now())
		return tx.UpdateProject(ctx, project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// DeleteProject removes the project with its features, their PBIs and the
// project's agent logs. It reports false when the project did not exist.
func (s *EntityService) DeleteProject(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		existed              bool
		features, pbis, logs int
	)
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}

		now := s.now()
		summaries, err := tx.ListFeatures(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range summaries {
			n, err := deleteFeatureTree(ctx, tx, f.ID, now)
			if err != nil {
				return err
			}
			pbis += n
		}
		features = len(summaries)

		if logs, err = tx.DeleteAgentLogs(ctx, id); err != nil {
			return err
		}
		existed, err = tx.DeleteProject(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if existed {
		s.log.Info("project deleted",
			zap.Stringer("project_id", id),
			zap.Int("features", features),
			zap.Int("pbis", pbis),
			zap.Int("agent_logs", logs),
		)
	}
	return existed, nil
}
