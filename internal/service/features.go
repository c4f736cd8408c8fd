package service

import (
	"context"
	"errors"
	"time"

	"geonosis/internal/domain"
	"geonosis/internal/ordering"
	"geonosis/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *EntityService) CreateFeature(ctx context.Context, in domain.NewFeature) (domain.Feature, error) {
	if err := validateInput(in); err != nil {
		return domain.Feature{}, err
	}

	feature := domain.Feature{
		Base:        domain.NewBase(s.now()),
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Description: in.Description,
		Status:      domain.FeaturePending,
	}
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, in.ProjectID); err != nil {
			return err
		}
		maxOrder, found, err := tx.MaxFeatureOrder(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		feature.Order = ordering.Resolve(in.Order, ordering.Next(maxOrder, found))
		return tx.InsertFeature(ctx, feature)
	})
	if err != nil {
		return domain.Feature{}, err
	}
	return feature, nil
}

// BulkCreateFeatures appends every item after the project's current last
// feature, in input order. Per-item order values are ignored.
func (s *EntityService) BulkCreateFeatures(ctx context.Context, in domain.BulkFeatures) ([]domain.Feature, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var created []domain.Feature
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, in.ProjectID); err != nil {
			return err
		}
		maxOrder, found, err := tx.MaxFeatureOrder(ctx, in.ProjectID)
		if err != nil {
			return err
		}

		now := s.now()
		positions := ordering.Sequence(ordering.Next(maxOrder, found), len(in.Features))
		created = make([]domain.Feature, 0, len(in.Features))
		for i, item := range in.Features {
			feature := domain.Feature{
				Base:        domain.NewBase(now),
				ProjectID:   in.ProjectID,
				Name:        item.Name,
				Description: item.Description,
				Status:      domain.FeaturePending,
				Order:       positions[i],
			}
			if err := tx.InsertFeature(ctx, feature); err != nil {
				return err
			}
			created = append(created, feature)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("features created in bulk",
		zap.Stringer("project_id", in.ProjectID),
		zap.Int("count", len(created)),
	)
	return created, nil
}

func (s *EntityService) GetFeature(ctx context.Context, id uuid.UUID) (domain.FeatureDetail, error) {
	var detail domain.FeatureDetail
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		feature, err := tx.GetFeature(ctx, id)
		if err != nil {
			return err
		}
		pbis, err := tx.ListPBIs(ctx, id)
		if err != nil {
			return err
		}
		detail = domain.FeatureDetail{Feature: feature, PBICount: len(pbis)}
		return nil
	})
	return detail, err
}

// ListFeatures returns an empty list for an unknown project.
func (s *EntityService) ListFeatures(ctx context.Context, projectID uuid.UUID) ([]domain.FeatureSummary, error) {
	var features []domain.FeatureSummary
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		features, err = tx.ListFeatures(ctx, projectID)
		return err
	})
	return features, err
}

func (s *EntityService) UpdateFeature(ctx context.Context, id uuid.UUID, patch domain.FeaturePatch) (domain.Feature, error) {
	if err := validateInput(patch); err != nil {
		return domain.Feature{}, err
	}

	var feature domain.Feature
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		feature, err = tx.GetFeature(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(&feature)
		feature.Touch(s.now())
		return tx.UpdateFeature(ctx, feature)
	})
	if err != nil {
		return domain.Feature{}, err
	}
	return feature, nil
}

func (s *EntityService) UpdateFeatureStatus(ctx context.Context, id uuid.UUID, status domain.FeatureStatus) (domain.Feature, error) {
	return s.UpdateFeature(ctx, id, domain.FeaturePatch{Status: &status})
}

func (s *EntityService) DeleteFeature(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		existed bool
		pbis    int
	)
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetFeature(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		var err error
		pbis, err = deleteFeatureTree(ctx, tx, id, s.now())
		existed = err == nil
		return err
	})
	if err != nil {
		return false, err
	}

	if existed {
		s.log.Info("feature deleted", zap.Stringer("feature_id", id), zap.Int("pbis", pbis))
	}
	return existed, nil
}

// deleteFeatureTree removes a feature and its PBIs. Links into the removed
// PBIs from elsewhere are cleared first: blocked_by_id on surviving PBIs and
// pbi_id on agent logs.
func deleteFeatureTree(ctx context.Context, tx storage.Tx, featureID uuid.UUID, now time.Time) (int, error) {
	pbis, err := tx.ListPBIs(ctx, featureID)
	if err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, 0, len(pbis))
	for _, p := range pbis {
		ids = append(ids, p.ID)
	}
	if err := tx.ClearBlockedBy(ctx, ids, now); err != nil {
		return 0, err
	}
	if err := tx.DetachAgentLogs(ctx, ids, now); err != nil {
		return 0, err
	}

	n, err := tx.DeletePBIs(ctx, featureID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.DeleteFeature(ctx, featureID); err != nil {
		return 0, err
	}
	return n, nil
}
