package service

import (
	"context"
	"errors"

	"geonosis/internal/domain"
	"geonosis/internal/ordering"
	"geonosis/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *EntityService) CreatePBI(ctx context.Context, in domain.NewPBI) (domain.PBI, error) {
	if err := validateInput(in); err != nil {
		return domain.PBI{}, err
	}

	pbi := domain.PBI{
		Base:          domain.NewBase(s.now()),
		FeatureID:     in.FeatureID,
		Title:         in.Title,
		Description:   in.Description,
		Type:          in.Type,
		Status:        domain.PBIPending,
		AssignedAgent: domain.ClonePtr(in.AssignedAgent),
		BranchName:    domain.ClonePtr(in.BranchName),
		BlockedByID:   domain.ClonePtr(in.BlockedByID),
	}
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetFeature(ctx, in.FeatureID); err != nil {
			return err
		}
		if in.BlockedByID != nil {
			if _, err := tx.GetPBI(ctx, *in.BlockedByID); err != nil {
				return err
			}
		}
		maxOrder, found, err := tx.MaxPBIOrder(ctx, in.FeatureID)
		if err != nil {
			return err
		}
		pbi.Order = ordering.Resolve(in.Order, ordering.Next(maxOrder, found))
		return tx.InsertPBI(ctx, pbi)
	})
	if err != nil {
		return domain.PBI{}, err
	}
	return pbi, nil
}

func (s *EntityService) GetPBI(ctx context.Context, id uuid.UUID) (domain.PBI, error) {
	var pbi domain.PBI
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		pbi, err = tx.GetPBI(ctx, id)
		return err
	})
	return pbi, err
}

// ListPBIs returns an empty list for an unknown feature.
func (s *EntityService) ListPBIs(ctx context.Context, featureID uuid.UUID) ([]domain.PBI, error) {
	var pbis []domain.PBI
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		pbis, err = tx.ListPBIs(ctx, featureID)
		return err
	})
	return pbis, err
}

func (s *EntityService) UpdatePBI(ctx context.Context, id uuid.UUID, patch domain.PBIPatch) (domain.PBI, error) {
	if err := validateInput(patch); err != nil {
		return domain.PBI{}, err
	}

	var pbi domain.PBI
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		pbi, err = tx.GetPBI(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(&pbi)
		pbi.Touch(s.now())
		return tx.UpdatePBI(ctx, pbi)
	})
	if err != nil {
		return domain.PBI{}, err
	}
	return pbi, nil
}

// DeletePBI removes one PBI. PBIs it was blocking become unblocked and agent
// logs that referenced it are kept without the reference.
func (s *EntityService) DeletePBI(ctx context.Context, id uuid.UUID) (bool, error) {
	var existed bool
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetPBI(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}

		now := s.now()
		ids := []uuid.UUID{id}
		if err := tx.ClearBlockedBy(ctx, ids, now); err != nil {
			return err
		}
		if err := tx.DetachAgentLogs(ctx, ids, now); err != nil {
			return err
		}
		var err error
		existed, err = tx.DeletePBI(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// SetBlocker points the PBI at blockerID, or clears the link when blockerID is
// nil. The blocker must exist. Cycles are only rejected when the service was
// built WithCycleCheck(true).
func (s *EntityService) SetBlocker(ctx context.Context, id uuid.UUID, blockerID *uuid.UUID) (domain.PBI, error) {
	var pbi domain.PBI
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		var err error
		pbi, err = tx.GetPBI(ctx, id)
		if err != nil {
			return err
		}

		pbi.BlockedByID = nil
		if blockerID != nil {
			if _, err := tx.GetPBI(ctx, *blockerID); err != nil {
				return err
			}
			if s.cycleCheck {
				if err := checkCycle(ctx, tx, id, *blockerID); err != nil {
					return err
				}
			}
			blocker := *blockerID
			pbi.BlockedByID = &blocker
		}

		pbi.Touch(s.now())
		return tx.UpdatePBI(ctx, pbi)
	})
	if err != nil {
		return domain.PBI{}, err
	}

	s.log.Debug("pbi blocker set", zap.Stringer("pbi_id", id), zap.Any("blocked_by_id", blockerID))
	return pbi, nil
}

// checkCycle follows the blocked-by chain upward from blockerID. Reaching id
// means the new edge would close a loop. A loop that does not pass through id
// ends the walk.
func checkCycle(ctx context.Context, tx storage.Tx, id, blockerID uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{})
	for cur := blockerID; ; {
		if cur == id {
			return &domain.CycleError{PBIID: id, BlockerID: blockerID}
		}
		if _, ok := seen[cur]; ok {
			return nil
		}
		seen[cur] = struct{}{}

		p, err := tx.GetPBI(ctx, cur)
		if err != nil {
			return err
		}
		if p.BlockedByID == nil {
			return nil
		}
		cur = *p.BlockedByID
	}
}

// Blocking lists the PBIs that name id as their blocker.
func (s *EntityService) Blocking(ctx context.Context, id uuid.UUID) ([]domain.PBI, error) {
	var pbis []domain.PBI
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetPBI(ctx, id); err != nil {
			return err
		}
		var err error
		pbis, err = tx.ListBlocking(ctx, id)
		return err
	})
	return pbis, err
}

// GetPBIDetail reads the PBI and resolves its pull request link in one unit of
// work.
func (s *EntityService) GetPBIDetail(ctx context.Context, id uuid.UUID) (domain.PBIDetail, error) {
	var detail domain.PBIDetail
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		pbi, err := tx.GetPBI(ctx, id)
		if err != nil {
			return err
		}
		url, ok, err := resolvePRURL(ctx, tx, pbi)
		if err != nil {
			return err
		}
		detail.PBI = pbi
		if ok {
			detail.PRURL = &url
		}
		return nil
	})
	return detail, err
}

// PRURL resolves the pull request link through the PBI's feature and project.
func (s *EntityService) PRURL(ctx context.Context, pbiID uuid.UUID) (string, bool, error) {
	var (
		url string
		ok  bool
	)
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		pbi, err := tx.GetPBI(ctx, pbiID)
		if err != nil {
			return err
		}
		url, ok, err = resolvePRURL(ctx, tx, pbi)
		return err
	})
	return url, ok, err
}

func resolvePRURL(ctx context.Context, tx storage.Tx, pbi domain.PBI) (string, bool, error) {
	if pbi.PRNumber == nil || *pbi.PRNumber == 0 {
		return "", false, nil
	}
	feature, err := tx.GetFeature(ctx, pbi.FeatureID)
	if err != nil {
		return "", false, err
	}
	project, err := tx.GetProject(ctx, feature.ProjectID)
	if err != nil {
		return "", false, err
	}
	url, ok := pbi.PRURL(project.GithubRepoURL)
	return url, ok, nil
}
