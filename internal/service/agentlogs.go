package service

import (
	"context"

	"geonosis/internal/domain"
	"geonosis/internal/storage"

	"github.com/google/uuid"
)

func (s *EntityService) AppendAgentLog(ctx context.Context, in domain.NewAgentLog) (domain.AgentLog, error) {
	if err := validateInput(in); err != nil {
		return domain.AgentLog{}, err
	}
	extra := domain.CloneExtra(in.ExtraData)
	if extra == nil {
		extra = map[string]any{}
	}

	entry := domain.AgentLog{
		Base:        domain.NewBase(s.now()),
		ProjectID:   in.ProjectID,
		PBIID:       domain.ClonePtr(in.PBIID),
		AgentName:   in.AgentName,
		MessageType: in.MessageType,
		Content:     in.Content,
		ExtraData:   extra,
	}
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, in.ProjectID); err != nil {
			return err
		}
		if in.PBIID != nil {
			if _, err := tx.GetPBI(ctx, *in.PBIID); err != nil {
				return err
			}
		}
		return tx.InsertAgentLog(ctx, entry)
	})
	if err != nil {
		return domain.AgentLog{}, err
	}
	return entry.Clone(), nil
}

// ListAgentLogs returns the project's logs oldest first. A non-nil pbiID keeps
// only the entries referencing that PBI.
func (s *EntityService) ListAgentLogs(ctx context.Context, projectID uuid.UUID, pbiID *uuid.UUID) ([]domain.AgentLog, error) {
	var logs []domain.AgentLog
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		var err error
		logs, err = tx.ListAgentLogs(ctx, projectID, pbiID)
		return err
	})
	return logs, err
}
