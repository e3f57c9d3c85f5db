package commands

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type CreatePlaybookCommand struct {
	BusinessID     string
	Name           string
	Description    string
	IdempotencyKey string
}

type CreatePlaybookUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreatePlaybookUseCase) Execute(ctx context.Context, cmd CreatePlaybookCommand) (entities.Playbook, error) {
	logger := application.ResolveLogger(uc.Logger)
	businessID := strings.TrimSpace(cmd.BusinessID)
	name := strings.TrimSpace(cmd.Name)
	if businessID == "" || name == "" {
		return entities.Playbook{}, domainerrors.InvalidInput("playbook requires a business id and a name")
	}

	playbookID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Playbook{}, err
	}
	playbook := entities.Playbook{
		PlaybookID:  playbookID,
		BusinessID:  businessID,
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		CreatedAt:   uc.Clock.Now().UTC(),
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "playbook.create",
		Fields: map[string]any{
			"business_id": businessID,
			"name":        name,
			"description": playbook.Description,
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		playbook, replayed, err = runIdempotent(ctx, repo, playbook.CreatedAt, request, func() (entities.Playbook, error) {
			if _, err := repo.GetBusiness(ctx, businessID); err != nil {
				return entities.Playbook{}, err
			}
			if err := repo.CreatePlaybook(ctx, playbook); err != nil {
				return entities.Playbook{}, domainerrors.Persistence("create playbook", err)
			}
			return playbook, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: businessID,
				Actor:      entities.ActorHuman,
				Action:     entities.ActionPlaybookCreated,
				EntityType: entities.EntityTypePlaybook,
				EntityID:   playbook.PlaybookID,
				Details:    map[string]any{"name": playbook.Name},
				CreatedAt:  playbook.CreatedAt,
			})
		})
		return err
	})
	if err != nil {
		return entities.Playbook{}, err
	}
	if replayed {
		return playbook, nil
	}

	logger.Info("playbook created",
		"event", "playbook_created",
		"module", application.ModuleName,
		"layer", "application",
		"playbook_id", playbook.PlaybookID,
		"business_id", businessID,
	)
	return playbook, nil
}
