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

type CreateCampaignCommand struct {
	PlaybookID     string
	Name           string
	IdempotencyKey string
}

type CreateCampaignUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()
	campaign := entities.Campaign{
		PlaybookID: strings.TrimSpace(cmd.PlaybookID),
		Name:       strings.TrimSpace(cmd.Name),
		Status:     entities.CampaignStatusSetup,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if !campaign.ValidateBasics() {
		return entities.Campaign{}, domainerrors.InvalidInput("campaign requires a playbook id and a name of at most 200 characters")
	}

	campaignID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Campaign{}, err
	}
	campaign.CampaignID = campaignID

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "campaign.create",
		Fields: map[string]any{
			"playbook_id": campaign.PlaybookID,
			"name":        campaign.Name,
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		campaign, replayed, err = runIdempotent(ctx, repo, now, request, func() (entities.Campaign, error) {
			playbook, err := repo.GetPlaybook(ctx, campaign.PlaybookID)
			if err != nil {
				return entities.Campaign{}, err
			}
			campaign.BusinessID = playbook.BusinessID
			if err := repo.CreateCampaign(ctx, campaign); err != nil {
				return entities.Campaign{}, domainerrors.Persistence("create campaign", err)
			}
			if err := recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: campaign.BusinessID,
				CampaignID: campaign.CampaignID,
				Actor:      entities.ActorHuman,
				Action:     entities.ActionCampaignCreated,
				EntityType: entities.EntityTypeCampaign,
				EntityID:   campaign.CampaignID,
				Details: map[string]any{
					"name":        campaign.Name,
					"playbook_id": campaign.PlaybookID,
				},
				CreatedAt: now,
			}); err != nil {
				return entities.Campaign{}, err
			}
			return campaign, publishEvent(ctx, repo, uc.IDGen, "campaign.created", campaign.CampaignID, now, map[string]any{
				"campaign_id": campaign.CampaignID,
				"business_id": campaign.BusinessID,
				"status":      string(campaign.Status),
			})
		})
		return err
	})
	if err != nil {
		return entities.Campaign{}, err
	}
	if replayed {
		return campaign, nil
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", application.ModuleName,
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"playbook_id", campaign.PlaybookID,
	)
	return campaign, nil
}
