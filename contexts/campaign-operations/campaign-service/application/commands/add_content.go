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

type AddContentCommand struct {
	CampaignID     string
	Kind           string
	Body           string
	MediaURL       string
	IdempotencyKey string
}

type AddContentUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc AddContentUseCase) Execute(ctx context.Context, cmd AddContentCommand) (entities.Content, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if campaignID == "" {
		return entities.Content{}, domainerrors.InvalidInput("campaign id is required")
	}
	kind := strings.TrimSpace(cmd.Kind)
	if kind == "" {
		kind = "post"
	}

	contentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Content{}, err
	}
	content := entities.Content{
		ContentID:  contentID,
		CampaignID: campaignID,
		Kind:       kind,
		Body:       strings.TrimSpace(cmd.Body),
		MediaURL:   strings.TrimSpace(cmd.MediaURL),
		CreatedAt:  uc.Clock.Now().UTC(),
	}
	if content.Body == "" && content.MediaURL == "" {
		return entities.Content{}, domainerrors.InvalidInput("content requires a body or a media url")
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "content.add",
		Fields: map[string]any{
			"campaign_id": campaignID,
			"kind":        content.Kind,
			"body":        content.Body,
			"media_url":   content.MediaURL,
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		content, replayed, err = runIdempotent(ctx, repo, content.CreatedAt, request, func() (entities.Content, error) {
			campaign, err := repo.GetCampaign(ctx, campaignID)
			if err != nil {
				return entities.Content{}, err
			}
			if err := repo.AddContent(ctx, content); err != nil {
				return entities.Content{}, domainerrors.Persistence("add content", err)
			}
			return content, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: campaign.BusinessID,
				CampaignID: campaign.CampaignID,
				Actor:      entities.ActorHuman,
				Action:     entities.ActionContentAdded,
				EntityType: entities.EntityTypeContent,
				EntityID:   content.ContentID,
				Details:    map[string]any{"kind": content.Kind},
				CreatedAt:  content.CreatedAt,
			})
		})
		return err
	})
	if err != nil {
		return entities.Content{}, err
	}
	if replayed {
		return content, nil
	}

	logger.Info("content added",
		"event", "content_added",
		"module", application.ModuleName,
		"layer", "application",
		"content_id", content.ContentID,
		"campaign_id", campaignID,
	)
	return content, nil
}
