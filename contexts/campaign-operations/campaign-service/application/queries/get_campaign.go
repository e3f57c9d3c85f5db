package queries

import (
	"context"
	"strings"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return entities.Campaign{}, domainerrors.InvalidInput("campaign id is required")
	}
	return uc.Campaigns.GetCampaign(ctx, campaignID)
}
