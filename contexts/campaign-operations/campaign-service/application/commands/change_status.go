package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type ChangeStatusCommand struct {
	CampaignID     string
	ActorID        string
	Action         entities.CampaignAction
	Reason         string
	IdempotencyKey string
}

// ChangeStatusUseCase is the campaign state machine. The precondition checks,
// the status write and the activity append share one unit of work, so two
// concurrent launches cannot both observe a launchable campaign.
type ChangeStatusUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if campaignID == "" {
		return entities.Campaign{}, domainerrors.InvalidInput("campaign id is required")
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "campaign." + string(cmd.Action),
		Fields: map[string]any{
			"campaign_id": campaignID,
			"actor_id":    strings.TrimSpace(cmd.ActorID),
			"reason":      strings.TrimSpace(cmd.Reason),
		},
	}
	var (
		updated  entities.Campaign
		from     entities.CampaignStatus
		replayed bool
	)
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		updated, replayed, err = runIdempotent(ctx, repo, uc.Clock.Now().UTC(), request, func() (entities.Campaign, error) {
			campaign, err := repo.LockCampaign(ctx, campaignID)
			if err != nil {
				return entities.Campaign{}, err
			}
			from = campaign.Status
			to, ok := entities.NextCampaignStatus(from, cmd.Action)
			if !ok {
				return entities.Campaign{}, domainerrors.InvalidTransition("cannot %s campaign in status %q", cmd.Action, from)
			}
			if cmd.Action == entities.CampaignActionLaunch {
				if err := checkLaunchGates(ctx, repo, campaign.CampaignID); err != nil {
					return entities.Campaign{}, err
				}
			}

			now := uc.Clock.Now().UTC()
			campaign.Status = to
			campaign.UpdatedAt = now
			switch cmd.Action {
			case entities.CampaignActionLaunch:
				campaign.LaunchedAt = &now
			case entities.CampaignActionComplete:
				campaign.CompletedAt = &now
			}
			if err := repo.UpdateCampaignStatus(ctx, campaign); err != nil {
				return entities.Campaign{}, domainerrors.Persistence("update campaign status", err)
			}

			details := map[string]any{
				"from_status": string(from),
				"to_status":   string(to),
			}
			if reason := strings.TrimSpace(cmd.Reason); reason != "" {
				details["reason"] = reason
			}
			if actor := strings.TrimSpace(cmd.ActorID); actor != "" {
				details["actor_id"] = actor
			}
			if err := recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: campaign.BusinessID,
				CampaignID: campaign.CampaignID,
				Actor:      entities.ActorHuman,
				Action:     cmd.Action.ActivityAction(),
				EntityType: entities.EntityTypeCampaign,
				EntityID:   campaign.CampaignID,
				Details:    details,
				CreatedAt:  now,
			}); err != nil {
				return entities.Campaign{}, err
			}
			if err := publishEvent(ctx, repo, uc.IDGen, "campaign."+strings.TrimPrefix(cmd.Action.ActivityAction(), "campaign_"), campaign.CampaignID, now, map[string]any{
				"campaign_id": campaign.CampaignID,
				"business_id": campaign.BusinessID,
				"from_status": string(from),
				"to_status":   string(to),
			}); err != nil {
				return entities.Campaign{}, err
			}
			return campaign, nil
		})
		return err
	})
	if err != nil {
		logger.Warn("campaign state change rejected",
			"event", "campaign_state_change_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"campaign_id", campaignID,
			"action", string(cmd.Action),
			"kind", domainerrors.Kind(err),
			"error", err.Error(),
		)
		return entities.Campaign{}, err
	}

	if replayed {
		logger.Info("campaign state change replayed",
			"event", "campaign_state_change_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"campaign_id", updated.CampaignID,
			"action", string(cmd.Action),
		)
		return updated, nil
	}

	logger.Info("campaign state changed",
		"event", "campaign_state_changed",
		"module", application.ModuleName,
		"layer", "application",
		"campaign_id", updated.CampaignID,
		"from_status", string(from),
		"to_status", string(updated.Status),
	)
	return updated, nil
}

// checkLaunchGates enforces the launch preconditions beyond the source status:
// every human task completed and at least one content record.
func checkLaunchGates(ctx context.Context, repo ports.Repository, campaignID string) error {
	pending, err := repo.ListTasks(ctx, ports.TaskFilter{
		CampaignID: campaignID,
		Assignee:   entities.AssigneeHuman,
		Incomplete: true,
	})
	if err != nil {
		return domainerrors.Persistence("list pending human tasks", err)
	}
	if len(pending) > 0 {
		sort.SliceStable(pending, func(i, j int) bool {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		})
		titles := make([]string, 0, len(pending))
		for _, task := range pending {
			titles = append(titles, task.Title)
		}
		return domainerrors.InvalidTransition("cannot launch campaign with pending human tasks: %s", strings.Join(titles, ", "))
	}

	contentCount, err := repo.CountContent(ctx, campaignID)
	if err != nil {
		return domainerrors.Persistence("count campaign content", err)
	}
	if contentCount < 1 {
		return domainerrors.InvalidTransition("campaign must have content before launch")
	}
	return nil
}
