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

type CreateEscalationCommand struct {
	CampaignID     string
	Title          string
	Description    string
	Severity       string
	IdempotencyKey string
}

type CreateEscalationUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateEscalationUseCase) Execute(ctx context.Context, cmd CreateEscalationCommand) (entities.Escalation, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()
	escalation := entities.Escalation{
		CampaignID:  strings.TrimSpace(cmd.CampaignID),
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Status:      entities.EscalationStatusOpen,
		Severity:    entities.Severity(strings.ToLower(strings.TrimSpace(cmd.Severity))),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if escalation.CampaignID == "" || escalation.Title == "" {
		return entities.Escalation{}, domainerrors.InvalidInput("escalation requires a campaign id and a title")
	}
	if escalation.Severity == "" {
		escalation.Severity = entities.SeverityMedium
	}
	if !entities.IsSupportedSeverity(escalation.Severity) {
		return entities.Escalation{}, domainerrors.InvalidInput("unsupported severity %q", escalation.Severity)
	}

	escalationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Escalation{}, err
	}
	escalation.EscalationID = escalationID

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "escalation.create",
		Fields: map[string]any{
			"campaign_id": escalation.CampaignID,
			"title":       escalation.Title,
			"description": escalation.Description,
			"severity":    string(escalation.Severity),
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		escalation, replayed, err = runIdempotent(ctx, repo, now, request, func() (entities.Escalation, error) {
			campaign, err := repo.GetCampaign(ctx, escalation.CampaignID)
			if err != nil {
				return entities.Escalation{}, err
			}
			if err := repo.CreateEscalation(ctx, escalation); err != nil {
				return entities.Escalation{}, domainerrors.Persistence("create escalation", err)
			}
			return escalation, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: campaign.BusinessID,
				CampaignID: campaign.CampaignID,
				Actor:      entities.ActorHuman,
				Action:     entities.ActionEscalationCreated,
				EntityType: entities.EntityTypeEscalation,
				EntityID:   escalation.EscalationID,
				Details: map[string]any{
					"title":    escalation.Title,
					"severity": string(escalation.Severity),
				},
				CreatedAt: now,
			})
		})
		return err
	})
	if err != nil {
		return entities.Escalation{}, err
	}
	if replayed {
		return escalation, nil
	}

	logger.Info("escalation created",
		"event", "escalation_created",
		"module", application.ModuleName,
		"layer", "application",
		"escalation_id", escalation.EscalationID,
		"campaign_id", escalation.CampaignID,
		"severity", string(escalation.Severity),
	)
	return escalation, nil
}

type ChangeEscalationStatusCommand struct {
	EscalationID   string
	TargetStatus   entities.EscalationStatus
	Resolution     string
	IdempotencyKey string
}

// ChangeEscalationStatusUseCase handles acknowledge (open -> acknowledged)
// and resolve (open|acknowledged -> resolved).
type ChangeEscalationStatusUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ChangeEscalationStatusUseCase) Execute(ctx context.Context, cmd ChangeEscalationStatusCommand) (entities.Escalation, error) {
	logger := application.ResolveLogger(uc.Logger)
	escalationID := strings.TrimSpace(cmd.EscalationID)
	if escalationID == "" {
		return entities.Escalation{}, domainerrors.InvalidInput("escalation id is required")
	}
	var action string
	switch cmd.TargetStatus {
	case entities.EscalationStatusAcknowledged:
		action = entities.ActionEscalationAcknowledged
	case entities.EscalationStatusResolved:
		action = entities.ActionEscalationResolved
	default:
		return entities.Escalation{}, domainerrors.InvalidInput("unsupported escalation target status %q", cmd.TargetStatus)
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "escalation." + string(cmd.TargetStatus),
		Fields: map[string]any{
			"escalation_id": escalationID,
			"resolution":    strings.TrimSpace(cmd.Resolution),
		},
	}
	var (
		updated  entities.Escalation
		from     entities.EscalationStatus
		replayed bool
	)
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		updated, replayed, err = runIdempotent(ctx, repo, uc.Clock.Now().UTC(), request, func() (entities.Escalation, error) {
			escalation, err := repo.LockEscalation(ctx, escalationID)
			if err != nil {
				return entities.Escalation{}, err
			}
			from = escalation.Status
			if !entities.NextEscalationStatus(from, cmd.TargetStatus) {
				return entities.Escalation{}, domainerrors.InvalidTransition("cannot move escalation from %q to %q", from, cmd.TargetStatus)
			}
			campaign, err := repo.GetCampaign(ctx, escalation.CampaignID)
			if err != nil {
				return entities.Escalation{}, err
			}

			now := uc.Clock.Now().UTC()
			escalation.Status = cmd.TargetStatus
			escalation.UpdatedAt = now
			if cmd.TargetStatus == entities.EscalationStatusResolved {
				escalation.ResolvedAt = &now
				escalation.Resolution = strings.TrimSpace(cmd.Resolution)
			}
			if err := repo.UpdateEscalation(ctx, escalation); err != nil {
				return entities.Escalation{}, domainerrors.Persistence("update escalation", err)
			}
			details := map[string]any{
				"from_status": string(from),
				"to_status":   string(escalation.Status),
			}
			if escalation.Resolution != "" {
				details["resolution"] = escalation.Resolution
			}
			return escalation, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: campaign.BusinessID,
				CampaignID: campaign.CampaignID,
				Actor:      entities.ActorHuman,
				Action:     action,
				EntityType: entities.EntityTypeEscalation,
				EntityID:   escalation.EscalationID,
				Details:    details,
				CreatedAt:  now,
			})
		})
		return err
	})
	if err != nil {
		return entities.Escalation{}, err
	}
	if replayed {
		return updated, nil
	}

	logger.Info("escalation status changed",
		"event", "escalation_status_changed",
		"module", application.ModuleName,
		"layer", "application",
		"escalation_id", updated.EscalationID,
		"from_status", string(from),
		"to_status", string(updated.Status),
	)
	return updated, nil
}
