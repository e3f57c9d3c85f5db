package queries

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type ListEscalationsQuery struct {
	Status     string
	Severity   string
	CampaignID string
}

type ListEscalationsUseCase struct {
	Escalations ports.EscalationRepository
	Logger      *slog.Logger
}

func (uc ListEscalationsUseCase) Execute(ctx context.Context, query ListEscalationsQuery) ([]entities.Escalation, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter := ports.EscalationFilter{
		CampaignID: strings.TrimSpace(query.CampaignID),
	}
	if value := strings.ToLower(strings.TrimSpace(query.Status)); value != "" {
		filter.Status = entities.EscalationStatus(value)
		if filter.Status != entities.EscalationStatusActive && !entities.IsSupportedEscalationStatus(filter.Status) {
			return nil, domainerrors.InvalidInput("unsupported status filter %q", value)
		}
	}
	if value := strings.ToLower(strings.TrimSpace(query.Severity)); value != "" {
		filter.Severity = entities.Severity(value)
		if !entities.IsSupportedSeverity(filter.Severity) {
			return nil, domainerrors.InvalidInput("unsupported severity filter %q", value)
		}
	}

	items, err := uc.Escalations.ListEscalations(ctx, filter)
	if err != nil {
		return nil, domainerrors.Persistence("list escalations", err)
	}
	logger.Debug("escalations listed",
		"event", "escalations_listed",
		"module", application.ModuleName,
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}
