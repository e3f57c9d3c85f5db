package queries

import (
	"context"
	"strings"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type ListActivityQuery struct {
	BusinessID string
	CampaignID string
	EntityType string
	EntityID   string
	Limit      int
}

type ListActivityUseCase struct {
	Activity ports.ActivityLog
}

// Execute returns entries newest first.
func (uc ListActivityUseCase) Execute(ctx context.Context, query ListActivityQuery) ([]entities.ActivityEntry, error) {
	limit := query.Limit
	switch {
	case limit < 0:
		return nil, domainerrors.InvalidInput("limit must not be negative")
	case limit == 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	items, err := uc.Activity.ListActivity(ctx, ports.ActivityFilter{
		BusinessID: strings.TrimSpace(query.BusinessID),
		CampaignID: strings.TrimSpace(query.CampaignID),
		EntityType: strings.TrimSpace(query.EntityType),
		EntityID:   strings.TrimSpace(query.EntityID),
		Limit:      limit,
	})
	if err != nil {
		return nil, domainerrors.Persistence("list activity", err)
	}
	return items, nil
}
