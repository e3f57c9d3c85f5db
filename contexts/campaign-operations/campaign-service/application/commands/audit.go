package commands

import (
	"context"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/events"
)

const sourceService = "campaign-service"

// recordActivity appends entry through repo. It runs inside the caller's
// unit of work, so an append failure rolls back the mutation it describes.
func recordActivity(
	ctx context.Context,
	repo ports.Repository,
	idGen ports.IDGenerator,
	entry entities.ActivityEntry,
) error {
	entryID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	entry.EntryID = entryID
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	if !entry.HasReferences() {
		return domainerrors.InvalidInput("activity entry for %s %q is missing references", entry.EntityType, entry.EntityID)
	}
	if err := repo.AppendActivity(ctx, entry); err != nil {
		return domainerrors.Persistence("append activity", err)
	}
	return nil
}

func publishEvent(
	ctx context.Context,
	repo ports.Repository,
	idGen ports.IDGenerator,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := events.New(eventID, eventType, sourceService, "campaign_id", campaignID, occurredAt, data)
	if err != nil {
		return err
	}
	if err := repo.AppendOutbox(ctx, envelope); err != nil {
		return domainerrors.Persistence("append outbox", err)
	}
	return nil
}
