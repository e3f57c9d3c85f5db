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

type CreateBusinessCommand struct {
	Name           string
	Slug           string
	Description    string
	Website        string
	BrandColors    []string
	Settings       map[string]any
	IdempotencyKey string
}

type CreateBusinessUseCase struct {
	UnitOfWork ports.UnitOfWork
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateBusinessUseCase) Execute(ctx context.Context, cmd CreateBusinessCommand) (entities.Business, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Business{}, domainerrors.InvalidInput("business name is required")
	}
	slug := strings.TrimSpace(cmd.Slug)
	if slug == "" {
		slug = entities.Slugify(name)
	}
	if slug == "" {
		return entities.Business{}, domainerrors.InvalidInput("business name %q does not produce a usable slug", name)
	}

	businessID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Business{}, err
	}
	now := uc.Clock.Now().UTC()
	business := entities.Business{
		BusinessID:  businessID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(cmd.Description),
		Website:     strings.TrimSpace(cmd.Website),
		BrandColors: append([]string(nil), cmd.BrandColors...),
		Settings:    cmd.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if business.Settings == nil {
		business.Settings = map[string]any{}
	}

	request := keyedRequest{
		Key:       cmd.IdempotencyKey,
		Operation: "business.create",
		Fields: map[string]any{
			"name":         business.Name,
			"slug":         business.Slug,
			"description":  business.Description,
			"website":      business.Website,
			"brand_colors": business.BrandColors,
			"settings":     business.Settings,
		},
	}
	var replayed bool
	err = uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		business, replayed, err = runIdempotent(ctx, repo, now, request, func() (entities.Business, error) {
			if _, exists, err := repo.GetBusinessBySlug(ctx, slug); err != nil {
				return entities.Business{}, domainerrors.Persistence("lookup business slug", err)
			} else if exists {
				return entities.Business{}, domainerrors.Conflict("business slug %q already exists", slug)
			}
			if err := repo.CreateBusiness(ctx, business); err != nil {
				return entities.Business{}, domainerrors.Persistence("create business", err)
			}
			return business, recordActivity(ctx, repo, uc.IDGen, entities.ActivityEntry{
				BusinessID: business.BusinessID,
				Actor:      entities.ActorHuman,
				Action:     entities.ActionBusinessCreated,
				EntityType: entities.EntityTypeBusiness,
				EntityID:   business.BusinessID,
				Details: map[string]any{
					"name": business.Name,
					"slug": business.Slug,
				},
				CreatedAt: now,
			})
		})
		return err
	})
	if err != nil {
		return entities.Business{}, err
	}
	if replayed {
		return business, nil
	}

	logger.Info("business created",
		"event", "business_created",
		"module", application.ModuleName,
		"layer", "application",
		"business_id", business.BusinessID,
		"slug", business.Slug,
	)
	return business, nil
}
