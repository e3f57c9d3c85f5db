package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/commands"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/queries"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	httptransport "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/transport/http"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/optional"
)

type Handler struct {
	CreateBusiness         commands.CreateBusinessUseCase
	CreatePlaybook         commands.CreatePlaybookUseCase
	CreateCampaign         commands.CreateCampaignUseCase
	ChangeStatus           commands.ChangeStatusUseCase
	AddContent             commands.AddContentUseCase
	CreateTask             commands.CreateTaskUseCase
	UpdateTask             commands.UpdateTaskUseCase
	CompleteTask           commands.CompleteTaskUseCase
	CreateEscalation       commands.CreateEscalationUseCase
	ChangeEscalationStatus commands.ChangeEscalationStatusUseCase
	GetCampaign            queries.GetCampaignUseCase
	GetTask                queries.GetTaskUseCase
	ListTasks              queries.ListTasksUseCase
	ListEscalations        queries.ListEscalationsUseCase
	ListActivity           queries.ListActivityUseCase
	Logger                 *slog.Logger
}

func (h Handler) CreateBusinessHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.CreateBusinessRequest,
) (httptransport.BusinessDTO, error) {
	business, err := h.CreateBusiness.Execute(ctx, commands.CreateBusinessCommand{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Website:        req.Website,
		BrandColors:    append([]string(nil), req.BrandColors...),
		Settings:       req.Settings,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.BusinessDTO{}, err
	}
	return mapBusiness(business), nil
}

func (h Handler) CreatePlaybookHandler(
	ctx context.Context,
	businessID string,
	idempotencyKey string,
	req httptransport.CreatePlaybookRequest,
) (httptransport.PlaybookDTO, error) {
	playbook, err := h.CreatePlaybook.Execute(ctx, commands.CreatePlaybookCommand{
		BusinessID:     businessID,
		Name:           req.Name,
		Description:    req.Description,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.PlaybookDTO{}, err
	}
	return httptransport.PlaybookDTO{
		PlaybookID:  playbook.PlaybookID,
		BusinessID:  playbook.BusinessID,
		Name:        playbook.Name,
		Description: playbook.Description,
		CreatedAt:   formatTime(playbook.CreatedAt),
	}, nil
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	playbookID string,
	idempotencyKey string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CampaignDTO, error) {
	campaign, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		PlaybookID:     playbookID,
		Name:           req.Name,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CampaignDTO{}, err
	}
	return mapCampaign(campaign), nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.CampaignDTO, error) {
	campaign, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignDTO{}, err
	}
	return mapCampaign(campaign), nil
}

// CampaignActionHandler serves approve, launch, pause, resume and complete.
func (h Handler) CampaignActionHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	action entities.CampaignAction,
	idempotencyKey string,
	req httptransport.StatusActionRequest,
) (httptransport.CampaignDTO, error) {
	campaign, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		CampaignID:     campaignID,
		ActorID:        userID,
		Action:         action,
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CampaignDTO{}, err
	}
	return mapCampaign(campaign), nil
}

func (h Handler) AddContentHandler(
	ctx context.Context,
	campaignID string,
	idempotencyKey string,
	req httptransport.AddContentRequest,
) (httptransport.ContentDTO, error) {
	content, err := h.AddContent.Execute(ctx, commands.AddContentCommand{
		CampaignID:     campaignID,
		Kind:           req.Kind,
		Body:           req.Body,
		MediaURL:       req.MediaURL,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.ContentDTO{}, err
	}
	return httptransport.ContentDTO{
		ContentID:  content.ContentID,
		CampaignID: content.CampaignID,
		Kind:       content.Kind,
		Body:       content.Body,
		MediaURL:   content.MediaURL,
		CreatedAt:  formatTime(content.CreatedAt),
	}, nil
}

func (h Handler) CreateTaskHandler(
	ctx context.Context,
	campaignID string,
	idempotencyKey string,
	req httptransport.CreateTaskRequest,
) (httptransport.TaskDTO, error) {
	dueDate, err := parseOptionalTime(req.DueDate)
	if err != nil {
		return httptransport.TaskDTO{}, err
	}
	task, err := h.CreateTask.Execute(ctx, commands.CreateTaskCommand{
		CampaignID:     campaignID,
		Title:          req.Title,
		Description:    req.Description,
		Instructions:   req.Instructions,
		Type:           req.Type,
		Assignee:       req.Assignee,
		Priority:       req.Priority,
		DueDate:        dueDate,
		DependsOn:      req.DependsOn,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.TaskDTO{}, err
	}
	return mapTask(task), nil
}

func (h Handler) GetTaskHandler(ctx context.Context, taskID string) (httptransport.TaskDTO, error) {
	task, err := h.GetTask.Execute(ctx, taskID)
	if err != nil {
		return httptransport.TaskDTO{}, err
	}
	return mapTask(task), nil
}

func (h Handler) UpdateTaskHandler(
	ctx context.Context,
	taskID string,
	idempotencyKey string,
	req httptransport.UpdateTaskRequest,
) (httptransport.TaskDTO, error) {
	cmd := commands.UpdateTaskCommand{
		TaskID:         taskID,
		Title:          req.Title,
		Description:    req.Description,
		Instructions:   req.Instructions,
		Priority:       req.Priority,
		Status:         req.Status,
		IdempotencyKey: idempotencyKey,
	}
	switch {
	case req.DueDate.Null:
		cmd.DueDate = optional.Null[time.Time]()
	case req.DueDate.Set:
		dueDate, err := parseTime(req.DueDate.Value)
		if err != nil {
			return httptransport.TaskDTO{}, err
		}
		cmd.DueDate = optional.Of(dueDate)
	}

	task, err := h.UpdateTask.Execute(ctx, cmd)
	if err != nil {
		return httptransport.TaskDTO{}, err
	}
	return mapTask(task), nil
}

func (h Handler) CompleteTaskHandler(
	ctx context.Context,
	taskID string,
	idempotencyKey string,
	req httptransport.CompleteTaskRequest,
) (httptransport.CompleteTaskResponse, error) {
	result, err := h.CompleteTask.Execute(ctx, commands.CompleteTaskCommand{
		TaskID:          taskID,
		CompletionNotes: req.CompletionNotes,
		IdempotencyKey:  idempotencyKey,
	})
	if err != nil {
		return httptransport.CompleteTaskResponse{}, err
	}
	resp := httptransport.CompleteTaskResponse{
		Task:           mapTask(result.Task),
		UnblockedTasks: append([]string{}, result.Unblocked...),
		CampaignStatus: string(result.CampaignStatus),
		CampaignReset:  result.CampaignReset,
	}
	if result.FollowUpErr != nil {
		resp.FollowUpError = result.FollowUpErr.Error()
	}
	return resp, nil
}

func (h Handler) ListTasksHandler(ctx context.Context, query queries.ListTasksQuery) (httptransport.ListTasksResponse, error) {
	items, err := h.ListTasks.Execute(ctx, query)
	if err != nil {
		return httptransport.ListTasksResponse{}, err
	}
	result := make([]httptransport.TaskDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapTask(item))
	}
	return httptransport.ListTasksResponse{Items: result}, nil
}

func (h Handler) CreateEscalationHandler(
	ctx context.Context,
	campaignID string,
	idempotencyKey string,
	req httptransport.CreateEscalationRequest,
) (httptransport.EscalationDTO, error) {
	escalation, err := h.CreateEscalation.Execute(ctx, commands.CreateEscalationCommand{
		CampaignID:     campaignID,
		Title:          req.Title,
		Description:    req.Description,
		Severity:       req.Severity,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.EscalationDTO{}, err
	}
	return mapEscalation(escalation), nil
}

func (h Handler) AcknowledgeEscalationHandler(ctx context.Context, escalationID string, idempotencyKey string) (httptransport.EscalationDTO, error) {
	escalation, err := h.ChangeEscalationStatus.Execute(ctx, commands.ChangeEscalationStatusCommand{
		EscalationID:   escalationID,
		TargetStatus:   entities.EscalationStatusAcknowledged,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.EscalationDTO{}, err
	}
	return mapEscalation(escalation), nil
}

func (h Handler) ResolveEscalationHandler(
	ctx context.Context,
	escalationID string,
	idempotencyKey string,
	req httptransport.ResolveEscalationRequest,
) (httptransport.EscalationDTO, error) {
	escalation, err := h.ChangeEscalationStatus.Execute(ctx, commands.ChangeEscalationStatusCommand{
		EscalationID:   escalationID,
		TargetStatus:   entities.EscalationStatusResolved,
		Resolution:     req.Resolution,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.EscalationDTO{}, err
	}
	return mapEscalation(escalation), nil
}

func (h Handler) ListEscalationsHandler(ctx context.Context, query queries.ListEscalationsQuery) (httptransport.ListEscalationsResponse, error) {
	items, err := h.ListEscalations.Execute(ctx, query)
	if err != nil {
		return httptransport.ListEscalationsResponse{}, err
	}
	result := make([]httptransport.EscalationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapEscalation(item))
	}
	return httptransport.ListEscalationsResponse{Items: result}, nil
}

func (h Handler) ListActivityHandler(ctx context.Context, query queries.ListActivityQuery) (httptransport.ListActivityResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	items, err := h.ListActivity.Execute(ctx, query)
	if err != nil {
		return httptransport.ListActivityResponse{}, err
	}
	result := make([]httptransport.ActivityEntryDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.ActivityEntryDTO{
			EntryID:    item.EntryID,
			BusinessID: item.BusinessID,
			CampaignID: item.CampaignID,
			Actor:      string(item.Actor),
			Action:     item.Action,
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Details:    item.Details,
			CreatedAt:  formatTime(item.CreatedAt),
		})
	}
	logger.Debug("activity listed",
		"event", "activity_listed",
		"module", application.ModuleName,
		"layer", "transport",
		"count", len(result),
	)
	return httptransport.ListActivityResponse{Items: result}, nil
}

func mapBusiness(item entities.Business) httptransport.BusinessDTO {
	return httptransport.BusinessDTO{
		BusinessID:  item.BusinessID,
		Name:        item.Name,
		Slug:        item.Slug,
		Description: item.Description,
		Website:     item.Website,
		BrandColors: append([]string{}, item.BrandColors...),
		Settings:    item.Settings,
		CreatedAt:   formatTime(item.CreatedAt),
	}
}

func mapCampaign(item entities.Campaign) httptransport.CampaignDTO {
	return httptransport.CampaignDTO{
		CampaignID:   item.CampaignID,
		PlaybookID:   item.PlaybookID,
		BusinessID:   item.BusinessID,
		Name:         item.Name,
		Status:       string(item.Status),
		ContentCount: item.ContentCount,
		CreatedAt:    formatTime(item.CreatedAt),
		UpdatedAt:    formatTime(item.UpdatedAt),
		LaunchedAt:   formatOptionalTime(item.LaunchedAt),
		CompletedAt:  formatOptionalTime(item.CompletedAt),
	}
}

func mapTask(item entities.Task) httptransport.TaskDTO {
	_, blocked := item.BlockedBy()
	return httptransport.TaskDTO{
		TaskID:          item.TaskID,
		CampaignID:      item.CampaignID,
		Title:           item.Title,
		Description:     item.Description,
		Instructions:    item.Instructions,
		Type:            item.Type,
		Assignee:        string(item.Assignee),
		Status:          string(item.Status),
		Priority:        item.Priority,
		DueDate:         formatOptionalTime(item.DueDate),
		CompletedAt:     formatOptionalTime(item.CompletedAt),
		CompletionNotes: item.CompletionNotes,
		DependsOn:       item.DependsOn,
		Blocked:         blocked,
		CreatedAt:       formatTime(item.CreatedAt),
	}
}

func mapEscalation(item entities.Escalation) httptransport.EscalationDTO {
	return httptransport.EscalationDTO{
		EscalationID: item.EscalationID,
		CampaignID:   item.CampaignID,
		Title:        item.Title,
		Description:  item.Description,
		Status:       string(item.Status),
		Severity:     string(item.Severity),
		Resolution:   item.Resolution,
		CreatedAt:    formatTime(item.CreatedAt),
		ResolvedAt:   formatOptionalTime(item.ResolvedAt),
	}
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := formatTime(*value)
	return &formatted
}

// parseTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domainerrors.InvalidInput("invalid date %q", raw)
	}
	return parsed.UTC(), nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
