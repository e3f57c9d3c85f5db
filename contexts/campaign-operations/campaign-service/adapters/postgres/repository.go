package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	domainerrors "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/errors"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	taskStatusRankSQL = "CASE tasks.status WHEN 'pending' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'completed' THEN 2 WHEN 'blocked' THEN 3 ELSE 4 END"
	severityRankSQL   = "CASE escalations.severity WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 ELSE 0 END"
)

// Repository implements every campaign-service port on gorm. Inside WithinTx
// the callback receives a Repository bound to the transaction handle.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, logger: r.logger})
	})
}

// locked adds SELECT ... FOR UPDATE where the dialect supports row locks.
// SQLite serializes writers on the database file instead.
func (r *Repository) locked(ctx context.Context) *gorm.DB {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *Repository) CreateBusiness(ctx context.Context, business entities.Business) error {
	row, err := businessModelFromEntity(business)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("business slug %q already exists", business.Slug)
		}
		return domainerrors.Persistence("create business", err)
	}
	return nil
}

func (r *Repository) GetBusiness(ctx context.Context, businessID string) (entities.Business, error) {
	var row businessModel
	err := r.db.WithContext(ctx).
		Where("business_id = ?", strings.TrimSpace(businessID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Business{}, domainerrors.NotFound("business", businessID)
		}
		return entities.Business{}, domainerrors.Persistence("get business", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetBusinessBySlug(ctx context.Context, slug string) (entities.Business, bool, error) {
	var rows []businessModel
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.TrimSpace(slug)).
		Limit(1).
		Find(&rows).
		Error; err != nil {
		return entities.Business{}, false, domainerrors.Persistence("get business by slug", err)
	}
	if len(rows) == 0 {
		return entities.Business{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) CreatePlaybook(ctx context.Context, playbook entities.Playbook) error {
	row := playbookModel{
		PlaybookID:  strings.TrimSpace(playbook.PlaybookID),
		BusinessID:  strings.TrimSpace(playbook.BusinessID),
		Name:        strings.TrimSpace(playbook.Name),
		Description: playbook.Description,
		CreatedAt:   playbook.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("playbook %q already exists", playbook.PlaybookID)
		}
		return domainerrors.Persistence("create playbook", err)
	}
	return nil
}

func (r *Repository) GetPlaybook(ctx context.Context, playbookID string) (entities.Playbook, error) {
	var row playbookModel
	err := r.db.WithContext(ctx).
		Where("playbook_id = ?", strings.TrimSpace(playbookID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Playbook{}, domainerrors.NotFound("playbook", playbookID)
		}
		return entities.Playbook{}, domainerrors.Persistence("get playbook", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row := campaignModelFromEntity(campaign)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("campaign %q already exists", campaign.CampaignID)
		}
		return domainerrors.Persistence("create campaign", err)
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return r.loadCampaign(ctx, r.db.WithContext(ctx), campaignID)
}

func (r *Repository) LockCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	return r.loadCampaign(ctx, r.locked(ctx), campaignID)
}

func (r *Repository) loadCampaign(ctx context.Context, query *gorm.DB, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := query.
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.NotFound("campaign", campaignID)
		}
		return entities.Campaign{}, domainerrors.Persistence("get campaign", err)
	}
	campaign := row.toEntity()

	var businessIDs []string
	if err := r.db.WithContext(ctx).
		Model(&playbookModel{}).
		Where("playbook_id = ?", row.PlaybookID).
		Pluck("business_id", &businessIDs).
		Error; err != nil {
		return entities.Campaign{}, domainerrors.Persistence("resolve campaign business", err)
	}
	if len(businessIDs) > 0 {
		campaign.BusinessID = businessIDs[0]
	}
	count, err := r.CountContent(ctx, campaign.CampaignID)
	if err != nil {
		return entities.Campaign{}, err
	}
	campaign.ContentCount = count
	return campaign, nil
}

func (r *Repository) UpdateCampaignStatus(ctx context.Context, campaign entities.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaign.CampaignID)).
		Updates(map[string]any{
			"status":       string(campaign.Status),
			"updated_at":   campaign.UpdatedAt.UTC(),
			"launched_at":  normalizeOptionalTime(campaign.LaunchedAt),
			"completed_at": normalizeOptionalTime(campaign.CompletedAt),
		})
	if result.Error != nil {
		return domainerrors.Persistence("update campaign status", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("campaign", campaign.CampaignID)
	}
	return nil
}

func (r *Repository) AddContent(ctx context.Context, content entities.Content) error {
	row := contentModel{
		ContentID:  strings.TrimSpace(content.ContentID),
		CampaignID: strings.TrimSpace(content.CampaignID),
		Kind:       content.Kind,
		Body:       content.Body,
		MediaURL:   content.MediaURL,
		CreatedAt:  content.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("content %q already exists", content.ContentID)
		}
		return domainerrors.Persistence("add content", err)
	}
	return nil
}

func (r *Repository) CountContent(ctx context.Context, campaignID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&contentModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Count(&count).
		Error; err != nil {
		return 0, domainerrors.Persistence("count content", err)
	}
	return int(count), nil
}

func (r *Repository) CreateTask(ctx context.Context, task entities.Task) error {
	row := taskModelFromEntity(task)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("task %q already exists", task.TaskID)
		}
		return domainerrors.Persistence("create task", err)
	}
	return nil
}

func (r *Repository) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	return r.loadTask(ctx, r.db.WithContext(ctx), taskID)
}

func (r *Repository) LockTask(ctx context.Context, taskID string) (entities.Task, error) {
	return r.loadTask(ctx, r.locked(ctx), taskID)
}

func (r *Repository) loadTask(ctx context.Context, query *gorm.DB, taskID string) (entities.Task, error) {
	var row taskModel
	err := query.
		Where("task_id = ?", strings.TrimSpace(taskID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, domainerrors.NotFound("task", taskID)
		}
		return entities.Task{}, domainerrors.Persistence("get task", err)
	}
	items, err := r.withPrerequisites(ctx, []taskModel{row})
	if err != nil {
		return entities.Task{}, err
	}
	return items[0], nil
}

func (r *Repository) UpdateTask(ctx context.Context, task entities.Task) error {
	row := taskModelFromEntity(task)
	result := r.db.WithContext(ctx).
		Model(&taskModel{}).
		Where("task_id = ?", row.TaskID).
		Updates(map[string]any{
			"title":            row.Title,
			"description":      row.Description,
			"instructions":     row.Instructions,
			"priority":         row.Priority,
			"due_date":         row.DueDate,
			"status":           row.Status,
			"completed_at":     row.CompletedAt,
			"completion_notes": row.CompletionNotes,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return domainerrors.Persistence("update task", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("task", task.TaskID)
	}
	return nil
}

func (r *Repository) CountTasks(ctx context.Context, filter ports.TaskFilter) (int, error) {
	var count int64
	if err := r.taskQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, domainerrors.Persistence("count tasks", err)
	}
	return int(count), nil
}

func (r *Repository) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	var rows []taskModel
	if err := r.taskQuery(ctx, filter).
		Select("tasks.*").
		Order(taskStatusRankSQL + " ASC").
		Order("tasks.priority DESC").
		Order("tasks.created_at ASC").
		Order("tasks.task_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, domainerrors.Persistence("list tasks", err)
	}
	return r.withPrerequisites(ctx, rows)
}

func (r *Repository) taskQuery(ctx context.Context, filter ports.TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&taskModel{})
	if filter.CampaignID != "" {
		query = query.Where("tasks.campaign_id = ?", filter.CampaignID)
	}
	if filter.Assignee != "" {
		query = query.Where("tasks.assignee = ?", string(filter.Assignee))
	}
	switch {
	case filter.Status != "":
		query = query.Where("tasks.status = ?", string(filter.Status))
	case filter.Incomplete:
		query = query.Where("tasks.status <> ?", string(entities.TaskStatusCompleted))
	}
	if filter.DependsOn != "" {
		query = query.Where("tasks.depends_on = ?", filter.DependsOn)
	}
	if filter.BusinessID != "" {
		query = query.
			Joins("JOIN campaigns ON campaigns.campaign_id = tasks.campaign_id").
			Joins("JOIN playbooks ON playbooks.playbook_id = campaigns.playbook_id").
			Where("playbooks.business_id = ?", filter.BusinessID)
	}
	return query
}

// withPrerequisites converts rows and resolves each DependsOn in one query.
func (r *Repository) withPrerequisites(ctx context.Context, rows []taskModel) ([]entities.Task, error) {
	ids := make([]string, 0)
	for _, row := range rows {
		if row.DependsOn != "" {
			ids = append(ids, row.DependsOn)
		}
	}
	prerequisites := make(map[string]taskModel, len(ids))
	if len(ids) > 0 {
		var found []taskModel
		if err := r.db.WithContext(ctx).
			Where("task_id IN ?", ids).
			Find(&found).
			Error; err != nil {
			return nil, domainerrors.Persistence("resolve task prerequisites", err)
		}
		for _, item := range found {
			prerequisites[item.TaskID] = item
		}
	}

	items := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		task := row.toEntity()
		if prerequisite, ok := prerequisites[row.DependsOn]; ok {
			task.Prerequisite = &entities.TaskRef{
				TaskID: prerequisite.TaskID,
				Title:  prerequisite.Title,
				Status: entities.TaskStatus(prerequisite.Status),
			}
		}
		items = append(items, task)
	}
	return items, nil
}

func (r *Repository) CreateEscalation(ctx context.Context, escalation entities.Escalation) error {
	row := escalationModelFromEntity(escalation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("escalation %q already exists", escalation.EscalationID)
		}
		return domainerrors.Persistence("create escalation", err)
	}
	return nil
}

func (r *Repository) GetEscalation(ctx context.Context, escalationID string) (entities.Escalation, error) {
	return r.loadEscalation(r.db.WithContext(ctx), escalationID)
}

func (r *Repository) LockEscalation(ctx context.Context, escalationID string) (entities.Escalation, error) {
	return r.loadEscalation(r.locked(ctx), escalationID)
}

func (r *Repository) loadEscalation(query *gorm.DB, escalationID string) (entities.Escalation, error) {
	var row escalationModel
	err := query.
		Where("escalation_id = ?", strings.TrimSpace(escalationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Escalation{}, domainerrors.NotFound("escalation", escalationID)
		}
		return entities.Escalation{}, domainerrors.Persistence("get escalation", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateEscalation(ctx context.Context, escalation entities.Escalation) error {
	row := escalationModelFromEntity(escalation)
	result := r.db.WithContext(ctx).
		Model(&escalationModel{}).
		Where("escalation_id = ?", row.EscalationID).
		Updates(map[string]any{
			"status":      row.Status,
			"resolution":  row.Resolution,
			"updated_at":  row.UpdatedAt,
			"resolved_at": row.ResolvedAt,
		})
	if result.Error != nil {
		return domainerrors.Persistence("update escalation", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("escalation", escalation.EscalationID)
	}
	return nil
}

func (r *Repository) ListEscalations(ctx context.Context, filter ports.EscalationFilter) ([]entities.Escalation, error) {
	query := r.db.WithContext(ctx).Model(&escalationModel{})
	switch filter.Status {
	case "":
	case entities.EscalationStatusActive:
		query = query.Where("escalations.status IN ?", []string{
			string(entities.EscalationStatusOpen),
			string(entities.EscalationStatusAcknowledged),
		})
	default:
		query = query.Where("escalations.status = ?", string(filter.Status))
	}
	if filter.Severity != "" {
		query = query.Where("escalations.severity = ?", string(filter.Severity))
	}
	if filter.CampaignID != "" {
		query = query.Where("escalations.campaign_id = ?", filter.CampaignID)
	}

	var rows []escalationModel
	if err := query.
		Order(severityRankSQL + " DESC").
		Order("escalations.created_at DESC").
		Order("escalations.escalation_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, domainerrors.Persistence("list escalations", err)
	}
	items := make([]entities.Escalation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// AppendActivity inserts one audit row. It never skips a row: a failed
// insert fails the enclosing transaction.
func (r *Repository) AppendActivity(ctx context.Context, entry entities.ActivityEntry) error {
	row, err := activityModelFromEntity(entry)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("activity entry %q already exists", entry.EntryID)
		}
		return domainerrors.Persistence("append activity", err)
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, filter ports.ActivityFilter) ([]entities.ActivityEntry, error) {
	query := r.db.WithContext(ctx).Model(&activityModel{})
	if filter.BusinessID != "" {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.CampaignID != "" {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []activityModel
	if err := query.Order("created_at DESC").Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, domainerrors.Persistence("list activity", err)
	}
	items := make([]entities.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntity()
		if err != nil {
			return nil, domainerrors.Persistence("decode activity details", err)
		}
		items = append(items, entry)
	}
	return items, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, domainerrors.Persistence("get idempotency record", err)
	}

	if !row.ExpiresAt.After(now.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("idempotency_key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, domainerrors.Persistence("evict idempotency record", err)
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

// PutRecord inserts without upsert, so of two transactions racing on one key
// the second fails with a conflict and rolls back its mutation.
func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.Conflict("idempotency key %q is already recorded", row.Key)
		}
		return domainerrors.Persistence("put idempotency record", err)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error; err != nil {
		return domainerrors.Persistence("append outbox", err)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = outbox.DefaultBatchSize
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, domainerrors.Persistence("list pending outbox", err)
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return domainerrors.Persistence("mark outbox published", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("outbox message", outboxID)
	}
	return nil
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

// isUniqueViolation recognizes both the raw postgres error and gorm's
// translated form (TranslateError) used with sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
