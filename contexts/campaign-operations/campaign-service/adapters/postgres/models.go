package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every campaign-service table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&businessModel{},
		&playbookModel{},
		&campaignModel{},
		&contentModel{},
		&taskModel{},
		&escalationModel{},
		&activityModel{},
		&outboxModel{},
		&idempotencyModel{},
	)
}

type businessModel struct {
	BusinessID  string         `gorm:"column:business_id;primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Slug        string         `gorm:"column:slug;uniqueIndex;not null"`
	Description string         `gorm:"column:description"`
	Website     string         `gorm:"column:website"`
	BrandColors datatypes.JSON `gorm:"column:brand_colors"`
	Settings    datatypes.JSON `gorm:"column:settings"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (businessModel) TableName() string {
	return "businesses"
}

func businessModelFromEntity(item entities.Business) (businessModel, error) {
	colors := item.BrandColors
	if colors == nil {
		colors = []string{}
	}
	brandColors, err := json.Marshal(colors)
	if err != nil {
		return businessModel{}, err
	}
	settingsMap := item.Settings
	if settingsMap == nil {
		settingsMap = map[string]any{}
	}
	settings, err := json.Marshal(settingsMap)
	if err != nil {
		return businessModel{}, err
	}
	return businessModel{
		BusinessID:  strings.TrimSpace(item.BusinessID),
		Name:        item.Name,
		Slug:        item.Slug,
		Description: item.Description,
		Website:     item.Website,
		BrandColors: datatypes.JSON(brandColors),
		Settings:    datatypes.JSON(settings),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}, nil
}

func (m businessModel) toEntity() entities.Business {
	business := entities.Business{
		BusinessID:  m.BusinessID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Website:     m.Website,
		BrandColors: []string{},
		Settings:    map[string]any{},
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if len(m.BrandColors) > 0 {
		_ = json.Unmarshal(m.BrandColors, &business.BrandColors)
	}
	if len(m.Settings) > 0 {
		_ = json.Unmarshal(m.Settings, &business.Settings)
	}
	return business
}

type playbookModel struct {
	PlaybookID  string    `gorm:"column:playbook_id;primaryKey"`
	BusinessID  string    `gorm:"column:business_id;index;not null"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (playbookModel) TableName() string {
	return "playbooks"
}

func (m playbookModel) toEntity() entities.Playbook {
	return entities.Playbook{
		PlaybookID:  m.PlaybookID,
		BusinessID:  m.BusinessID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type campaignModel struct {
	CampaignID  string     `gorm:"column:campaign_id;primaryKey"`
	PlaybookID  string     `gorm:"column:playbook_id;index;not null"`
	Name        string     `gorm:"column:name"`
	Status      string     `gorm:"column:status;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	LaunchedAt  *time.Time `gorm:"column:launched_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func campaignModelFromEntity(item entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:  strings.TrimSpace(item.CampaignID),
		PlaybookID:  strings.TrimSpace(item.PlaybookID),
		Name:        strings.TrimSpace(item.Name),
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
		LaunchedAt:  normalizeOptionalTime(item.LaunchedAt),
		CompletedAt: normalizeOptionalTime(item.CompletedAt),
	}
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:  m.CampaignID,
		PlaybookID:  m.PlaybookID,
		Name:        m.Name,
		Status:      entities.CampaignStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		LaunchedAt:  normalizeOptionalTime(m.LaunchedAt),
		CompletedAt: normalizeOptionalTime(m.CompletedAt),
	}
}

type contentModel struct {
	ContentID  string    `gorm:"column:content_id;primaryKey"`
	CampaignID string    `gorm:"column:campaign_id;index;not null"`
	Kind       string    `gorm:"column:kind"`
	Body       string    `gorm:"column:body"`
	MediaURL   string    `gorm:"column:media_url"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (contentModel) TableName() string {
	return "campaign_content"
}

type taskModel struct {
	TaskID          string     `gorm:"column:task_id;primaryKey"`
	CampaignID      string     `gorm:"column:campaign_id;index;not null"`
	Title           string     `gorm:"column:title;not null"`
	Description     string     `gorm:"column:description"`
	Instructions    string     `gorm:"column:instructions"`
	TaskType        string     `gorm:"column:task_type"`
	Assignee        string     `gorm:"column:assignee;index"`
	Status          string     `gorm:"column:status;index"`
	Priority        int        `gorm:"column:priority"`
	DueDate         *time.Time `gorm:"column:due_date"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CompletionNotes string     `gorm:"column:completion_notes"`
	DependsOn       string     `gorm:"column:depends_on;index"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (taskModel) TableName() string {
	return "tasks"
}

func taskModelFromEntity(item entities.Task) taskModel {
	return taskModel{
		TaskID:          strings.TrimSpace(item.TaskID),
		CampaignID:      strings.TrimSpace(item.CampaignID),
		Title:           item.Title,
		Description:     item.Description,
		Instructions:    item.Instructions,
		TaskType:        item.Type,
		Assignee:        string(item.Assignee),
		Status:          string(item.Status),
		Priority:        item.Priority,
		DueDate:         normalizeOptionalTime(item.DueDate),
		CompletedAt:     normalizeOptionalTime(item.CompletedAt),
		CompletionNotes: item.CompletionNotes,
		DependsOn:       strings.TrimSpace(item.DependsOn),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m taskModel) toEntity() entities.Task {
	return entities.Task{
		TaskID:          m.TaskID,
		CampaignID:      m.CampaignID,
		Title:           m.Title,
		Description:     m.Description,
		Instructions:    m.Instructions,
		Type:            m.TaskType,
		Assignee:        entities.Assignee(m.Assignee),
		Status:          entities.TaskStatus(m.Status),
		Priority:        m.Priority,
		DueDate:         normalizeOptionalTime(m.DueDate),
		CompletedAt:     normalizeOptionalTime(m.CompletedAt),
		CompletionNotes: m.CompletionNotes,
		DependsOn:       m.DependsOn,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type escalationModel struct {
	EscalationID string     `gorm:"column:escalation_id;primaryKey"`
	CampaignID   string     `gorm:"column:campaign_id;index;not null"`
	Title        string     `gorm:"column:title"`
	Description  string     `gorm:"column:description"`
	Status       string     `gorm:"column:status;index"`
	Severity     string     `gorm:"column:severity"`
	Resolution   string     `gorm:"column:resolution"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at"`
}

func (escalationModel) TableName() string {
	return "escalations"
}

func escalationModelFromEntity(item entities.Escalation) escalationModel {
	return escalationModel{
		EscalationID: strings.TrimSpace(item.EscalationID),
		CampaignID:   strings.TrimSpace(item.CampaignID),
		Title:        item.Title,
		Description:  item.Description,
		Status:       string(item.Status),
		Severity:     string(item.Severity),
		Resolution:   item.Resolution,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
		ResolvedAt:   normalizeOptionalTime(item.ResolvedAt),
	}
}

func (m escalationModel) toEntity() entities.Escalation {
	return entities.Escalation{
		EscalationID: m.EscalationID,
		CampaignID:   m.CampaignID,
		Title:        m.Title,
		Description:  m.Description,
		Status:       entities.EscalationStatus(m.Status),
		Severity:     entities.Severity(m.Severity),
		Resolution:   m.Resolution,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		ResolvedAt:   normalizeOptionalTime(m.ResolvedAt),
	}
}

// activityModel rows are insert-only. Seq breaks ties between entries
// written within the same timestamp.
type activityModel struct {
	Seq        uint64         `gorm:"column:seq;primaryKey;autoIncrement"`
	EntryID    string         `gorm:"column:entry_id;uniqueIndex;not null"`
	BusinessID string         `gorm:"column:business_id;index;not null"`
	CampaignID string         `gorm:"column:campaign_id;index"`
	Actor      string         `gorm:"column:actor"`
	Action     string         `gorm:"column:action"`
	EntityType string         `gorm:"column:entity_type"`
	EntityID   string         `gorm:"column:entity_id;index"`
	Details    datatypes.JSON `gorm:"column:details"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (activityModel) TableName() string {
	return "activity_log"
}

func activityModelFromEntity(item entities.ActivityEntry) (activityModel, error) {
	details := item.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return activityModel{}, err
	}
	row := activityModel{
		EntryID:    item.EntryID,
		BusinessID: item.BusinessID,
		CampaignID: item.CampaignID,
		Actor:      string(item.Actor),
		Action:     item.Action,
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Details:    datatypes.JSON(raw),
		CreatedAt:  item.CreatedAt.UTC(),
	}
	return row, nil
}

func (m activityModel) toEntity() (entities.ActivityEntry, error) {
	entry := entities.ActivityEntry{
		EntryID:    m.EntryID,
		BusinessID: m.BusinessID,
		CampaignID: m.CampaignID,
		Actor:      entities.Actor(m.Actor),
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    map[string]any{},
		CreatedAt:  m.CreatedAt.UTC(),
	}
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &entry.Details); err != nil {
			return entities.ActivityEntry{}, err
		}
	}
	return entry, nil
}

type outboxModel struct {
	OutboxID     string         `gorm:"column:outbox_id;primaryKey"`
	EventType    string         `gorm:"column:event_type"`
	PartitionKey string         `gorm:"column:partition_key"`
	Payload      datatypes.JSON `gorm:"column:payload"`
	Status       string         `gorm:"column:status;index"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	PublishedAt  *time.Time     `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "campaign_outbox"
}

type idempotencyModel struct {
	Key             string         `gorm:"column:idempotency_key;primaryKey"`
	RequestHash     string         `gorm:"column:request_hash;not null"`
	ResponsePayload datatypes.JSON `gorm:"column:response_payload"`
	ExpiresAt       time.Time      `gorm:"column:expires_at;index"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
}

func (idempotencyModel) TableName() string {
	return "campaign_idempotency"
}
