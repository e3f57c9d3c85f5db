package ports

import (
	"context"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/domain/entities"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/shared/events"
)

type TaskFilter struct {
	CampaignID string
	BusinessID string
	Assignee   entities.Assignee
	Status     entities.TaskStatus
	// Incomplete selects every status except completed; Status wins when both are set.
	Incomplete bool
	DependsOn  string
}

type EscalationFilter struct {
	// Status accepts the compound value entities.EscalationStatusActive.
	Status     entities.EscalationStatus
	Severity   entities.Severity
	CampaignID string
}

type ActivityFilter struct {
	BusinessID string
	CampaignID string
	EntityType string
	EntityID   string
	Limit      int
}

type BusinessRepository interface {
	CreateBusiness(ctx context.Context, business entities.Business) error
	GetBusiness(ctx context.Context, businessID string) (entities.Business, error)
	GetBusinessBySlug(ctx context.Context, slug string) (entities.Business, bool, error)
	CreatePlaybook(ctx context.Context, playbook entities.Playbook) error
	GetPlaybook(ctx context.Context, playbookID string) (entities.Playbook, error)
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) error
	// GetCampaign resolves BusinessID through the playbook and fills ContentCount.
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	// LockCampaign is GetCampaign plus a row lock held until the enclosing
	// transaction ends.
	LockCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, campaign entities.Campaign) error
	AddContent(ctx context.Context, content entities.Content) error
	CountContent(ctx context.Context, campaignID string) (int, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task entities.Task) error
	// GetTask returns the task with Prerequisite resolved.
	GetTask(ctx context.Context, taskID string) (entities.Task, error)
	LockTask(ctx context.Context, taskID string) (entities.Task, error)
	UpdateTask(ctx context.Context, task entities.Task) error
	CountTasks(ctx context.Context, filter TaskFilter) (int, error)
	// ListTasks orders by status rank asc, priority desc, created_at asc.
	ListTasks(ctx context.Context, filter TaskFilter) ([]entities.Task, error)
}

type EscalationRepository interface {
	CreateEscalation(ctx context.Context, escalation entities.Escalation) error
	GetEscalation(ctx context.Context, escalationID string) (entities.Escalation, error)
	LockEscalation(ctx context.Context, escalationID string) (entities.Escalation, error)
	UpdateEscalation(ctx context.Context, escalation entities.Escalation) error
	// ListEscalations orders by severity desc, created_at desc.
	ListEscalations(ctx context.Context, filter EscalationFilter) ([]entities.Escalation, error)
}

type ActivityLog interface {
	// AppendActivity must fail loudly; the caller's transaction rolls back
	// with it.
	AppendActivity(ctx context.Context, entry entities.ActivityEntry) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]entities.ActivityEntry, error)
}

// IdempotencyRecord stores the response of one keyed write so a retry with
// the same request replays it instead of mutating again.
type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	// GetRecord treats a record expired at now as absent.
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	// PutRecord fails with a conflict when key is already recorded.
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Repository is the transactional view handed to a unit of work.
type Repository interface {
	BusinessRepository
	CampaignRepository
	TaskRepository
	EscalationRepository
	ActivityLog
	IdempotencyStore
	OutboxWriter
}

// UnitOfWork runs fn atomically: every write made through repo commits
// together or not at all.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventCounter receives one tick per consumed lifecycle event.
type EventCounter interface {
	CountEvent(eventType string)
}
