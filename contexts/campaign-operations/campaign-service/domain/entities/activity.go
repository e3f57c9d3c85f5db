package entities

import "time"

type Actor string

const (
	ActorHuman  Actor = "human"
	ActorSystem Actor = "system"
)

const (
	EntityTypeBusiness   = "business"
	EntityTypePlaybook   = "playbook"
	EntityTypeCampaign   = "campaign"
	EntityTypeContent    = "content"
	EntityTypeTask       = "task"
	EntityTypeEscalation = "escalation"
)

const (
	ActionBusinessCreated        = "business_created"
	ActionPlaybookCreated        = "playbook_created"
	ActionCampaignCreated        = "campaign_created"
	ActionCampaignApproved       = "campaign_approved"
	ActionCampaignLaunched       = "campaign_launched"
	ActionCampaignPaused         = "campaign_paused"
	ActionCampaignResumed        = "campaign_resumed"
	ActionCampaignCompleted      = "campaign_completed"
	ActionCampaignReset          = "campaign_reset"
	ActionContentAdded           = "content_added"
	ActionTaskCreated            = "task_created"
	ActionTaskCompleted          = "task_completed"
	ActionTaskUpdated            = "task_updated"
	ActionEscalationCreated      = "escalation_created"
	ActionEscalationAcknowledged = "escalation_acknowledged"
	ActionEscalationResolved     = "escalation_resolved"
)

// ActivityEntry is an immutable audit record. It is appended in the same
// transaction as the mutation it describes and never updated afterwards.
type ActivityEntry struct {
	EntryID    string
	BusinessID string
	CampaignID string
	Actor      Actor
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

func (e ActivityEntry) HasReferences() bool {
	return e.BusinessID != "" && e.Action != "" && e.EntityType != "" && e.EntityID != ""
}
