package entities

import "time"

type TaskStatus string
type Assignee string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"

	AssigneeHuman  Assignee = "human"
	AssigneeSystem Assignee = "system"
)

type Task struct {
	TaskID          string
	CampaignID      string
	Title           string
	Description     string
	Instructions    string
	Type            string
	Assignee        Assignee
	Status          TaskStatus
	Priority        int
	DueDate         *time.Time
	CompletedAt     *time.Time
	CompletionNotes string
	DependsOn       string
	// Prerequisite is the resolved DependsOn task, nil when DependsOn is empty.
	Prerequisite *TaskRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskRef is the slice of a prerequisite task the completion gate needs.
type TaskRef struct {
	TaskID string
	Title  string
	Status TaskStatus
}

func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// BlockedBy returns the prerequisite that keeps t from completing, if any.
// A DependsOn that did not resolve blocks, named by its id.
func (t Task) BlockedBy() (TaskRef, bool) {
	if t.DependsOn == "" {
		return TaskRef{}, false
	}
	if t.Prerequisite == nil {
		return TaskRef{TaskID: t.DependsOn, Title: t.DependsOn}, true
	}
	if t.Prerequisite.Status == TaskStatusCompleted {
		return TaskRef{}, false
	}
	return *t.Prerequisite, true
}

// TaskStatusRank is the declaration order of task statuses used as the
// primary ascending sort key when listing tasks.
func TaskStatusRank(status TaskStatus) int {
	switch status {
	case TaskStatusPending:
		return 0
	case TaskStatusInProgress:
		return 1
	case TaskStatusCompleted:
		return 2
	case TaskStatusBlocked:
		return 3
	default:
		return 4
	}
}

// TaskListLess orders by status rank ascending, priority descending, then
// creation time ascending.
func TaskListLess(a Task, b Task) bool {
	if ra, rb := TaskStatusRank(a.Status), TaskStatusRank(b.Status); ra != rb {
		return ra < rb
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.TaskID < b.TaskID
}

func IsSupportedTaskStatus(value TaskStatus) bool {
	return TaskStatusRank(value) < 4
}

func IsSupportedAssignee(value Assignee) bool {
	return value == AssigneeHuman || value == AssigneeSystem
}

// ActorFor maps a task assignee onto the activity log actor.
func ActorFor(assignee Assignee) Actor {
	if assignee == AssigneeSystem {
		return ActorSystem
	}
	return ActorHuman
}
