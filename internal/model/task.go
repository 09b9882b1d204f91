package model

import "time"

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidTaskStatus reports whether s is one of the known statuses.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskOpen, TaskAssigned, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority label.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// statusRank orders the forward progression of the task lifecycle.
// Cancelled and completed are terminal and have no forward successor.
var statusRank = map[TaskStatus]int{
	TaskOpen:       0,
	TaskAssigned:   1,
	TaskInProgress: 2,
	TaskCompleted:  3,
}

// CanTransition is the single source of truth for task status
// transitions. The lifecycle is forward-only:
//
//	open -> assigned -> in_progress -> completed
//
// with forward skips permitted (accepting an offer moves an open task
// straight to in_progress) and cancelled reachable from any
// non-terminal state. Terminal states (completed, cancelled) accept
// no further transitions. Admin override paths bypass this guard at
// the handler layer.
func CanTransition(from, to TaskStatus) bool {
	if !ValidTaskStatus(from) || !ValidTaskStatus(to) || from == to {
		return false
	}
	if from == TaskCompleted || from == TaskCancelled {
		return false
	}
	if to == TaskCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

// Task mirrors the `tasks` table. CategoryID and AssignedTaskerID are
// nullable foreign keys; AssignedTaskerID is only ever set through
// offer acceptance.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CategoryID       *string    `json:"categoryId"`
	ClientID         string     `json:"clientId"`
	AssignedTaskerID *string    `json:"assignedTaskerId"`
	Budget           float64    `json:"budget"`
	Currency         string     `json:"currency"`
	Location         string     `json:"location,omitempty"`
	Status           TaskStatus `json:"status"`
	Priority         string     `json:"priority"`
	DueDate          *time.Time `json:"dueDate"`
	CompletedAt      *time.Time `json:"completedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TaskDetail is a task enriched with its joined relations, the shape
// returned by task list and detail endpoints.
type TaskDetail struct {
	Task
	Category       *Category   `json:"category"`
	Client         *PublicUser `json:"client"`
	AssignedTasker *PublicUser `json:"assignedTasker"`
}

// TaskFilter is a sparse set of optional predicates applied to task
// listing queries. Zero values mean "no constraint".
type TaskFilter struct {
	Status       TaskStatus
	CategoryID   string
	CategoryName string
	Location     string // substring match, case-insensitive
	ClientID     string
	TaskerID     string
}
