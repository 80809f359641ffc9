package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// MaxTasks bounds the follow-up task list.
const MaxTasks = 20

type Task struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Completed   bool      `bson:"completed" json:"completed"`
	Priority    Priority  `bson:"priority" json:"priority"`
	CallID      string    `bson:"call_id,omitempty" json:"call_id,omitempty"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
