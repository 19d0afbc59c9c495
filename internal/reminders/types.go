package reminders

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeDueSweep    = "reminder:due_sweep"
	TypeTaskDueSoon = "reminder:task_due_soon"
)

// DueSweepPayload configures one pass over upcoming due dates.
type DueSweepPayload struct {
	WindowHours int `json:"window_hours"`
}

func NewDueSweepTask(payload DueSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDueSweep, data), nil
}

// TaskDueSoonPayload carries one task approaching its due date.
type TaskDueSoonPayload struct {
	TaskID         uuid.UUID `json:"task_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Title          string    `json:"title"`
	DueAt          int64     `json:"due_at"`
}

func NewTaskDueSoonTask(payload TaskDueSoonPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTaskDueSoon, data), nil
}
