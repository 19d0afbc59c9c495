package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/gorm"
)

const defaultWindowHours = 24

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	client *asynq.Client
}

func NewHandler(db *gorm.DB, logger *slog.Logger, client *asynq.Client) *Handler {
	return &Handler{db: db, logger: logger, client: client}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDueSweep, h.HandleDueSweep)
	mux.HandleFunc(TypeTaskDueSoon, h.HandleTaskDueSoon)
}

// HandleDueSweep fans out one reminder task per open task whose due date
// falls inside the window.
func (h *Handler) HandleDueSweep(ctx context.Context, t *asynq.Task) error {
	var payload DueSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = defaultWindowHours
	}

	now := time.Now()
	until := now.Add(time.Duration(payload.WindowHours) * time.Hour)

	var tasks []models.Task
	err := h.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date > ? AND due_date <= ? AND status <> ?",
			now, until, models.TaskStatusDone).
		Find(&tasks).Error
	if err != nil {
		return fmt.Errorf("querying due tasks: %w", err)
	}

	h.logger.Info("due sweep",
		"window_hours", payload.WindowHours,
		"tasks_due", len(tasks),
	)

	for _, task := range tasks {
		reminder, err := NewTaskDueSoonTask(TaskDueSoonPayload{
			TaskID:         task.ID,
			UserID:         task.UserID,
			OrganizationID: task.OrganizationID,
			Title:          task.Title,
			DueAt:          task.DueDate.Unix(),
		})
		if err != nil {
			return err
		}
		if _, err := h.client.EnqueueContext(ctx, reminder, asynq.Queue("low")); err != nil {
			h.logger.Error("enqueue reminder failed", "task_id", task.ID, "error", err)
		}
	}

	return nil
}

// HandleTaskDueSoon delivers one reminder. Delivery is a log line for now;
// TODO: route through an email sender once the notification channel exists.
func (h *Handler) HandleTaskDueSoon(ctx context.Context, t *asynq.Task) error {
	var payload TaskDueSoonPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// The task may have been completed or deleted since the sweep ran.
	var task models.Task
	if err := h.db.WithContext(ctx).First(&task, "id = ?", payload.TaskID).Error; err != nil {
		h.logger.Debug("reminder skipped, task gone", "task_id", payload.TaskID)
		return nil
	}
	if task.Status == models.TaskStatusDone {
		return nil
	}

	h.logger.Info("task due soon",
		"task_id", payload.TaskID,
		"user_id", payload.UserID,
		"org_id", payload.OrganizationID,
		"title", payload.Title,
		"due_at", time.Unix(payload.DueAt, 0).Format(time.RFC3339),
	)

	return nil
}
