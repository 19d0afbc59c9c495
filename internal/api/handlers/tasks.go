package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/api/validation"
	"github.com/kwhite/taskboard/internal/authz"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

// CreateTaskRequest represents the request to create a task
type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status,omitempty"`
	DueDate        string `json:"due_date,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

func (r CreateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Status != "" && !models.TaskStatus(r.Status).Valid() {
		errors["status"] = "Invalid status"
	}
	if r.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, r.DueDate); err != nil {
			errors["due_date"] = "Due date must be RFC3339"
		}
	}
	if r.UserID != "" && !validation.IsValidUUID(r.UserID) {
		errors["user_id"] = "Invalid user ID format"
	}
	if r.OrganizationID != "" && !validation.IsValidUUID(r.OrganizationID) {
		errors["organization_id"] = "Invalid organization ID format"
	}
	return errors
}

// UpdateTaskRequest merges only the fields present over the stored record.
type UpdateTaskRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Status         *string `json:"status,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	UserID         *string `json:"user_id,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

func (r UpdateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title != nil && *r.Title == "" {
		errors["title"] = "Title cannot be empty"
	}
	if r.Status != nil && !models.TaskStatus(*r.Status).Valid() {
		errors["status"] = "Invalid status"
	}
	if r.DueDate != nil && *r.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, *r.DueDate); err != nil {
			errors["due_date"] = "Due date must be RFC3339"
		}
	}
	if r.UserID != nil && !validation.IsValidUUID(*r.UserID) {
		errors["user_id"] = "Invalid user ID format"
	}
	if r.OrganizationID != nil && !validation.IsValidUUID(*r.OrganizationID) {
		errors["organization_id"] = "Invalid organization ID format"
	}
	return errors
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	DueDate        string `json:"due_date,omitempty"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func taskToResponse(task *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:             task.ID.String(),
		Title:          task.Title,
		Description:    task.Description,
		Status:         string(task.Status),
		UserID:         task.UserID.String(),
		OrganizationID: task.OrganizationID.String(),
		CreatedAt:      task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      task.UpdatedAt.Format(time.RFC3339),
	}
	if task.DueDate != nil {
		resp.DueDate = task.DueDate.Format(time.RFC3339)
	}
	return resp
}

// List handles GET /api/v1/tasks. An anonymous or unprivileged caller gets an
// empty list, never an error.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	dec, err := authz.Decide(identity, authz.ActionListTasks, nil)
	if err != nil {
		writeDenial(w, err)
		return
	}

	query := h.db.Order("created_at")
	switch dec.Scope {
	case authz.ScopeAll:
	case authz.ScopeOrganization:
		query = query.Where("organization_id = ?", identity.OrganizationID)
	case authz.ScopeOwn:
		query = query.Where("user_id = ?", identity.UserID)
	case authz.ScopeNone:
		writeJSON(w, http.StatusOK, []TaskResponse{})
		return
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = taskToResponse(&task)
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		writeDenial(w, authz.ErrUnauthenticated)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	// A user-role caller always owns the task; any supplied user_id is ignored.
	var ownerID uuid.UUID
	if identity.Role == authz.RoleUser {
		ownerID = identity.UserID
	} else {
		if req.UserID == "" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "Validation failed", Details: map[string]string{"user_id": "User ID is required"},
			})
			return
		}
		ownerID = uuid.MustParse(req.UserID)
	}

	var owner models.User
	ownerFound := h.db.First(&owner, "id = ?", ownerID).Error == nil

	target := &authz.Target{OwnerID: ownerID}
	if ownerFound {
		target.OwnerOrganizationID = owner.OrganizationID
	}
	if _, err := authz.Decide(identity, authz.ActionCreateTask, target); err != nil {
		writeDenial(w, err)
		return
	}

	// A supplied organization_id is taken as-is and not cross-checked against
	// the owner's organization. When absent it is filled from the owner.
	var orgID uuid.UUID
	if req.OrganizationID != "" {
		orgID = uuid.MustParse(req.OrganizationID)
	} else {
		if !ownerFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		orgID = owner.OrganizationID
	}

	status := models.TaskStatusTodo
	if req.Status != "" {
		status = models.TaskStatus(req.Status)
	}

	task := models.Task{
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		UserID:         ownerID,
		OrganizationID: orgID,
	}
	if req.DueDate != "" {
		due, _ := time.Parse(time.RFC3339, req.DueDate)
		task.DueDate = &due
	}

	if err := h.db.Create(&task).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, taskToResponse(&task))
}

// Update handles PUT /api/v1/tasks/:id
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		writeDenial(w, authz.ErrUnauthenticated)
		return
	}

	task, ok := h.loadAuthorizedTask(w, r, identity, authz.ActionUpdateTask)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	// Partial update: unspecified fields keep their stored values.
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			due, _ := time.Parse(time.RFC3339, *req.DueDate)
			task.DueDate = &due
		}
	}
	if req.UserID != nil {
		task.UserID = uuid.MustParse(*req.UserID)
	}
	if req.OrganizationID != nil {
		task.OrganizationID = uuid.MustParse(*req.OrganizationID)
	}

	if err := h.db.Save(task).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /api/v1/tasks/:id and returns the deleted record's
// prior state.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		writeDenial(w, authz.ErrUnauthenticated)
		return
	}

	task, ok := h.loadAuthorizedTask(w, r, identity, authz.ActionDeleteTask)
	if !ok {
		return
	}

	prior := *task
	if err := h.db.Delete(task).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete task"})
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(&prior))
}

// loadAuthorizedTask fetches the task from the URL and runs the scope check
// against its owner's organization membership. A cross-organization manager is
// told "Unauthorized", not "not found": the task's existence is already
// conceded by the 403.
func (h *TaskHandler) loadAuthorizedTask(w http.ResponseWriter, r *http.Request, identity *authz.Identity, action authz.Action) (*models.Task, bool) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return nil, false
	}

	var task models.Task
	if err := h.db.First(&task, "id = ?", taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch task"})
		return nil, false
	}

	// The scope check runs against the owner's actual organization, not the
	// task's organization column.
	target := &authz.Target{OwnerID: task.UserID}
	var owner models.User
	if err := h.db.First(&owner, "id = ?", task.UserID).Error; err == nil {
		target.OwnerOrganizationID = owner.OrganizationID
	}

	if _, err := authz.Decide(identity, action, target); err != nil {
		writeDenial(w, err)
		return nil, false
	}

	return &task, true
}
