package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/api/validation"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/authz"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	Role             string `json:"role"`
	OrganizationID   string `json:"organization_id,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
}

func (r CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Username == "" {
		errors["username"] = "Username is required"
	} else if !validation.IsValidUsername(r.Username) {
		errors["username"] = "Invalid username format"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.IsValidPassword(r.Password); !ok {
		errors["password"] = msg
	}
	switch r.Role {
	case authz.RoleAdmin, authz.RoleManager, authz.RoleUser:
	case "":
		errors["role"] = "Role is required"
	default:
		errors["role"] = "Invalid role"
	}
	if r.OrganizationID != "" && !validation.IsValidUUID(r.OrganizationID) {
		errors["organization_id"] = "Invalid organization ID format"
	}
	return errors
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	dec, err := authz.Decide(identity, authz.ActionListUsers, nil)
	if err != nil {
		writeDenial(w, err)
		return
	}

	query := h.db.Order("created_at")
	if dec.Scope == authz.ScopeOrganization {
		query = query.Where("organization_id = ?", identity.OrganizationID)
	}

	// PasswordHash never serializes; the model hides it.
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch users"})
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/v1/users. Three rules, in order:
//
//   - admin role + organization_name: create a fresh organization and its
//     first user. Requires no caller at all; this is the tenant bootstrap
//     path, preserved as-is from the original system even though it lets
//     anyone mint a tenant. Flagged in DESIGN.md.
//   - manager role + organization_id: caller must be admin or manager; the
//     organization must already exist.
//   - user role: attach to the supplied organization, or to the caller's own
//     when a privileged caller supplies none.
//
// Anything else is denied.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	caller := middleware.IdentityFrom(r.Context())

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create user"})
		return
	}

	switch {
	case req.Role == authz.RoleAdmin && req.OrganizationName != "":
		h.createWithNewOrganization(w, req, hash)

	case req.Role == authz.RoleManager && req.OrganizationID != "" &&
		caller != nil && authz.CanManageUsers(caller.Role):
		h.createInOrganization(w, req, hash, uuid.MustParse(req.OrganizationID))

	case req.Role == authz.RoleUser &&
		(req.OrganizationID != "" || (caller != nil && authz.CanManageUsers(caller.Role))):
		var orgID uuid.UUID
		if req.OrganizationID != "" {
			orgID = uuid.MustParse(req.OrganizationID)
		} else {
			orgID = caller.OrganizationID
		}
		h.createInOrganization(w, req, hash, orgID)

	default:
		if caller == nil {
			writeDenial(w, authz.ErrUnauthenticated)
			return
		}
		writeDenial(w, authz.ErrUnauthorized)
	}
}

// createWithNewOrganization is the bootstrap path: organization and first
// admin are created in one transaction.
func (h *UserHandler) createWithNewOrganization(w http.ResponseWriter, req CreateUserRequest, hash string) {
	if h.usernameTaken(w, req.Username) {
		return
	}

	var existing models.Organization
	if err := h.db.Where("name = ?", req.OrganizationName).First(&existing).Error; err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Organization name already taken"})
		return
	}

	org := models.Organization{Name: req.OrganizationName}
	var user models.User

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		user = models.User{
			Username:       req.Username,
			PasswordHash:   hash,
			Role:           req.Role,
			OrganizationID: org.ID,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create user"})
		return
	}

	user.Organization = &org
	writeJSON(w, http.StatusCreated, user)
}

// usernameTaken writes a conflict response and reports true when the
// username already exists. It runs only after the caller has cleared the
// authorization rules, so it cannot be used for anonymous probing.
func (h *UserHandler) usernameTaken(w http.ResponseWriter, username string) bool {
	var existing models.User
	if err := h.db.Where("username = ?", username).First(&existing).Error; err == nil {
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Username already taken"})
		return true
	}
	return false
}

func (h *UserHandler) createInOrganization(w http.ResponseWriter, req CreateUserRequest, hash string, orgID uuid.UUID) {
	if h.usernameTaken(w, req.Username) {
		return
	}

	var org models.Organization
	if err := h.db.First(&org, "id = ?", orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create user"})
		return
	}

	user := models.User{
		Username:       req.Username,
		PasswordHash:   hash,
		Role:           req.Role,
		OrganizationID: org.ID,
	}
	if err := h.db.Create(&user).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create user"})
		return
	}

	writeJSON(w, http.StatusCreated, user)
}
