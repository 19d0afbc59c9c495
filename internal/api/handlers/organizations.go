package handlers

import (
	"net/http"

	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/authz"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	db *gorm.DB
}

func NewOrganizationHandler(db *gorm.DB) *OrganizationHandler {
	return &OrganizationHandler{db: db}
}

// List handles GET /api/v1/organizations
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	if _, err := authz.Decide(identity, authz.ActionListOrganizations, nil); err != nil {
		writeDenial(w, err)
		return
	}

	var orgs []models.Organization
	if err := h.db.Order("created_at").Find(&orgs).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch organizations"})
		return
	}

	writeJSON(w, http.StatusOK, orgs)
}
