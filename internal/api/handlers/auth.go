package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/auth"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})

	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			// Identical for unknown username and wrong password.
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid login credentials"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	user := dto.UserDTO{
		ID:             resp.User.ID.String(),
		Username:       resp.User.Username,
		Role:           resp.User.Role,
		OrganizationID: resp.User.OrganizationID.String(),
	}
	if resp.User.Organization != nil {
		user.OrgName = resp.User.Organization.Name
	}

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Logout failed"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}
