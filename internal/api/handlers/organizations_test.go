package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kwhite/taskboard/internal/api/handlers"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/database/models"
	"github.com/kwhite/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrgTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewOrganizationHandler(tc.DB)

	r := chi.NewRouter()
	r.Use(middleware.Identity(authService))
	r.Get("/api/v1/organizations", handler.List)

	return r, tc
}

func TestOrganizationHandler_List(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	t.Run("admin sees every organization", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token(tc.Admin))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var orgs []models.Organization
		testutil.ParseJSONResponse(t, rr, &orgs)
		assert.Len(t, orgs, 2)
	})

	t.Run("manager denied", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token(tc.Manager))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("user denied", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token(tc.Member))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("anonymous denied", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/organizations", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
