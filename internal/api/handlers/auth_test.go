package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/api/handlers"
	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Use(middleware.Identity(authService))
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)

	return r, tc
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("valid credentials", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
			"username": tc.Member.Username,
			"password": "testpassword123",
		})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, tc.Member.Username, resp.User.Username)
		assert.Equal(t, tc.Member.OrganizationID.String(), resp.User.OrganizationID)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("failure bodies are byte-identical", func(t *testing.T) {
		wrongPassword := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
			"username": tc.Member.Username,
			"password": "wrong-password",
		})
		rrWrong := httptest.NewRecorder()
		router.ServeHTTP(rrWrong, wrongPassword)

		noSuchUser := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
			"username": "does-not-exist",
			"password": "irrelevant123",
		})
		rrMissing := httptest.NewRecorder()
		router.ServeHTTP(rrMissing, noSuchUser)

		assert.Equal(t, http.StatusUnauthorized, rrWrong.Code)
		assert.Equal(t, http.StatusUnauthorized, rrMissing.Code)
		assert.Equal(t, rrWrong.Body.String(), rrMissing.Body.String())
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	token := tc.Token(tc.Member)

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// The revoked token no longer passes the gate.
	req = testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_Logout_WithoutToken(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
