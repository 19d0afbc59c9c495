package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kwhite/taskboard/internal/api/middleware"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_ValidToken(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	authService := auth.NewService(tc.DB, tc.JWTService)

	handler := middleware.Identity(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFrom(r.Context())
		require.NotNil(t, identity)
		assert.Equal(t, tc.Member.ID, identity.UserID)
		assert.Equal(t, tc.Member.Role, identity.Role)
		assert.Equal(t, tc.Member.OrganizationID, identity.OrganizationID)
		assert.Equal(t, tc.Token(tc.Member), middleware.TokenFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/tasks", nil, tc.Token(tc.Member))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentity_NoBearerPassesThroughAnonymous(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	authService := auth.NewService(tc.DB, tc.JWTService)

	handler := middleware.Identity(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, middleware.IdentityFrom(r.Context()))
		assert.Empty(t, middleware.TokenFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentity_InvalidBearerRejectedBeforeHandler(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	authService := auth.NewService(tc.DB, tc.JWTService)

	handlerRan := false
	handler := middleware.Identity(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	for name, token := range map[string]string{
		"garbage":       "not-a-jwt",
		"wrong secret":  mustToken(t, auth.NewJWTService("some-other-secret", 24*time.Hour), tc),
		"no session":    mustToken(t, tc.JWTService, tc),
		"revoked token": revokedToken(t, tc),
	} {
		t.Run(name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/tasks", nil, token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, handlerRan)
			// Uniform body regardless of which check failed.
			assert.JSONEq(t, `{"error":"Not authorized to access this resource"}`, rec.Body.String())
		})
	}
}

func mustToken(t *testing.T, svc *auth.JWTService, tc *testutil.TestSetup) string {
	t.Helper()
	token, err := svc.GenerateToken(tc.Member.ID)
	require.NoError(t, err)
	return token
}

func revokedToken(t *testing.T, tc *testutil.TestSetup) string {
	t.Helper()
	authService := auth.NewService(tc.DB, tc.JWTService)
	token := testutil.IssueTestToken(t, tc.DB, tc.JWTService, tc.Member)
	require.NoError(t, authService.Logout(testutil.TestContext(t), token))
	return token
}
