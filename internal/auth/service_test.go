package auth_test

import (
	"testing"

	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/database/models"
	"github.com/kwhite/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthService(t *testing.T) (*auth.Service, *models.User, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	svc := auth.NewService(tc.DB, tc.JWTService)
	return svc, tc.Member, tc
}

func TestService_Login(t *testing.T) {
	svc, user, tc := setupAuthService(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)

	resp, err := svc.Login(ctx, auth.LoginInput{
		Username: user.Username,
		Password: "testpassword123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	// The minted token authenticates.
	got, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, user, tc := setupAuthService(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)

	_, wrongPassword := svc.Login(ctx, auth.LoginInput{
		Username: user.Username,
		Password: "not-the-password",
	})
	_, noSuchUser := svc.Login(ctx, auth.LoginInput{
		Username: "nobody-here",
		Password: "whatever12345",
	})

	require.Error(t, wrongPassword)
	require.Error(t, noSuchUser)
	assert.ErrorIs(t, wrongPassword, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, noSuchUser, auth.ErrInvalidCredentials)
	// Byte-identical messages: no username enumeration.
	assert.Equal(t, wrongPassword.Error(), noSuchUser.Error())
}

func TestService_Login_SessionsAccumulate(t *testing.T) {
	svc, user, tc := setupAuthService(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)

	first, err := svc.Login(ctx, auth.LoginInput{Username: user.Username, Password: "testpassword123"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, auth.LoginInput{Username: user.Username, Password: "testpassword123"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	// Both sessions authenticate independently.
	_, err = svc.Authenticate(ctx, first.Token)
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestService_Authenticate_RejectsUnknownToken(t *testing.T) {
	svc, user, tc := setupAuthService(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)

	// A validly signed token with no session row must not authenticate.
	orphan, err := tc.JWTService.GenerateToken(user.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestService_Logout_RevokesOnlyPresentedToken(t *testing.T) {
	svc, user, tc := setupAuthService(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)

	first, err := svc.Login(ctx, auth.LoginInput{Username: user.Username, Password: "testpassword123"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, auth.LoginInput{Username: user.Username, Password: "testpassword123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.Token))

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}
