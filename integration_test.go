package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	auth "github.com/welearn/go-auth"
	"github.com/welearn/go-auth/federation"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string         { return "integration-signing-key" }
func (testConfig) GetSigningMethod() string      { return "HS256" }
func (testConfig) GetTokenExpiration() int       { return 24 }
func (testConfig) GetExtendedTokenDuration() int { return 24 * 30 }
func (testConfig) GetIssuer() string             { return "welearn" }
func (testConfig) GetAudience() []string         { return []string{"welearn:api"} }

func setupAuthStack(t *testing.T) (*auth.Auther, *auth.RegisterAccountHandler, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	repo := auth.NewRepositoryManager(bunDB)
	repo.MustValidate()

	provider := auth.NewAccountProvider(repo.Accounts())
	authenticator := auth.NewAuthenticator(provider, testConfig{})
	handler := auth.NewRegisterAccountHandler(repo)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return authenticator, handler, cleanup
}

func TestRegisterThenLogin(t *testing.T) {
	authenticator, handler, cleanup := setupAuthStack(t)
	defer cleanup()

	ctx := context.Background()

	account, err := handler.Execute(ctx, auth.RegisterAccountMessage{
		FullName: "Alice Example",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     auth.RoleStudent,
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	t.Run("Correct password mints a session token", func(t *testing.T) {
		token, err := authenticator.Login(ctx, "alice", "password123", false)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		session, err := authenticator.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, account.ID.String(), session.GetUserID())
		assert.True(t, session.HasRole(auth.RoleStudent))

		identity, err := authenticator.IdentityFromSession(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Username())
	})

	t.Run("Wrong password and unknown username fail alike", func(t *testing.T) {
		_, errWrongPassword := authenticator.Login(ctx, "alice", "not-the-password", false)
		require.Error(t, errWrongPassword)

		_, errUnknownUser := authenticator.Login(ctx, "mallory", "password123", false)
		require.Error(t, errUnknownUser)

		assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
	})

	t.Run("Duplicate registration is rejected", func(t *testing.T) {
		_, err := handler.Execute(ctx, auth.RegisterAccountMessage{
			FullName: "Another Alice",
			Username: "alice",
			Email:    "alice2@example.com",
			Role:     auth.RoleStudent,
			Password: "password456",
		})
		require.Error(t, err)

		_, err = handler.Execute(ctx, auth.RegisterAccountMessage{
			FullName: "Another Alice",
			Username: "alice2",
			Email:    "alice@example.com",
			Role:     auth.RoleStudent,
			Password: "password456",
		})
		require.Error(t, err)
	})
}

func TestFederatedLoginLifecycle(t *testing.T) {
	authenticator, handler, cleanup := setupAuthStack(t)
	defer cleanup()

	ctx := context.Background()

	profile := &federation.Profile{
		ProviderUserID: "google-uid-42",
		Provider:       "google",
		Email:          "grace@example.com",
		EmailVerified:  true,
		Name:           "Grace Example",
		Picture:        "https://example.com/grace.png",
	}

	fed := new(MockFederationProvider)
	fed.ProviderName = "google"
	fed.On("VerifyIDToken", ctx, mock.Anything).Return(profile, nil)

	// first attempt: no local account yet, and none is auto provisioned
	_, err := authenticator.LoginWithIDToken(ctx, fed, "raw-id-token", false)
	require.Error(t, err)
	assert.Equal(t, auth.ErrIdentityNotFound, err)

	// seed the account from the verified profile, then retry
	account, err := handler.ExecuteFederated(ctx, auth.RegisterFederatedAccountMessage{
		Profile: profile,
		Role:    auth.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", account.Username)
	assert.Equal(t, "grace@example.com", account.Email)

	token, err := authenticator.LoginWithIDToken(ctx, fed, "raw-id-token", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), session.GetUserID())

	// the seeded account has no usable local password
	_, err = authenticator.Login(ctx, "grace@example.com", "", false)
	require.Error(t, err)
	_, err = authenticator.Login(ctx, "grace@example.com", "password123", false)
	require.Error(t, err)
}
