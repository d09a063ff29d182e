package auth_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/welearn/go-auth"
	"github.com/welearn/go-auth/federation"
)

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Role() string     { return t.role }

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetExtendedTokenDuration").Return(24 * 30)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)

	authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

	t.Run("Successful login", func(t *testing.T) {
		identity := TestIdentity{
			id:       uuid.New().String(),
			username: "alice",
			email:    "alice@example.com",
			role:     auth.RoleStudent,
		}

		mockProvider.On("VerifyIdentity", ctx, "alice", "password123").
			Return(identity, nil).Once()

		token, err := authenticator.Login(ctx, "alice", "password123", false)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		parsedToken, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("test-signing-key"), nil
		})

		assert.NoError(t, err)
		assert.True(t, parsedToken.Valid)

		claims, ok := parsedToken.Claims.(*auth.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.RegisteredClaims.Audience)
		assert.Equal(t, auth.RoleStudent, claims.UserRole)

		mockProvider.AssertExpectations(t)
	})

	t.Run("Failed login propagates provider error", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "alice", "wrongpassword").
			Return(nil, auth.ErrInvalidCredentials).Once()

		token, err := authenticator.Login(ctx, "alice", "wrongpassword", false)

		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, auth.ErrInvalidCredentials, err)

		mockProvider.AssertExpectations(t)
	})

	t.Run("Nil identity fails login", func(t *testing.T) {
		mockProvider.On("VerifyIdentity", ctx, "bob", "password123").
			Return(nil, nil).Once()

		token, err := authenticator.Login(ctx, "bob", "password123", false)

		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, auth.ErrInvalidCredentials, err)

		mockProvider.AssertExpectations(t)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	mockProvider := new(MockIdentityProvider)
	authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

	identity := TestIdentity{
		id:       uuid.New().String(),
		username: "alice",
		email:    "alice@example.com",
		role:     auth.RoleStudent,
	}

	mockProvider.On("VerifyIdentity", ctx, "alice", "password123").
		Return(identity, nil).Once()

	token, err := authenticator.Login(ctx, "alice", "password123", false)
	require.NoError(t, err)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), session.GetUserID())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.True(t, session.HasRole(auth.RoleStudent))
	assert.False(t, session.HasRole(auth.RoleAdmin))

	mockProvider.On("FindIdentityByIdentifier", ctx, identity.ID()).
		Return(identity, nil).Once()

	resolved, err := authenticator.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), resolved.ID())

	mockProvider.AssertExpectations(t)
}

func TestSessionFromTokenRejectsGarbage(t *testing.T) {
	authenticator := auth.NewAuthenticator(new(MockIdentityProvider), newMockConfig())

	session, err := authenticator.SessionFromToken("garbage")
	assert.Error(t, err)
	assert.Nil(t, session)
}

func TestLoginWithIDToken(t *testing.T) {
	ctx := context.Background()

	verifiedProfile := &federation.Profile{
		ProviderUserID: "google-uid-1",
		Provider:       "google",
		Email:          "alice@example.com",
		EmailVerified:  true,
		Name:           "Alice Example",
	}

	t.Run("Verified email with local account", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		identity := TestIdentity{
			id:       uuid.New().String(),
			username: "alice@example.com",
			email:    "alice@example.com",
			role:     auth.RoleStudent,
		}

		mockFed.On("VerifyIDToken", ctx, "raw-id-token").Return(verifiedProfile, nil).Once()
		mockProvider.On("FindIdentityByEmail", ctx, "alice@example.com").
			Return(identity, nil).Once()

		token, err := authenticator.LoginWithIDToken(ctx, mockFed, "raw-id-token", false)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		mockFed.AssertExpectations(t)
		mockProvider.AssertExpectations(t)
	})

	t.Run("No local account does not auto provision", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		mockFed.On("VerifyIDToken", ctx, "raw-id-token").Return(verifiedProfile, nil).Once()
		mockProvider.On("FindIdentityByEmail", ctx, "alice@example.com").
			Return(nil, auth.ErrIdentityNotFound).Once()

		token, err := authenticator.LoginWithIDToken(ctx, mockFed, "raw-id-token", false)

		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, auth.ErrIdentityNotFound, err)

		mockFed.AssertExpectations(t)
		mockProvider.AssertExpectations(t)
	})

	t.Run("Unverified email is rejected", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		unverified := &federation.Profile{
			Provider:      "google",
			Email:         "alice@example.com",
			EmailVerified: false,
		}

		mockFed.On("VerifyIDToken", ctx, "raw-id-token").Return(unverified, nil).Once()

		token, err := authenticator.LoginWithIDToken(ctx, mockFed, "raw-id-token", false)

		assert.Error(t, err)
		assert.Empty(t, token)
		assert.Equal(t, federation.ErrEmailNotVerified, err)

		mockFed.AssertExpectations(t)
		mockProvider.AssertNotCalled(t, "FindIdentityByEmail")
	})

	t.Run("Invalid token short circuits", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		mockFed.On("VerifyIDToken", ctx, "bad-token").
			Return(nil, federation.ErrInvalidToken).Once()

		token, err := authenticator.LoginWithIDToken(ctx, mockFed, "bad-token", false)

		assert.Error(t, err)
		assert.Empty(t, token)

		mockFed.AssertExpectations(t)
		mockProvider.AssertNotCalled(t, "FindIdentityByEmail")
	})
}

func TestLoginWithAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Userinfo profile maps to a local account", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		profile := &federation.Profile{
			Provider:      "google",
			Email:         "bob@example.com",
			EmailVerified: true,
		}
		identity := TestIdentity{
			id:    uuid.New().String(),
			email: "bob@example.com",
			role:  auth.RoleParent,
		}

		mockFed.On("FetchUserInfo", ctx, "access-token").Return(profile, nil).Once()
		mockProvider.On("FindIdentityByEmail", ctx, "bob@example.com").
			Return(identity, nil).Once()

		token, err := authenticator.LoginWithAccessToken(ctx, mockFed, "access-token", true)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		mockFed.AssertExpectations(t)
		mockProvider.AssertExpectations(t)
	})

	t.Run("Upstream failure propagates", func(t *testing.T) {
		mockProvider := new(MockIdentityProvider)
		mockFed := new(MockFederationProvider)
		authenticator := auth.NewAuthenticator(mockProvider, newMockConfig())

		mockFed.On("FetchUserInfo", ctx, "stale-token").
			Return(nil, federation.ErrUpstream).Once()

		token, err := authenticator.LoginWithAccessToken(ctx, mockFed, "stale-token", false)

		assert.Error(t, err)
		assert.Empty(t, token)

		mockFed.AssertExpectations(t)
	})
}
