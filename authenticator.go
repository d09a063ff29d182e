package auth

import (
	"context"
	"reflect"

	"github.com/welearn/go-auth/federation"
)

type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetExtendedTokenDuration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies a local username/password pair and mints a session token.
// rememberMe selects the extended token lifetime.
func (s *Auther) Login(ctx context.Context, identifier, password string, rememberMe bool) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	return s.tokenService.Generate(identity, rememberMe)
}

// LoginWithIDToken authenticates a federated caller from a provider issued
// identity token. The token is verified locally against the provider's
// published keys, so no upstream round trip happens on this path.
func (s *Auther) LoginWithIDToken(ctx context.Context, provider federation.Provider, rawIDToken string, rememberMe bool) (string, error) {
	profile, err := provider.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		s.logger.Error("LoginWithIDToken verification failed", "provider", provider.Name(), "error", err)
		return "", err
	}

	return s.loginFederated(ctx, profile, rememberMe)
}

// LoginWithAccessToken authenticates a federated caller from a bearer access
// token by asking the provider's userinfo endpoint who it belongs to. This
// trusts the network round trip instead of a local signature check, which is a
// weaker guarantee than LoginWithIDToken; prefer the ID token path when the
// caller can supply one.
func (s *Auther) LoginWithAccessToken(ctx context.Context, provider federation.Provider, accessToken string, rememberMe bool) (string, error) {
	profile, err := provider.FetchUserInfo(ctx, accessToken)
	if err != nil {
		s.logger.Error("LoginWithAccessToken userinfo failed", "provider", provider.Name(), "error", err)
		return "", err
	}

	return s.loginFederated(ctx, profile, rememberMe)
}

// loginFederated maps a verified external identity onto a local account by
// exact email match. Federated logins never auto-provision accounts; a missing
// account fails with ErrIdentityNotFound and registration is a separate call.
func (s *Auther) loginFederated(ctx context.Context, profile *federation.Profile, rememberMe bool) (string, error) {
	if profile == nil || profile.Email == "" {
		return "", federation.ErrInvalidToken
	}

	if !profile.EmailVerified {
		return "", federation.ErrEmailNotVerified
	}

	identity, err := s.provider.FindIdentityByEmail(ctx, profile.Email)
	if err != nil {
		s.logger.Error("loginFederated account lookup failed", "error", err)
		return "", err
	}

	return s.tokenService.Generate(identity, rememberMe)
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier", "error", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

var _ Authenticator = (*Auther)(nil)
