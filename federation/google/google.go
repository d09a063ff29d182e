package google

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/welearn/go-auth/federation"
)

const (
	defaultJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var defaultIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Config holds Google federation configuration.
type Config struct {
	// ClientID is the OAuth client the ID token audience must match.
	ClientID string

	JWKSURL     string
	UserInfoURL string
	// Issuers overrides the accepted "iss" values. Google signs tokens with
	// either the https or the bare issuer depending on the flow.
	Issuers []string

	HTTPClient *http.Client
}

// Provider implements federation.Provider for Google.
type Provider struct {
	config     Config
	httpClient *http.Client
	jwks       *keyfunc.JWKS
}

// New creates a new Google provider. The JWKS key set starts refreshing in the
// background immediately and is reused across verifications.
func New(cfg Config) (*Provider, error) {
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = defaultIssuers
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Client: client,
		RefreshErrorHandler: func(err error) {
			log.Printf("google: background JWKS refresh failed: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch google JWK set")
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
		jwks:       jwks,
	}, nil
}

// Name implements federation.Provider.
func (p *Provider) Name() string {
	return "google"
}

// VerifyIDToken implements federation.Provider. The token signature is checked
// against Google's published keys, the issuer and audience against the
// configured values, and expiry against the current time. Nothing leaves the
// process besides the cached JWKS refresh.
func (p *Provider) VerifyIDToken(ctx context.Context, rawToken string) (*federation.Profile, error) {
	claims := &idTokenClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, p.jwks.Keyfunc,
		jwt.WithAudience(p.config.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, invalidToken(err)
	}

	if !token.Valid {
		return nil, federation.ErrInvalidToken
	}

	issuer, err := claims.GetIssuer()
	if err != nil || !p.acceptedIssuer(issuer) {
		return nil, invalidToken(jwt.ErrTokenInvalidIssuer)
	}

	return claims.profile(), nil
}

// FetchUserInfo implements federation.Provider. See the interface note: this
// path trusts the upstream HTTPS round trip rather than a local signature
// check.
func (p *Provider) FetchUserInfo(ctx context.Context, accessToken string) (*federation.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, upstream(err, 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstream(err, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, upstream(nil, resp.StatusCode)
	}

	var userInfo googleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, upstream(err, resp.StatusCode)
	}

	return mapProfile(&userInfo), nil
}

func (p *Provider) acceptedIssuer(issuer string) bool {
	for _, iss := range p.config.Issuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

func invalidToken(cause error) error {
	clone := federation.ErrInvalidToken.Clone()
	clone.Source = cause
	if cause != nil {
		return clone.WithMetadata(map[string]any{
			"provider": "google",
			"cause":    cause.Error(),
		})
	}
	return clone
}

func upstream(cause error, status int) error {
	clone := federation.ErrUpstream.Clone()
	clone.Source = cause
	meta := map[string]any{"provider": "google"}
	if status != 0 {
		meta["status"] = status
	}
	if cause != nil {
		meta["cause"] = cause.Error()
	}
	return clone.WithMetadata(meta)
}

var _ federation.Provider = (*Provider)(nil)
