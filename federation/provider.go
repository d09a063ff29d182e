// Package federation normalizes third-party identity assertions into a shape
// the auth package can resolve against local accounts. Providers support two
// modes with different trust properties: identity tokens are verified locally
// against the provider's published signing keys, while access tokens are
// resolved through an upstream userinfo call and therefore trust the network
// round trip instead of a signature.
package federation

import "context"

// Profile is the normalized external identity record produced by a provider.
type Profile struct {
	// ProviderUserID is the provider's stable subject identifier.
	ProviderUserID string
	// Provider is the provider name ("google").
	Provider string
	Email    string
	// EmailVerified reports whether the provider attests ownership of Email.
	// Unverified emails must never be used to resolve a local account.
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
}

// Provider resolves provider-issued credentials into a Profile.
type Provider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// VerifyIDToken cryptographically validates a provider-issued identity
	// token (signature, issuer, audience, expiry) and extracts its claims.
	// No network call is made beyond fetching the provider's key set.
	VerifyIDToken(ctx context.Context, rawToken string) (*Profile, error)

	// FetchUserInfo resolves a bearer access token by calling the provider's
	// userinfo endpoint. This is a blocking upstream call with no internal
	// retry; callers own timeout and retry policy via ctx and the configured
	// HTTP client. It offers a weaker guarantee than VerifyIDToken.
	FetchUserInfo(ctx context.Context, accessToken string) (*Profile, error)
}
