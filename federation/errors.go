package federation

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidToken     = "federation_invalid_token"
	TextCodeUpstream         = "federation_upstream_error"
	TextCodeEmailNotVerified = "federation_email_not_verified"
)

// ErrInvalidToken is returned when an identity token fails signature, issuer,
// audience, or expiry verification.
var ErrInvalidToken = errors.New("invalid federated identity token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrUpstream is returned when the provider's userinfo endpoint cannot be
// reached or answers with a non-2xx status.
var ErrUpstream = errors.New("federation provider upstream error", errors.CategoryOperation).
	WithTextCode(TextCodeUpstream)

// ErrEmailNotVerified is returned when a provider profile carries an email the
// provider has not verified.
var ErrEmailNotVerified = errors.New("federated email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)
