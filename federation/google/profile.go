package google

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/welearn/go-auth/federation"
)

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// idTokenClaims is the claim shape of a Google-issued identity token.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func (c *idTokenClaims) profile() *federation.Profile {
	return &federation.Profile{
		ProviderUserID: c.RegisteredClaims.Subject,
		Provider:       "google",
		Email:          c.Email,
		EmailVerified:  c.EmailVerified,
		Name:           c.Name,
		GivenName:      c.GivenName,
		FamilyName:     c.FamilyName,
		Picture:        c.Picture,
	}
}

func mapProfile(info *googleUserInfo) *federation.Profile {
	if info == nil {
		return nil
	}

	return &federation.Profile{
		ProviderUserID: info.Sub,
		Provider:       "google",
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           info.Name,
		GivenName:      info.GivenName,
		FamilyName:     info.FamilyName,
		Picture:        info.Picture,
	}
}
