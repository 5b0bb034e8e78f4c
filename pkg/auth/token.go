package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
)

// jwtClaimsRegex matches a JWT: three base64 (url-safe alphabet) components
// separated by dots. The middle component carries the claims.
var jwtClaimsRegex = regexp.MustCompile(`^[a-zA-Z0-9-_]*\.([a-zA-Z0-9-_]*)\.[a-zA-Z0-9-_]*$`)

// TokenClaims contains claims about a user.
// https://docs.microsoft.com/azure/active-directory/develop/id-tokens .
type TokenClaims struct {
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	Oid               string `json:"oid,omitempty"`
	TenantID          string `json:"tid,omitempty"`
	Subject           string `json:"sub,omitempty"`
	UPN               string `json:"upn,omitempty"`
	Email             string `json:"email,omitempty"`
}

// LoginID returns the identity key a token establishes for an account: the
// preferred username when present, the UPN otherwise, the object id as a
// last resort.
func (c TokenClaims) LoginID() string {
	switch {
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.UPN != "":
		return c.UPN
	default:
		return c.Oid
	}
}

// GetClaimsFromAccessToken extracts the claims from an access token. Access
// tokens are JWTs and the middle component is a base64 encoded JSON object
// with claims.
func GetClaimsFromAccessToken(token string) (TokenClaims, error) {
	matches := jwtClaimsRegex.FindStringSubmatch(token)
	if len(matches) != 2 {
		return TokenClaims{}, errors.New("malformed access token")
	}

	bytes, err := base64.RawURLEncoding.DecodeString(matches[1])
	if err != nil {
		return TokenClaims{}, err
	}

	var claims TokenClaims
	if err := json.Unmarshal(bytes, &claims); err != nil {
		return TokenClaims{}, err
	}

	return claims, nil
}
