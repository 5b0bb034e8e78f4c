// Package auth defines the authentication capability the reconciler depends
// on, its typed failure modes, and a default implementation backed by the
// Azure Identity SDK.
package auth

import (
	"context"

	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

// PromptPolicy controls whether an authenticator may interact with the user.
type PromptPolicy int

const (
	// PromptNever requires silent authentication.
	PromptNever PromptPolicy = iota
	// PromptAlways allows interactive flows.
	PromptAlways
)

// Token is an access token issued for one tenant.
type Token struct {
	AccessToken string
	Claims      TokenClaims
}

// Authenticator acquires tokens for an account against an environment's
// token authority.
//
// Authenticate returns the account back with any identity information the
// flow produced filled in (an interactive login discovers the account ID
// from the token claims). Callers thread the returned value through
// explicitly; the input account is never mutated. An account with an empty
// ID after an interactive flow means the login produced no identity.
type Authenticator interface {
	Authenticate(
		ctx context.Context,
		account profile.Account,
		env environments.Environment,
		tenantID string,
		secret string,
		prompt PromptPolicy,
	) (Token, profile.Account, error)
}
