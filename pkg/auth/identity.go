package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

// IdentityAuthenticator is an Authenticator backed by the Azure Identity
// SDK. User accounts authenticate with the device code flow; service
// principals with a client secret. Credentials are cached per account so a
// login's interactive flow can serve the silent per-tenant token requests
// that follow it.
type IdentityAuthenticator struct {
	clientOptions *azcore.ClientOptions

	mu          sync.Mutex
	credentials map[string]azcore.TokenCredential
}

// NewIdentityAuthenticator creates an IdentityAuthenticator. clientOptions
// may be nil; it exists so tests can substitute the HTTP transport.
func NewIdentityAuthenticator(clientOptions *azcore.ClientOptions) *IdentityAuthenticator {
	return &IdentityAuthenticator{
		clientOptions: clientOptions,
		credentials:   map[string]azcore.TokenCredential{},
	}
}

func (a *IdentityAuthenticator) Authenticate(
	ctx context.Context,
	account profile.Account,
	env environments.Environment,
	tenantID string,
	secret string,
	prompt PromptPolicy,
) (Token, profile.Account, error) {
	if account.Type == profile.AccountTypeCertificate {
		return Token{}, account, NewAuthFailedError(
			errors.New("certificate accounts cannot authenticate against token authorities"))
	}

	cred, err := a.credentialFor(account, env, secret, prompt)
	if err != nil {
		return Token{}, account, err
	}

	accessToken, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes:   []string{tokenScope(env)},
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Token{}, account, NewAuthCanceledError(err)
		}
		return Token{}, account, NewAuthFailedError(err)
	}

	claims, err := GetClaimsFromAccessToken(accessToken.Token)
	if err != nil {
		return Token{}, account, NewAuthFailedError(fmt.Errorf("inspecting access token: %w", err))
	}

	updated := account.Clone()
	if updated.ID == "" {
		updated.ID = claims.LoginID()

		// The interactive flow cached the credential before the identity was
		// known. Re-key it under the discovered ID so the silent per-tenant
		// requests that follow find it.
		if updated.ID != "" {
			a.rememberCredential(updated, env, cred)
		}
	}

	return Token{AccessToken: accessToken.Token, Claims: claims}, updated, nil
}

func (a *IdentityAuthenticator) credentialFor(
	account profile.Account,
	env environments.Environment,
	secret string,
	prompt PromptPolicy,
) (azcore.TokenCredential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := credentialKey(account, env)
	if cred, ok := a.credentials[key]; ok {
		return cred, nil
	}

	clientOptions := azcore.ClientOptions{}
	if a.clientOptions != nil {
		clientOptions = *a.clientOptions
	}
	clientOptions.Cloud = cloud.Configuration{
		ActiveDirectoryAuthorityHost: env.Endpoint(environments.EndpointActiveDirectory),
	}

	var cred azcore.TokenCredential
	var err error

	switch account.Type {
	case profile.AccountTypeServicePrincipal:
		cred, err = azidentity.NewClientSecretCredential(
			firstTenant(account), account.ID, secret,
			&azidentity.ClientSecretCredentialOptions{
				ClientOptions:              clientOptions,
				AdditionallyAllowedTenants: []string{"*"},
			})
	default:
		if prompt == PromptNever {
			return nil, NewAuthFailedError(
				fmt.Errorf("no cached credential for '%s' and interaction is not allowed", account.ID))
		}
		cred, err = azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			ClientOptions:              clientOptions,
			TenantID:                   environments.CommonTenant,
			AdditionallyAllowedTenants: []string{"*"},
		})
	}

	if err != nil {
		return nil, NewAuthFailedError(err)
	}

	a.credentials[key] = cred
	return cred, nil
}

// rememberCredential caches cred under the account's key.
func (a *IdentityAuthenticator) rememberCredential(
	account profile.Account, env environments.Environment, cred azcore.TokenCredential) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.credentials[credentialKey(account, env)] = cred
}

func credentialKey(account profile.Account, env environments.Environment) string {
	return fmt.Sprintf("%s/%s", env.Name, strings.ToLower(account.ID))
}

func firstTenant(account profile.Account) string {
	if len(account.Tenants) > 0 {
		return account.Tenants[0]
	}
	return environments.CommonTenant
}

func tokenScope(env environments.Environment) string {
	resource := strings.TrimSuffix(env.Endpoint(environments.EndpointResourceManager), "/")
	return resource + "/.default"
}
