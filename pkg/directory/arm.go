package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/convert"
	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

// ResourceManagerDirectory lists tenants and subscriptions through the Azure
// Resource Manager surface.
type ResourceManagerDirectory struct {
	clientOptions *arm.ClientOptions
}

// NewResourceManagerDirectory creates a ResourceManagerDirectory.
// clientOptions may be nil; it exists so tests can substitute the HTTP
// transport.
func NewResourceManagerDirectory(clientOptions *arm.ClientOptions) *ResourceManagerDirectory {
	return &ResourceManagerDirectory{clientOptions: clientOptions}
}

func (d *ResourceManagerDirectory) Mode() string {
	return profile.ModeResourceManager
}

func (d *ResourceManagerDirectory) ListTenants(
	ctx context.Context, token auth.Token, env environments.Environment) ([]string, error) {
	client, err := armsubscriptions.NewTenantsClient(staticTokenCredential{token}, d.options(env))
	if err != nil {
		return nil, fmt.Errorf("creating tenants client: %w", err)
	}

	tenants := []string{}
	pager := client.NewListPager(nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, NewRemoteError(d.Mode(), fmt.Errorf("getting next page of tenants: %w", err))
		}

		for _, tenant := range page.TenantListResult.Value {
			if tenant != nil && tenant.TenantID != nil {
				tenants = append(tenants, *tenant.TenantID)
			}
		}
	}

	return tenants, nil
}

func (d *ResourceManagerDirectory) ListSubscriptions(
	ctx context.Context, token auth.Token, env environments.Environment) ([]SubscriptionInfo, error) {
	client, err := armsubscriptions.NewClient(staticTokenCredential{token}, d.options(env))
	if err != nil {
		return nil, fmt.Errorf("creating subscriptions client: %w", err)
	}

	subscriptions := []SubscriptionInfo{}
	pager := client.NewListPager(nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, NewRemoteError(d.Mode(), fmt.Errorf("getting next page of subscriptions: %w", err))
		}

		for _, sub := range page.SubscriptionListResult.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}

			subscriptions = append(subscriptions, SubscriptionInfo{
				ID:          *sub.SubscriptionID,
				DisplayName: convert.ToValueWithDefault(sub.DisplayName, *sub.SubscriptionID),
				TenantID:    convert.ToValueWithDefault(sub.TenantID, ""),
			})
		}
	}

	return subscriptions, nil
}

func (d *ResourceManagerDirectory) options(env environments.Environment) *arm.ClientOptions {
	options := arm.ClientOptions{}
	if d.clientOptions != nil {
		options = *d.clientOptions
	}

	if options.Cloud.Services == nil {
		endpoint := strings.TrimSuffix(env.Endpoint(environments.EndpointResourceManager), "/")
		options.Cloud = cloud.Configuration{
			ActiveDirectoryAuthorityHost: env.Endpoint(environments.EndpointActiveDirectory),
			Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
				cloud.ResourceManager: {
					Audience: endpoint,
					Endpoint: endpoint,
				},
			},
		}
	}

	return &options
}

// staticTokenCredential replays a token the enumerator already acquired
// through the Authenticator capability.
type staticTokenCredential struct {
	token auth.Token
}

func (c staticTokenCredential) GetToken(
	ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     c.token.AccessToken,
		ExpiresOn: time.Now().Add(time.Hour),
	}, nil
}
