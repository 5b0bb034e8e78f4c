package directory

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

const serviceManagementAPIVersion = "2013-08-01"

// ServiceManagementDirectory lists subscriptions through the legacy Service
// Management surface. The service has no SDK client, so requests go through
// a hand-rolled azcore pipeline and the XML payload is decoded directly.
type ServiceManagementDirectory struct {
	pipeline runtime.Pipeline
}

// NewServiceManagementDirectory creates a ServiceManagementDirectory.
// clientOptions may be nil; it exists so tests can substitute the HTTP
// transport.
func NewServiceManagementDirectory(clientOptions *azcore.ClientOptions) *ServiceManagementDirectory {
	return &ServiceManagementDirectory{
		pipeline: runtime.NewPipeline("azprofile-rdfe", "1.0.0", runtime.PipelineOptions{}, clientOptions),
	}
}

func (d *ServiceManagementDirectory) Mode() string {
	return profile.ModeServiceManagement
}

// subscriptionList is the legacy service's subscription listing payload.
type subscriptionList struct {
	XMLName       xml.Name             `xml:"Subscriptions"`
	Subscriptions []legacySubscription `xml:"Subscription"`
}

type legacySubscription struct {
	SubscriptionID   string `xml:"SubscriptionID"`
	SubscriptionName string `xml:"SubscriptionName"`
	AADTenantID      string `xml:"AADTenantID"`
}

func (d *ServiceManagementDirectory) ListSubscriptions(
	ctx context.Context, token auth.Token, env environments.Environment) ([]SubscriptionInfo, error) {
	endpoint := strings.TrimSuffix(env.Endpoint(environments.EndpointServiceManagement), "/")

	req, err := runtime.NewRequest(ctx, http.MethodGet, fmt.Sprintf("%s/subscriptions", endpoint))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	raw := req.Raw()
	raw.Header.Set("Authorization", "Bearer "+token.AccessToken)
	raw.Header.Set("x-ms-version", serviceManagementAPIVersion)

	res, err := d.pipeline.Do(req)
	if err != nil {
		return nil, NewRemoteError(d.Mode(), err)
	}

	if !runtime.HasStatusCode(res, http.StatusOK) {
		return nil, NewRemoteError(d.Mode(), runtime.NewResponseError(res))
	}

	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, NewRemoteError(d.Mode(), fmt.Errorf("reading response body: %w", err))
	}

	var list subscriptionList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, NewRemoteError(d.Mode(), fmt.Errorf("parsing subscription list: %w", err))
	}

	subscriptions := make([]SubscriptionInfo, 0, len(list.Subscriptions))
	for _, sub := range list.Subscriptions {
		subscriptions = append(subscriptions, SubscriptionInfo{
			ID:          sub.SubscriptionID,
			DisplayName: sub.SubscriptionName,
			TenantID:    sub.AADTenantID,
		})
	}

	return subscriptions, nil
}
