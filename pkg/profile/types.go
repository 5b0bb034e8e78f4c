// Package profile owns the canonical persisted entities of an Azure profile:
// accounts, subscriptions and environments, the rules for merging two
// versions of the same entity, and the session context tracking the
// currently selected triple.
package profile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// AccountType distinguishes how an account authenticates. The variants are
// mutually exclusive and the type participates in an account's identity.
type AccountType string

const (
	// AccountTypeUser is an interactively authenticated user principal.
	AccountTypeUser AccountType = "User"
	// AccountTypeServicePrincipal authenticates with a client secret.
	AccountTypeServicePrincipal AccountType = "ServicePrincipal"
	// AccountTypeCertificate is a management-certificate identity imported
	// from publish settings. Certificate accounts cannot authenticate against
	// the token-based subscription authorities.
	AccountTypeCertificate AccountType = "Certificate"
)

// SupportedMode tags which subscription-listing authority knows about a
// subscription.
const (
	ModeServiceManagement = "AzureServiceManagement"
	ModeResourceManager   = "AzureResourceManager"
)

// Account is an identity known to the profile, keyed by a globally unique ID:
// a user login name, a service principal application ID, or a certificate
// thumbprint.
type Account struct {
	ID   string      `json:"id"`
	Type AccountType `json:"type"`

	// Tenants is the cached set of tenant IDs the account can authenticate
	// against. Populated on first enumeration and grown on refresh.
	Tenants []string `json:"tenants,omitempty"`

	// Subscriptions is the set of subscription IDs the account has been
	// observed to own or access.
	Subscriptions []string `json:"subscriptions,omitempty"`

	// Extensions carries forward-compatible values the current code does not
	// interpret.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// HasSubscription reports whether the account references the given
// subscription ID.
func (a Account) HasSubscription(subscriptionID string) bool {
	return slices.ContainsFunc(a.Subscriptions, func(id string) bool {
		return strings.EqualFold(id, subscriptionID)
	})
}

// AppendSubscription adds the subscription ID to the account's subscription
// list if not already present (case-insensitive).
func (a *Account) AppendSubscription(subscriptionID string) {
	if !a.HasSubscription(subscriptionID) {
		a.Subscriptions = append(a.Subscriptions, subscriptionID)
	}
}

// RemoveSubscription drops the subscription ID from the account's
// subscription list.
func (a *Account) RemoveSubscription(subscriptionID string) {
	a.Subscriptions = slices.DeleteFunc(a.Subscriptions, func(id string) bool {
		return strings.EqualFold(id, subscriptionID)
	})
}

// Clone returns a copy of the account with its own backing slices and map.
func (a Account) Clone() Account {
	clone := a
	clone.Tenants = slices.Clone(a.Tenants)
	clone.Subscriptions = slices.Clone(a.Subscriptions)
	clone.Extensions = cloneExtensions(a.Extensions)
	return clone
}

// Subscription is an Azure subscription known to the profile, keyed by its
// UUID identity.
type Subscription struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Environment string `json:"environment"`

	// Account is the ID of the owning account. Referential integrity against
	// the profile's accounts is checked when the subscription is durably
	// added, not continuously enforced.
	Account string `json:"account,omitempty"`

	// SupportedModes records which listing authorities produced the
	// subscription.
	SupportedModes []string `json:"supportedModes,omitempty"`

	// RegisteredProviders is the set of resource providers registered in the
	// subscription.
	RegisteredProviders []string `json:"registeredProviders,omitempty"`

	// Tenants is the set of tenant IDs through which the subscription is
	// reachable.
	Tenants []string `json:"tenants,omitempty"`

	Extensions map[string]string `json:"extensions,omitempty"`
}

// Clone returns a copy of the subscription with its own backing slices and map.
func (s Subscription) Clone() Subscription {
	clone := s
	clone.SupportedModes = slices.Clone(s.SupportedModes)
	clone.RegisteredProviders = slices.Clone(s.RegisteredProviders)
	clone.Tenants = slices.Clone(s.Tenants)
	clone.Extensions = cloneExtensions(s.Extensions)
	return clone
}

// NormalizeSubscriptionID parses id as a UUID and returns its canonical
// lowercase form.
func NormalizeSubscriptionID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid subscription id '%s': %w", id, err)
	}

	return parsed.String(), nil
}

func cloneExtensions(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	clone := make(map[string]string, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
