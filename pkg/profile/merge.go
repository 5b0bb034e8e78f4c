package profile

import (
	"fmt"
	"maps"
	"strings"

	"dario.cat/mergo"
	"github.com/azuretools/azprofile/pkg/environments"
)

// The merge functions combine two versions of the same logical entity into a
// new value, property by property. Scalar fields take a's value when set,
// falling back to b's. List-valued properties are combined by
// case-insensitive set union, preserving first-seen order. Neither input is
// mutated, so callers can retry a merge safely.

// MergeAccounts merges two accounts sharing the same ID and type.
func MergeAccounts(a, b Account) (Account, error) {
	if !strings.EqualFold(a.ID, b.ID) {
		return Account{}, &IdentityMismatchError{Kind: "account", A: a.ID, B: b.ID}
	}
	if a.Type != b.Type {
		return Account{}, &IdentityMismatchError{
			Kind: "account",
			A:    fmt.Sprintf("%s (%s)", a.ID, a.Type),
			B:    fmt.Sprintf("%s (%s)", b.ID, b.Type),
		}
	}

	return Account{
		ID:            a.ID,
		Type:          a.Type,
		Tenants:       unionFold(a.Tenants, b.Tenants),
		Subscriptions: unionFold(a.Subscriptions, b.Subscriptions),
		Extensions:    mergeExtensions(a.Extensions, b.Extensions),
	}, nil
}

// MergeSubscriptions merges two subscriptions sharing the same ID.
func MergeSubscriptions(a, b Subscription) (Subscription, error) {
	if !strings.EqualFold(a.ID, b.ID) {
		return Subscription{}, &IdentityMismatchError{Kind: "subscription", A: a.ID, B: b.ID}
	}

	return Subscription{
		ID:                  a.ID,
		Name:                firstOf(a.Name, b.Name),
		Environment:         firstOf(a.Environment, b.Environment),
		Account:             firstOf(a.Account, b.Account),
		SupportedModes:      unionFold(a.SupportedModes, b.SupportedModes),
		RegisteredProviders: unionFold(a.RegisteredProviders, b.RegisteredProviders),
		Tenants:             unionFold(a.Tenants, b.Tenants),
		Extensions:          mergeExtensions(a.Extensions, b.Extensions),
	}, nil
}

// MergeEnvironments merges two environments sharing the same name. Endpoints
// defined by a win; endpoints only b defines are carried over.
func MergeEnvironments(a, b environments.Environment) (environments.Environment, error) {
	if !strings.EqualFold(a.Name, b.Name) {
		return environments.Environment{}, &IdentityMismatchError{Kind: "environment", A: a.Name, B: b.Name}
	}

	endpoints := maps.Clone(a.Endpoints)
	if endpoints == nil {
		endpoints = map[environments.EndpointKind]string{}
	}
	if err := mergo.Merge(&endpoints, b.Endpoints); err != nil {
		return environments.Environment{}, fmt.Errorf("merging environment endpoints: %w", err)
	}

	return environments.Environment{
		Name:      a.Name,
		Endpoints: endpoints,
	}, nil
}

// MergeSubscriptionLists combines subscriptions from two listings into one
// list, merging entries that share an ID. Order follows first appearance.
func MergeSubscriptionLists(a, b []Subscription) ([]Subscription, error) {
	merged := []Subscription{}
	index := map[string]int{}

	for _, sub := range append(append([]Subscription{}, a...), b...) {
		key := strings.ToLower(sub.ID)
		if at, ok := index[key]; ok {
			combined, err := MergeSubscriptions(merged[at], sub)
			if err != nil {
				return nil, err
			}
			merged[at] = combined
		} else {
			index[key] = len(merged)
			merged = append(merged, sub.Clone())
		}
	}

	return merged, nil
}

func firstOf(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// unionFold returns the case-insensitive set union of a and b, keeping the
// first-seen casing and order.
func unionFold(a, b []string) []string {
	var union []string
	seen := map[string]struct{}{}

	for _, value := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		union = append(union, value)
	}

	return union
}

func mergeExtensions(a, b map[string]string) map[string]string {
	if a == nil && b == nil {
		return nil
	}

	merged := map[string]string{}
	for k, v := range b {
		merged[k] = v
	}
	for k, v := range a {
		merged[k] = v
	}
	return merged
}
