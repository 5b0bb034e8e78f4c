package profile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azuretools/azprofile/pkg/environments"
)

func TestMergeAccounts(t *testing.T) {
	t.Run("UnionsListProperties", func(t *testing.T) {
		a := Account{
			ID:            "user@contoso.com",
			Type:          AccountTypeUser,
			Tenants:       []string{"tenant-1"},
			Subscriptions: []string{"sub-1", "sub-2"},
		}
		b := Account{
			ID:            "USER@contoso.com",
			Type:          AccountTypeUser,
			Tenants:       []string{"TENANT-1", "tenant-2"},
			Subscriptions: []string{"SUB-2", "sub-3"},
		}

		merged, err := MergeAccounts(a, b)
		require.NoError(t, err)
		require.Equal(t, "user@contoso.com", merged.ID)
		require.Equal(t, []string{"tenant-1", "tenant-2"}, merged.Tenants)
		require.Equal(t, []string{"sub-1", "sub-2", "sub-3"}, merged.Subscriptions)
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		a := Account{
			ID:            "user@contoso.com",
			Type:          AccountTypeUser,
			Tenants:       []string{"tenant-1"},
			Subscriptions: []string{"sub-1"},
		}

		merged, err := MergeAccounts(a, a)
		require.NoError(t, err)
		require.Equal(t, a, merged)
	})

	t.Run("ListPropertiesAreCommutativeAsSets", func(t *testing.T) {
		a := Account{ID: "a@contoso.com", Type: AccountTypeUser, Tenants: []string{"t-1", "t-2"}}
		b := Account{ID: "a@contoso.com", Type: AccountTypeUser, Tenants: []string{"t-2", "t-3"}}

		ab, err := MergeAccounts(a, b)
		require.NoError(t, err)
		ba, err := MergeAccounts(b, a)
		require.NoError(t, err)

		require.ElementsMatch(t, ab.Tenants, ba.Tenants)
	})

	t.Run("RejectsDifferentIDs", func(t *testing.T) {
		_, err := MergeAccounts(
			Account{ID: "a@contoso.com", Type: AccountTypeUser},
			Account{ID: "b@contoso.com", Type: AccountTypeUser},
		)

		var mismatch *IdentityMismatchError
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("RejectsDifferentTypes", func(t *testing.T) {
		_, err := MergeAccounts(
			Account{ID: "a@contoso.com", Type: AccountTypeUser},
			Account{ID: "a@contoso.com", Type: AccountTypeServicePrincipal},
		)

		var mismatch *IdentityMismatchError
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("DoesNotMutateInputs", func(t *testing.T) {
		a := Account{ID: "a@contoso.com", Type: AccountTypeUser, Tenants: []string{"tenant-1"}}
		b := Account{ID: "a@contoso.com", Type: AccountTypeUser, Tenants: []string{"tenant-2"}}

		merged, err := MergeAccounts(a, b)
		require.NoError(t, err)

		merged.Tenants[0] = "changed"
		require.Equal(t, []string{"tenant-1"}, a.Tenants)
		require.Equal(t, []string{"tenant-2"}, b.Tenants)
	})
}

func TestMergeSubscriptions(t *testing.T) {
	t.Run("ScalarsPreferFirst", func(t *testing.T) {
		a := Subscription{ID: "s-1", Name: "New Name", Environment: "AzureCloud"}
		b := Subscription{ID: "s-1", Name: "Old Name", Environment: "AzureChinaCloud", Account: "user@contoso.com"}

		merged, err := MergeSubscriptions(a, b)
		require.NoError(t, err)
		require.Equal(t, "New Name", merged.Name)
		require.Equal(t, "AzureCloud", merged.Environment)

		// Unset scalars fall back to the second version.
		require.Equal(t, "user@contoso.com", merged.Account)
	})

	t.Run("UnionsListProperties", func(t *testing.T) {
		a := Subscription{
			ID:                  "s-1",
			SupportedModes:      []string{ModeResourceManager},
			RegisteredProviders: []string{"Microsoft.Compute"},
		}
		b := Subscription{
			ID:                  "s-1",
			SupportedModes:      []string{ModeServiceManagement, "azureresourcemanager"},
			RegisteredProviders: []string{"microsoft.compute", "Microsoft.Storage"},
		}

		merged, err := MergeSubscriptions(a, b)
		require.NoError(t, err)
		require.Equal(t, []string{ModeResourceManager, ModeServiceManagement}, merged.SupportedModes)
		require.Equal(t, []string{"Microsoft.Compute", "Microsoft.Storage"}, merged.RegisteredProviders)
	})

	t.Run("ExtensionsPreferFirst", func(t *testing.T) {
		a := Subscription{ID: "s-1", Extensions: map[string]string{"key": "new"}}
		b := Subscription{ID: "s-1", Extensions: map[string]string{"key": "old", "other": "kept"}}

		merged, err := MergeSubscriptions(a, b)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"key": "new", "other": "kept"}, merged.Extensions)
	})
}

func TestMergeEnvironments(t *testing.T) {
	t.Run("EndpointsPreferFirstAndFillMissing", func(t *testing.T) {
		a := environments.Environment{
			Name: "Custom",
			Endpoints: map[environments.EndpointKind]string{
				environments.EndpointResourceManager: "https://arm.custom.example/",
			},
		}
		b := environments.Environment{
			Name: "Custom",
			Endpoints: map[environments.EndpointKind]string{
				environments.EndpointResourceManager: "https://arm.old.example/",
				environments.EndpointActiveDirectory: "https://login.old.example/",
			},
		}

		merged, err := MergeEnvironments(a, b)
		require.NoError(t, err)
		require.Equal(t, "https://arm.custom.example/", merged.Endpoint(environments.EndpointResourceManager))
		require.Equal(t, "https://login.old.example/", merged.Endpoint(environments.EndpointActiveDirectory))
	})

	t.Run("RejectsDifferentNames", func(t *testing.T) {
		_, err := MergeEnvironments(
			environments.Environment{Name: "A"},
			environments.Environment{Name: "B"},
		)

		var mismatch *IdentityMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestMergeSubscriptionLists(t *testing.T) {
	t.Run("MergesCollisionsPreservingOrder", func(t *testing.T) {
		a := []Subscription{
			{ID: "s-1", Name: "First", SupportedModes: []string{ModeResourceManager}},
			{ID: "s-2", Name: "Second"},
		}
		b := []Subscription{
			{ID: "S-1", SupportedModes: []string{ModeServiceManagement}},
			{ID: "s-3", Name: "Third"},
		}

		merged, err := MergeSubscriptionLists(a, b)
		require.NoError(t, err)
		require.Len(t, merged, 3)
		require.Equal(t, "s-1", merged[0].ID)
		require.Equal(t, []string{ModeResourceManager, ModeServiceManagement}, merged[0].SupportedModes)
		require.Equal(t, "s-2", merged[1].ID)
		require.Equal(t, "s-3", merged[2].ID)
	})

	t.Run("ListOrderIsCommutativeAsSet", func(t *testing.T) {
		a := []Subscription{{ID: "s-1", Name: "One"}}
		b := []Subscription{{ID: "s-2", Name: "Two"}}

		ab, err := MergeSubscriptionLists(a, b)
		require.NoError(t, err)
		ba, err := MergeSubscriptionLists(b, a)
		require.NoError(t, err)

		require.ElementsMatch(t, ab, ba)
	})
}
