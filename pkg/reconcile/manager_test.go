package reconcile

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

const (
	subOne   = "11111111-1111-1111-1111-111111111111"
	subTwo   = "22222222-2222-2222-2222-222222222222"
	subThree = "33333333-3333-3333-3333-333333333333"
)

type fakeEnumerator struct {
	enumerate func(account profile.Account) (profile.Account, []profile.Subscription, error)
}

func (e *fakeEnumerator) EnumerateAccount(
	ctx context.Context,
	account profile.Account,
	env environments.Environment,
	secret string,
	prompt auth.PromptPolicy,
) (profile.Account, []profile.Subscription, error) {
	if e.enumerate == nil {
		return account, nil, nil
	}
	return e.enumerate(account)
}

type testHarness struct {
	manager    *Manager
	store      *profile.Store
	session    *profile.Session
	enumerator *fakeEnumerator
	warnings   []string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		store:      profile.NewInMemory(),
		session:    profile.NewSession(),
		enumerator: &fakeEnumerator{},
	}
	h.manager = NewManager(h.store, h.session, h.enumerator, WithWarningFunc(func(message string) {
		h.warnings = append(h.warnings, message)
	}))

	return h
}

// seedAccount installs an account plus the subscriptions it owns.
func (h *testHarness) seedAccount(t *testing.T, account profile.Account, subs ...profile.Subscription) {
	t.Helper()

	for _, sub := range subs {
		account.AppendSubscription(sub.ID)
	}

	_, err := h.manager.AddOrSetAccount(account)
	require.NoError(t, err)

	for _, sub := range subs {
		if sub.Account == "" {
			sub.Account = account.ID
		}
		if sub.Environment == "" {
			sub.Environment = environments.AzurePublicName
		}
		_, err := h.manager.AddOrSetSubscription(sub)
		require.NoError(t, err)
	}
}

func TestLogin(t *testing.T) {
	t.Run("NoIdentityFailsWithoutMutation", func(t *testing.T) {
		h := newTestHarness(t)
		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			return profile.Account{}, nil, nil
		}

		_, err := h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			environments.AzurePublicName, "")
		require.ErrorIs(t, err, ErrLoginFailed)
		require.Empty(t, h.manager.ListAccounts())
		require.Empty(t, h.manager.ListSubscriptions())
	})

	t.Run("FirstSubscriptionBecomesDefault", func(t *testing.T) {
		h := newTestHarness(t)
		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			updated := account.Clone()
			updated.ID = "user@contoso.com"
			updated.Tenants = []string{"tenant-1"}
			updated.Subscriptions = []string{subOne, subTwo}
			return updated, []profile.Subscription{
				{ID: subOne, Name: "First", Environment: environments.AzurePublicName, Account: updated.ID},
				{ID: subTwo, Name: "Second", Environment: environments.AzurePublicName, Account: updated.ID},
			}, nil
		}

		loggedIn, err := h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			environments.AzurePublicName, "")
		require.NoError(t, err)
		require.Equal(t, "user@contoso.com", loggedIn.ID)

		def := h.manager.DefaultSubscription()
		require.NotNil(t, def)
		require.Equal(t, subOne, def.ID)

		accounts := h.manager.ListAccounts()
		require.Len(t, accounts, 1)
		require.Equal(t, "user@contoso.com", accounts[0].ID)

		current := h.session.Current()
		require.NotNil(t, current.Subscription)
		require.Equal(t, subOne, current.Subscription.ID)
		require.Equal(t, environments.AzurePublicName, current.Environment.Name)
		require.Equal(t, "user@contoso.com", current.Account.ID)
	})

	t.Run("DuplicateDisplayNamesStillDefaultToFirstEnumerated", func(t *testing.T) {
		h := newTestHarness(t)
		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			updated := account.Clone()
			updated.ID = "user@contoso.com"
			// The first enumerated subscription sorts after its twin by id.
			return updated, []profile.Subscription{
				{ID: subTwo, Name: "Duplicated", Environment: environments.AzurePublicName, Account: updated.ID},
				{ID: subOne, Name: "Duplicated", Environment: environments.AzurePublicName, Account: updated.ID},
			}, nil
		}

		_, err := h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			environments.AzurePublicName, "")
		require.NoError(t, err)

		def := h.manager.DefaultSubscription()
		require.NotNil(t, def)
		require.Equal(t, subTwo, def.ID)
	})

	t.Run("ExistingDefaultIsKept", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "existing@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Existing"})
		_, err := h.manager.SetDefault("Existing", "")
		require.NoError(t, err)

		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			updated := account.Clone()
			updated.ID = "new@contoso.com"
			return updated, []profile.Subscription{
				{ID: subTwo, Name: "New", Environment: environments.AzurePublicName, Account: updated.ID},
			}, nil
		}

		_, err = h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			environments.AzurePublicName, "")
		require.NoError(t, err)

		def := h.manager.DefaultSubscription()
		require.NotNil(t, def)
		require.Equal(t, subOne, def.ID)
	})

	t.Run("EnumerationErrorPropagates", func(t *testing.T) {
		h := newTestHarness(t)
		boom := errors.New("enumeration failed")
		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			return profile.Account{}, nil, boom
		}

		_, err := h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			environments.AzurePublicName, "")
		require.ErrorIs(t, err, boom)
	})

	t.Run("UnknownEnvironmentFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.Login(context.Background(), profile.Account{Type: profile.AccountTypeUser},
			"NoSuchCloud", "")

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("PreservesSubscriptionOwner", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "owner@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Owned"})
		h.seedAccount(t,
			profile.Account{ID: "other@contoso.com", Type: profile.AccountTypeUser})

		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			return account.Clone(), []profile.Subscription{
				{ID: subOne, Name: "Owned", Environment: environments.AzurePublicName, Account: account.ID},
			}, nil
		}

		_, err := h.manager.Refresh(context.Background(), environments.AzurePublicName)
		require.NoError(t, err)

		// Both accounts see the subscription but the recorded owner stays.
		sub, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t, "owner@contoso.com", sub.Account)
	})

	t.Run("SkipsCertificateAccounts", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "thumbprint", Type: profile.AccountTypeCertificate},
			profile.Subscription{ID: subOne, Name: "Legacy"})

		var enumerated []string
		h.enumerator.enumerate = func(account profile.Account) (profile.Account, []profile.Subscription, error) {
			enumerated = append(enumerated, account.ID)
			return account.Clone(), nil, nil
		}

		_, err := h.manager.Refresh(context.Background(), environments.AzurePublicName)
		require.NoError(t, err)
		require.Empty(t, enumerated)

		// The certificate account's subscriptions survive the refresh.
		_, err = h.manager.GetSubscription(subOne)
		require.NoError(t, err)
	})
}

func TestAddOrSetSubscription(t *testing.T) {
	t.Run("MergesWithStoredVersion", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{
				ID:                  subOne,
				Name:                "Production",
				RegisteredProviders: []string{"Microsoft.Compute"},
				SupportedModes:      []string{profile.ModeServiceManagement},
			})

		merged, err := h.manager.AddOrSetSubscription(profile.Subscription{
			ID:                  subOne,
			Name:                "Production",
			Environment:         environments.AzurePublicName,
			RegisteredProviders: []string{"Microsoft.Storage"},
			SupportedModes:      []string{profile.ModeResourceManager},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"Microsoft.Storage", "Microsoft.Compute"}, merged.RegisteredProviders)
		require.Equal(t,
			[]string{profile.ModeResourceManager, profile.ModeServiceManagement},
			merged.SupportedModes)
		require.Equal(t, "user@contoso.com", merged.Account)
	})

	t.Run("NewSubscriptionRequiresKnownAccount", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.AddOrSetSubscription(profile.Subscription{
			ID:          subOne,
			Name:        "Orphan",
			Environment: environments.AzurePublicName,
			Account:     "nobody@contoso.com",
		})

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
		require.Equal(t, "account", notFound.Kind)
	})

	t.Run("RequiresKnownEnvironment", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t, profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser})

		_, err := h.manager.AddOrSetSubscription(profile.Subscription{
			ID:          subOne,
			Name:        "Homeless",
			Environment: "NoSuchCloud",
			Account:     "user@contoso.com",
		})

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
		require.Equal(t, "environment", notFound.Kind)
	})

	t.Run("RejectsMalformedID", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.AddOrSetSubscription(profile.Subscription{
			ID:          "not-a-uuid",
			Environment: environments.AzurePublicName,
		})
		require.Error(t, err)
	})

	t.Run("ResynchronizesSession", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		_, err := h.manager.SetCurrent("Production", "")
		require.NoError(t, err)

		_, err = h.manager.AddOrSetSubscription(profile.Subscription{
			ID:                  subOne,
			Name:                "Production",
			Environment:         environments.AzurePublicName,
			RegisteredProviders: []string{"Microsoft.Web"},
		})
		require.NoError(t, err)

		current := h.session.Current()
		require.NotNil(t, current.Subscription)
		require.Equal(t, []string{"Microsoft.Web"}, current.Subscription.RegisteredProviders)
	})
}

func TestRemoveAccount(t *testing.T) {
	t.Run("RemovesSolelyOwnedSubscriptions", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Owned"})

		removed, err := h.manager.RemoveAccount("user@contoso.com")
		require.NoError(t, err)
		require.Equal(t, "user@contoso.com", removed.ID)

		require.Empty(t, h.manager.ListAccounts())
		require.Empty(t, h.manager.ListSubscriptions())
	})

	t.Run("SharedSubscriptionGetsSubstituteOwner", func(t *testing.T) {
		h := newTestHarness(t)
		shared := profile.Subscription{ID: subOne, Name: "Shared"}
		h.seedAccount(t, profile.Account{ID: "a@contoso.com", Type: profile.AccountTypeUser}, shared)

		other := profile.Account{ID: "b@contoso.com", Type: profile.AccountTypeUser}
		other.AppendSubscription(subOne)
		_, err := h.manager.AddOrSetAccount(other)
		require.NoError(t, err)

		_, err = h.manager.RemoveAccount("a@contoso.com")
		require.NoError(t, err)

		sub, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t, "b@contoso.com", sub.Account)
	})

	t.Run("SubstitutePrefersNonCertificate", func(t *testing.T) {
		h := newTestHarness(t)
		shared := profile.Subscription{ID: subOne, Name: "Shared"}
		h.seedAccount(t, profile.Account{ID: "a@contoso.com", Type: profile.AccountTypeUser}, shared)

		// "0thumbprint" sorts before "z@contoso.com" but certificate accounts
		// lose to token-capable ones.
		cert := profile.Account{ID: "0thumbprint", Type: profile.AccountTypeCertificate}
		cert.AppendSubscription(subOne)
		_, err := h.manager.AddOrSetAccount(cert)
		require.NoError(t, err)

		user := profile.Account{ID: "z@contoso.com", Type: profile.AccountTypeUser}
		user.AppendSubscription(subOne)
		_, err = h.manager.AddOrSetAccount(user)
		require.NoError(t, err)

		_, err = h.manager.RemoveAccount("a@contoso.com")
		require.NoError(t, err)

		sub, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t, "z@contoso.com", sub.Account)
	})

	t.Run("RemovingCurrentAccountClearsSession", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		_, err := h.manager.SetCurrent("Production", "")
		require.NoError(t, err)

		_, err = h.manager.RemoveAccount("user@contoso.com")
		require.NoError(t, err)
		require.False(t, h.session.HasSubscription())
	})

	t.Run("UnknownAccountFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.RemoveAccount("nobody@contoso.com")

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestRemoveSubscription(t *testing.T) {
	t.Run("DetachesAccountsAndDropsEmptyOnes", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "single@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Only"})
		h.seedAccount(t,
			profile.Account{ID: "multi@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subTwo, Name: "Other"})

		multi, err := h.manager.GetAccount("multi@contoso.com")
		require.NoError(t, err)
		multi.AppendSubscription(subOne)
		_, err = h.manager.AddOrSetAccount(multi)
		require.NoError(t, err)

		_, err = h.manager.RemoveSubscription(subOne)
		require.NoError(t, err)

		// The account that only referenced the removed subscription is gone.
		_, err = h.manager.GetAccount("single@contoso.com")
		require.Error(t, err)

		// The other account is merely detached.
		kept, err := h.manager.GetAccount("multi@contoso.com")
		require.NoError(t, err)
		require.Equal(t, []string{subTwo}, kept.Subscriptions)
	})

	t.Run("RemovingDefaultAndCurrentWarnsAndClears", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		_, err := h.manager.SetDefault("Production", "")
		require.NoError(t, err)

		_, err = h.manager.RemoveSubscription(subOne)
		require.NoError(t, err)

		require.Len(t, h.warnings, 2)
		require.Nil(t, h.manager.DefaultSubscription())
		require.False(t, h.session.HasSubscription())
	})

	t.Run("ByNameResolvesDisplayName", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		removed, err := h.manager.RemoveSubscriptionByName("production")
		require.NoError(t, err)
		require.Equal(t, subOne, removed.ID)
	})

	t.Run("UnknownSubscriptionFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.RemoveSubscription(subThree)

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestEnvironments(t *testing.T) {
	customEnv := func() environments.Environment {
		return environments.Environment{
			Name: "ContosoCloud",
			Endpoints: map[environments.EndpointKind]string{
				environments.EndpointResourceManager: "https://arm.contoso.example/",
				environments.EndpointActiveDirectory: "https://login.contoso.example/",
			},
		}
	}

	t.Run("AddOrSetMergesEndpoints", func(t *testing.T) {
		h := newTestHarness(t)
		_, err := h.manager.AddOrSetEnvironment(customEnv())
		require.NoError(t, err)

		merged, err := h.manager.AddOrSetEnvironment(environments.Environment{
			Name: "ContosoCloud",
			Endpoints: map[environments.EndpointKind]string{
				environments.EndpointResourceManager: "https://arm2.contoso.example/",
			},
		})
		require.NoError(t, err)
		require.Equal(t, "https://arm2.contoso.example/", merged.Endpoint(environments.EndpointResourceManager))
		require.Equal(t, "https://login.contoso.example/", merged.Endpoint(environments.EndpointActiveDirectory))
	})

	t.Run("AddFailsOnExistingName", func(t *testing.T) {
		h := newTestHarness(t)
		_, err := h.manager.AddEnvironment(customEnv())
		require.NoError(t, err)

		_, err = h.manager.AddEnvironment(customEnv())

		var exists *profile.AlreadyExistsError
		require.ErrorAs(t, err, &exists)
	})

	t.Run("PublicEnvironmentsAreProtected", func(t *testing.T) {
		h := newTestHarness(t)

		var protected *profile.ProtectedResourceError

		_, err := h.manager.AddOrSetEnvironment(environments.Environment{Name: "AzureCloud"})
		require.ErrorAs(t, err, &protected)

		_, err = h.manager.RemoveEnvironment("azurechinacloud")
		require.ErrorAs(t, err, &protected)

		_, err = h.manager.GetEnvironment(environments.AzureChinaCloudName)
		require.NoError(t, err)
	})

	t.Run("RemoveCascadesToSubscriptions", func(t *testing.T) {
		h := newTestHarness(t)
		_, err := h.manager.AddOrSetEnvironment(customEnv())
		require.NoError(t, err)

		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "On Custom", Environment: "ContosoCloud"},
			profile.Subscription{ID: subTwo, Name: "On Public"})

		_, err = h.manager.RemoveEnvironment("ContosoCloud")
		require.NoError(t, err)

		_, err = h.manager.GetSubscription(subOne)
		require.Error(t, err)
		_, err = h.manager.GetSubscription(subTwo)
		require.NoError(t, err)
	})

	t.Run("UnknownEnvironmentFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.RemoveEnvironment("NoSuchCloud")

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestSelection(t *testing.T) {
	t.Run("SetCurrentInstallsFullTriple", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		sub, err := h.manager.SetCurrent("Production", "")
		require.NoError(t, err)
		require.Equal(t, subOne, sub.ID)

		current := h.session.Current()
		require.Equal(t, subOne, current.Subscription.ID)
		require.Equal(t, environments.AzurePublicName, current.Environment.Name)
		require.Equal(t, "user@contoso.com", current.Account.ID)

		// SetCurrent alone does not touch the persisted default.
		require.Nil(t, h.manager.DefaultSubscription())
	})

	t.Run("SetDefaultPersistsSelection", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Production"})

		_, err := h.manager.SetDefault("Production", "")
		require.NoError(t, err)

		def := h.manager.DefaultSubscription()
		require.NotNil(t, def)
		require.Equal(t, subOne, def.ID)

		h.manager.ClearDefault()
		require.Nil(t, h.manager.DefaultSubscription())
	})

	t.Run("SetCurrentWithExplicitAccount", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "owner@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{ID: subOne, Name: "Shared"})
		h.seedAccount(t, profile.Account{ID: "other@contoso.com", Type: profile.AccountTypeUser})

		sub, err := h.manager.SetCurrent("Shared", "other@contoso.com")
		require.NoError(t, err)
		require.Equal(t, "other@contoso.com", sub.Account)

		// The stored subscription still records its original owner.
		stored, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t, "owner@contoso.com", stored.Account)
	})

	t.Run("UnknownNameFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.SetCurrent("NoSuchSubscription", "")

		var notFound *profile.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestImportPublishSettings(t *testing.T) {
	material := []byte("certificate-material")
	doc := `<?xml version="1.0" encoding="utf-8"?>
<PublishData>
  <PublishProfile Url="https://management.core.windows.net/"
    ManagementCertificate="` + base64.StdEncoding.EncodeToString(material) + `">
    <Subscription Id="` + subOne + `" Name="Legacy One" />
    <Subscription Id="` + subTwo + `" Name="Legacy Two" />
  </PublishProfile>
</PublishData>`

	t.Run("CreatesCertificateAccountAndSubscriptions", func(t *testing.T) {
		h := newTestHarness(t)
		fs := h.store.FileStore()
		require.NoError(t, fs.WriteAll("azure.publishsettings", []byte(doc)))

		imported, err := h.manager.ImportPublishSettings("azure.publishsettings", "")
		require.NoError(t, err)
		require.Len(t, imported, 2)

		sum := sha1.Sum(material)
		thumbprint := hex.EncodeToString(sum[:])

		account, err := h.manager.GetAccount(thumbprint)
		require.NoError(t, err)
		require.Equal(t, profile.AccountTypeCertificate, account.Type)
		require.Equal(t, []string{subOne, subTwo}, account.Subscriptions)

		sub, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t, "Legacy One", sub.Name)
		require.Equal(t, thumbprint, sub.Account)
		require.Equal(t, []string{profile.ModeServiceManagement}, sub.SupportedModes)
		require.Equal(t, environments.AzurePublicName, sub.Environment)
	})

	t.Run("MergesWithExistingSubscription", func(t *testing.T) {
		h := newTestHarness(t)
		h.seedAccount(t,
			profile.Account{ID: "user@contoso.com", Type: profile.AccountTypeUser},
			profile.Subscription{
				ID:             subOne,
				Name:           "Modern Name",
				SupportedModes: []string{profile.ModeResourceManager},
			})

		fs := h.store.FileStore()
		require.NoError(t, fs.WriteAll("azure.publishsettings", []byte(doc)))

		_, err := h.manager.ImportPublishSettings("azure.publishsettings", "")
		require.NoError(t, err)

		sub, err := h.manager.GetSubscription(subOne)
		require.NoError(t, err)
		require.Equal(t,
			[]string{profile.ModeServiceManagement, profile.ModeResourceManager},
			sub.SupportedModes)

		// The merge prefers the incoming version's scalars, so ownership moves
		// to the certificate account.
		sum := sha1.Sum(material)
		require.Equal(t, hex.EncodeToString(sum[:]), sub.Account)
	})

	t.Run("MissingFileFails", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.manager.ImportPublishSettings("missing.publishsettings", "")
		require.ErrorContains(t, err, "does not exist")
	})
}
