// Package reconcile drives the end-to-end refresh of the profile: it
// enumerates accounts and tenants, invokes authentication and the directory
// adapters, merges results into the entity store, and keeps the default and
// current selections consistent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
	"github.com/azuretools/azprofile/pkg/publishsettings"
)

// ErrLoginFailed indicates an interactive login completed without producing
// an identity. No store mutation occurs.
var ErrLoginFailed = errors.New("login did not produce an identity")

const (
	warnRemovedDefault = "The removed subscription was the default subscription. Select a new default subscription."
	warnRemovedCurrent = "The removed subscription was the current subscription. Select a new current subscription."
)

// AccountEnumerator is the directory capability the manager drives; see
// directory.Enumerator.
type AccountEnumerator interface {
	EnumerateAccount(
		ctx context.Context,
		account profile.Account,
		env environments.Environment,
		secret string,
		prompt auth.PromptPolicy,
	) (profile.Account, []profile.Subscription, error)
}

// Manager owns the profile reconciliation operations. A single in-process
// writer is assumed; callers serialize access.
type Manager struct {
	store      *profile.Store
	session    *profile.Session
	enumerator AccountEnumerator
	warn       func(string)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithWarningFunc routes user-facing warnings to fn. Warnings never abort
// the operation that raised them.
func WithWarningFunc(fn func(string)) ManagerOption {
	return func(m *Manager) {
		m.warn = fn
	}
}

// NewManager creates a Manager over the given store and session.
func NewManager(
	store *profile.Store,
	session *profile.Session,
	enumerator AccountEnumerator,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		store:      store,
		session:    session,
		enumerator: enumerator,
		warn:       func(string) {},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Session returns the session context the manager maintains.
func (m *Manager) Session() *profile.Session {
	return m.session
}

// Save persists the store.
func (m *Manager) Save() error {
	return m.store.Save()
}

// Login authenticates the account against the named environment, loads its
// subscriptions from both authorities and merges everything into the store.
// If no default subscription is set afterwards, the first enumerated
// subscription becomes the default. Returns ErrLoginFailed, with zero store
// mutation, when authentication produced no identity.
func (m *Manager) Login(
	ctx context.Context,
	account profile.Account,
	environmentName string,
	secret string,
) (*profile.Account, error) {
	env, err := m.GetEnvironment(environmentName)
	if err != nil {
		return nil, err
	}

	updated, subscriptions, err := m.enumerator.EnumerateAccount(ctx, account, env, secret, auth.PromptAlways)
	if err != nil {
		return nil, err
	}

	if updated.ID == "" {
		return nil, ErrLoginFailed
	}

	merged, err := m.AddOrSetAccount(updated)
	if err != nil {
		return nil, err
	}

	for _, sub := range subscriptions {
		if _, err := m.AddOrSetSubscription(sub); err != nil {
			return nil, err
		}
	}

	// Display names are not unique, so the default is resolved by id.
	if m.store.DefaultSubscriptionID() == "" && len(subscriptions) > 0 {
		if _, err := m.setDefaultByID(subscriptions[0].ID, merged.ID); err != nil {
			return nil, err
		}
	} else if def := m.DefaultSubscription(); def != nil && !m.session.HasSubscription() {
		if _, err := m.installCurrent(*def, ""); err != nil {
			return nil, err
		}
	}

	result, _ := m.store.Account(merged.ID)
	return &result, nil
}

// Refresh re-enumerates subscriptions for every non-certificate account in
// the store. Certificate accounts cannot be refreshed against the
// token-based authorities and are skipped. A refreshed subscription keeps
// its previously recorded owning account; the account itself is
// re-persisted since its tenant cache may have grown.
func (m *Manager) Refresh(ctx context.Context, environmentName string) ([]profile.Subscription, error) {
	env, err := m.GetEnvironment(environmentName)
	if err != nil {
		return nil, err
	}

	for _, account := range m.store.ListAccounts() {
		if account.Type == profile.AccountTypeCertificate {
			continue
		}

		updated, subscriptions, err := m.enumerator.EnumerateAccount(ctx, account, env, "", auth.PromptNever)
		if err != nil {
			return nil, err
		}

		for _, sub := range subscriptions {
			if existing, ok := m.store.Subscription(sub.ID); ok {
				sub.Account = existing.Account
			}
			if _, err := m.AddOrSetSubscription(sub); err != nil {
				return nil, err
			}
		}

		if _, err := m.AddOrSetAccount(updated); err != nil {
			return nil, err
		}
	}

	return m.store.ListSubscriptions(), nil
}

// AddOrSetAccount adds the account, merging with any stored version sharing
// its key.
func (m *Manager) AddOrSetAccount(account profile.Account) (profile.Account, error) {
	if account.ID == "" {
		return profile.Account{}, errors.New("account id needs to be specified")
	}

	if existing, ok := m.store.Account(account.ID); ok {
		merged, err := profile.MergeAccounts(account, existing)
		if err != nil {
			return profile.Account{}, err
		}
		m.store.SetAccount(merged)
	} else {
		m.store.SetAccount(account.Clone())
	}

	stored, _ := m.store.Account(account.ID)
	m.syncSessionAccount(stored)
	return stored, nil
}

// GetAccount returns the account stored under id.
func (m *Manager) GetAccount(id string) (profile.Account, error) {
	account, ok := m.store.Account(id)
	if !ok {
		return profile.Account{}, profile.NewAccountNotFoundError(id)
	}
	return account, nil
}

// GetAccountOrDefault returns the account stored under id, or the session's
// current account when id is empty.
func (m *Manager) GetAccountOrDefault(id string) (profile.Account, error) {
	if id == "" {
		current := m.session.Current()
		if current.Account == nil {
			return profile.Account{}, profile.NewAccountNotFoundError("(current)")
		}
		return *current.Account, nil
	}
	return m.GetAccount(id)
}

// ListAccounts returns all stored accounts in stable ID order.
func (m *Manager) ListAccounts() []profile.Account {
	return m.store.ListAccounts()
}

// RemoveAccount removes the account and cascades: every subscription the
// account owned is handed to a substitute owner when one exists, and removed
// otherwise. A warning is emitted when a removed subscription was the
// default or the current one.
func (m *Manager) RemoveAccount(id string) (profile.Account, error) {
	account, ok := m.store.Account(id)
	if !ok {
		return profile.Account{}, profile.NewAccountNotFoundError(id)
	}

	m.store.DeleteAccount(id)

	for _, subID := range account.Subscriptions {
		sub, ok := m.store.Subscription(subID)
		if !ok || !strings.EqualFold(sub.Account, account.ID) {
			continue
		}

		substitute := m.substituteOwner(sub.ID, account.ID)
		if substitute == nil {
			m.removeOwnedSubscription(sub)
			continue
		}

		sub.Account = substitute.ID
		m.store.SetSubscription(sub)
		m.syncSessionSubscription(sub.ID)
	}

	current := m.session.Current()
	if current.Account != nil && strings.EqualFold(current.Account.ID, account.ID) {
		m.session.Clear()
	}

	return account, nil
}

// substituteOwner finds another account already referencing the
// subscription, preferring non-certificate accounts; ties break on stable
// account ID order. Returns nil when no candidate exists.
func (m *Manager) substituteOwner(subscriptionID, excludeAccountID string) *profile.Account {
	var fallback *profile.Account

	for _, account := range m.store.ListAccounts() {
		if strings.EqualFold(account.ID, excludeAccountID) || !account.HasSubscription(subscriptionID) {
			continue
		}

		if account.Type != profile.AccountTypeCertificate {
			return &account
		}
		if fallback == nil {
			fallback = &account
		}
	}

	return fallback
}

// removeOwnedSubscription drops a subscription during an account removal
// cascade, warning when it was the default or the current one.
func (m *Manager) removeOwnedSubscription(sub profile.Subscription) {
	if strings.EqualFold(m.store.DefaultSubscriptionID(), sub.ID) {
		m.warn(warnRemovedDefault)
		m.store.SetDefaultSubscriptionID("")
	}

	current := m.session.Current()
	if current.Subscription != nil && strings.EqualFold(current.Subscription.ID, sub.ID) {
		m.warn(warnRemovedCurrent)
		m.session.Clear()
	}

	m.store.DeleteSubscription(sub.ID)
}

// AddOrSetSubscription adds the subscription, merging with any stored
// version sharing its key. The owning environment must exist, and a new
// subscription's owning account must exist in the store at the time of the
// write.
func (m *Manager) AddOrSetSubscription(sub profile.Subscription) (profile.Subscription, error) {
	id, err := profile.NormalizeSubscriptionID(sub.ID)
	if err != nil {
		return profile.Subscription{}, err
	}
	sub = sub.Clone()
	sub.ID = id

	if sub.Environment == "" {
		return profile.Subscription{}, errors.New("subscription environment needs to be specified")
	}
	if !m.store.HasEnvironment(sub.Environment) {
		return profile.Subscription{}, profile.NewEnvironmentNotFoundError(sub.Environment)
	}

	if existing, ok := m.store.Subscription(sub.ID); ok {
		merged, err := profile.MergeSubscriptions(sub, existing)
		if err != nil {
			return profile.Subscription{}, err
		}
		m.store.SetSubscription(merged)
	} else {
		if sub.Account == "" {
			return profile.Subscription{}, errors.New("subscription account needs to be specified")
		}
		if !m.store.HasAccount(sub.Account) {
			return profile.Subscription{}, profile.NewAccountNotFoundError(sub.Account)
		}
		m.store.SetSubscription(sub)
	}

	stored, _ := m.store.Subscription(sub.ID)
	m.syncSessionSubscription(stored.ID)
	return stored, nil
}

// GetSubscription returns the subscription stored under id.
func (m *Manager) GetSubscription(id string) (profile.Subscription, error) {
	normalized, err := profile.NormalizeSubscriptionID(id)
	if err != nil {
		return profile.Subscription{}, err
	}

	sub, ok := m.store.Subscription(normalized)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(id)
	}
	return sub, nil
}

// GetSubscriptionByName returns the subscription with the given display
// name, compared case-insensitively.
func (m *Manager) GetSubscriptionByName(name string) (profile.Subscription, error) {
	sub, ok := m.store.SubscriptionByName(name)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(name)
	}
	return sub, nil
}

// ListSubscriptions returns all stored subscriptions in stable ID order.
func (m *Manager) ListSubscriptions() []profile.Subscription {
	return m.store.ListSubscriptions()
}

// RemoveSubscription removes the subscription and cascades: every account
// referencing it is detached, and an account left referencing no
// subscriptions is dropped entirely. Warnings are emitted when the
// subscription was the default or the current one; removing the current
// subscription clears the session.
func (m *Manager) RemoveSubscription(id string) (profile.Subscription, error) {
	normalized, err := profile.NormalizeSubscriptionID(id)
	if err != nil {
		return profile.Subscription{}, err
	}

	sub, ok := m.store.Subscription(normalized)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(id)
	}

	m.removeOwnedSubscription(sub)

	for _, account := range m.store.ListAccounts() {
		if !account.HasSubscription(sub.ID) {
			continue
		}

		account.RemoveSubscription(sub.ID)
		if len(account.Subscriptions) == 0 {
			m.store.DeleteAccount(account.ID)
		} else {
			m.store.SetAccount(account)
		}
	}

	return sub, nil
}

// RemoveSubscriptionByName resolves the display name and removes the
// subscription.
func (m *Manager) RemoveSubscriptionByName(name string) (profile.Subscription, error) {
	sub, ok := m.store.SubscriptionByName(name)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(name)
	}
	return m.RemoveSubscription(sub.ID)
}

// AddOrSetEnvironment adds a custom environment, merging endpoint maps with
// any stored version sharing its name. The well-known public environments
// may never be modified.
func (m *Manager) AddOrSetEnvironment(env environments.Environment) (environments.Environment, error) {
	if env.Name == "" {
		return environments.Environment{}, errors.New("environment name needs to be specified")
	}
	if environments.IsPublic(env.Name) {
		return environments.Environment{}, &profile.ProtectedResourceError{Name: env.Name}
	}

	if existing, ok := m.store.Environment(env.Name); ok {
		merged, err := profile.MergeEnvironments(env, existing)
		if err != nil {
			return environments.Environment{}, err
		}
		if err := m.store.SetEnvironment(merged); err != nil {
			return environments.Environment{}, err
		}
	} else {
		if err := m.store.SetEnvironment(env.Clone()); err != nil {
			return environments.Environment{}, err
		}
	}

	stored, _ := m.store.Environment(env.Name)
	m.syncSessionEnvironment(stored)
	return stored, nil
}

// AddEnvironment adds a custom environment, failing when one with the name
// already exists.
func (m *Manager) AddEnvironment(env environments.Environment) (environments.Environment, error) {
	if env.Name == "" {
		return environments.Environment{}, errors.New("environment name needs to be specified")
	}
	if environments.IsPublic(env.Name) {
		return environments.Environment{}, &profile.ProtectedResourceError{Name: env.Name}
	}
	if m.store.HasEnvironment(env.Name) {
		return environments.Environment{}, &profile.AlreadyExistsError{Kind: "environment", Key: env.Name}
	}

	return m.AddOrSetEnvironment(env)
}

// GetEnvironment returns the environment named name.
func (m *Manager) GetEnvironment(name string) (environments.Environment, error) {
	env, ok := m.store.Environment(name)
	if !ok {
		return environments.Environment{}, profile.NewEnvironmentNotFoundError(name)
	}
	return env, nil
}

// GetEnvironmentOrDefault returns the environment named name, the session's
// current environment when name is empty, or the public cloud as a last
// resort.
func (m *Manager) GetEnvironmentOrDefault(name string) (environments.Environment, error) {
	if name == "" {
		if current := m.session.Current(); current.Environment != nil {
			return *current.Environment, nil
		}
		return environments.AzurePublic(), nil
	}
	return m.GetEnvironment(name)
}

// ListEnvironments returns the well-known public environments followed by
// the stored custom ones.
func (m *Manager) ListEnvironments() []environments.Environment {
	return m.store.ListEnvironments()
}

// RemoveEnvironment removes a custom environment, first cascading removal
// of every subscription it owns. Removing a well-known public environment
// fails with ProtectedResourceError and leaves the store unchanged.
func (m *Manager) RemoveEnvironment(name string) (environments.Environment, error) {
	if name == "" {
		return environments.Environment{}, errors.New("environment name needs to be specified")
	}
	if environments.IsPublic(name) {
		return environments.Environment{}, &profile.ProtectedResourceError{Name: name}
	}

	env, ok := m.store.Environment(name)
	if !ok {
		return environments.Environment{}, profile.NewEnvironmentNotFoundError(name)
	}

	for _, sub := range m.store.ListSubscriptions() {
		if strings.EqualFold(sub.Environment, name) {
			if _, err := m.RemoveSubscription(sub.ID); err != nil {
				return environments.Environment{}, err
			}
		}
	}

	if err := m.store.DeleteEnvironment(name); err != nil {
		return environments.Environment{}, err
	}

	return env, nil
}

// SetCurrent selects the named subscription as the session's current one.
// When accountID is empty the subscription's owning account is used. The
// full triple is installed atomically.
func (m *Manager) SetCurrent(name string, accountID string) (profile.Subscription, error) {
	sub, ok := m.store.SubscriptionByName(name)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(name)
	}

	return m.installCurrent(sub, accountID)
}

// installCurrent resolves the subscription's environment and account and
// installs the full triple atomically.
func (m *Manager) installCurrent(sub profile.Subscription, accountID string) (profile.Subscription, error) {
	env, ok := m.store.Environment(sub.Environment)
	if !ok {
		return profile.Subscription{}, profile.NewEnvironmentNotFoundError(sub.Environment)
	}

	if accountID == "" {
		accountID = sub.Account
	}
	account, err := m.GetAccount(accountID)
	if err != nil {
		return profile.Subscription{}, err
	}

	current := sub.Clone()
	current.Account = account.ID

	envCopy := env.Clone()
	accountCopy := account.Clone()
	m.session.SetCurrent(&current, &envCopy, &accountCopy)

	return current, nil
}

// SetDefault selects the named subscription as current and records it as
// the persisted default.
func (m *Manager) SetDefault(name string, accountID string) (profile.Subscription, error) {
	sub, err := m.SetCurrent(name, accountID)
	if err != nil {
		return profile.Subscription{}, err
	}

	m.store.SetDefaultSubscriptionID(sub.ID)
	return sub, nil
}

// setDefaultByID is SetDefault keyed by subscription id instead of display
// name.
func (m *Manager) setDefaultByID(id string, accountID string) (profile.Subscription, error) {
	sub, ok := m.store.Subscription(id)
	if !ok {
		return profile.Subscription{}, profile.NewSubscriptionNotFoundError(id)
	}

	installed, err := m.installCurrent(sub, accountID)
	if err != nil {
		return profile.Subscription{}, err
	}

	m.store.SetDefaultSubscriptionID(installed.ID)
	return installed, nil
}

// ClearDefault clears the persisted default subscription reference.
func (m *Manager) ClearDefault() {
	m.store.SetDefaultSubscriptionID("")
}

// DefaultSubscription returns the persisted default subscription, or nil
// when none is set or the reference no longer resolves.
func (m *Manager) DefaultSubscription() *profile.Subscription {
	id := m.store.DefaultSubscriptionID()
	if id == "" {
		return nil
	}

	sub, ok := m.store.Subscription(id)
	if !ok {
		return nil
	}
	return &sub
}

// ImportPublishSettings parses subscriptions from a legacy publish settings
// file, synthesizes one certificate account keyed by the file's signing
// thumbprint owning all of them, tags each subscription with the legacy
// authority mode, and merges everything into the store.
func (m *Manager) ImportPublishSettings(path string, environmentName string) ([]profile.Subscription, error) {
	env, err := m.GetEnvironmentOrDefault(environmentName)
	if err != nil {
		return nil, err
	}

	fs := m.store.FileStore()
	if !fs.Exists(path) {
		return nil, fmt.Errorf("publish settings file '%s' does not exist", path)
	}

	data, err := fs.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading publish settings: %w", err)
	}

	imported, err := publishsettings.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(imported) == 0 {
		return nil, nil
	}

	thumbprint, err := fs.ImportCredential(imported[0].ManagementCertificate)
	if err != nil {
		return nil, fmt.Errorf("importing management certificate: %w", err)
	}

	account := profile.Account{
		ID:   thumbprint,
		Type: profile.AccountTypeCertificate,
	}
	for _, sub := range imported {
		id, err := profile.NormalizeSubscriptionID(sub.ID)
		if err != nil {
			return nil, err
		}
		account.AppendSubscription(id)
	}

	if _, err := m.AddOrSetAccount(account); err != nil {
		return nil, err
	}

	results := make([]profile.Subscription, 0, len(imported))
	for _, sub := range imported {
		stored, err := m.AddOrSetSubscription(profile.Subscription{
			ID:             sub.ID,
			Name:           sub.Name,
			Environment:    env.Name,
			Account:        thumbprint,
			SupportedModes: []string{profile.ModeServiceManagement},
		})
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}

	return results, nil
}

// syncSessionSubscription resynchronizes the session after a store mutation
// affecting the current subscription.
func (m *Manager) syncSessionSubscription(id string) {
	current := m.session.Current()
	if current.Subscription == nil || !strings.EqualFold(current.Subscription.ID, id) {
		return
	}

	sub, ok := m.store.Subscription(id)
	if !ok {
		return
	}

	env := *current.Environment
	if stored, ok := m.store.Environment(sub.Environment); ok {
		env = stored.Clone()
	}

	account := current.Account
	if stored, ok := m.store.Account(sub.Account); ok {
		copied := stored.Clone()
		account = &copied
	}

	updated := sub.Clone()
	m.session.SetCurrent(&updated, &env, account)
}

// syncSessionAccount resynchronizes the session after a store mutation
// affecting the current account.
func (m *Manager) syncSessionAccount(account profile.Account) {
	current := m.session.Current()
	if current.Account == nil || !strings.EqualFold(current.Account.ID, account.ID) {
		return
	}

	copied := account.Clone()
	m.session.SetCurrent(current.Subscription, current.Environment, &copied)
}

// syncSessionEnvironment resynchronizes the session after a store mutation
// affecting the current environment.
func (m *Manager) syncSessionEnvironment(env environments.Environment) {
	current := m.session.Current()
	if current.Environment == nil || !strings.EqualFold(current.Environment.Name, env.Name) {
		return
	}

	copied := env.Clone()
	m.session.SetCurrent(current.Subscription, &copied, current.Account)
}
