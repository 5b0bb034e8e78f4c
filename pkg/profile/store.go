package profile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/azuretools/azprofile/pkg/environments"
)

const (
	// ProfileFileName is the canonical profile file.
	ProfileFileName = "profile.json"

	// LegacySubscriptionsFileName is the pre-versioning store: a flat
	// subscription list with no accounts or environments.
	LegacySubscriptionsFileName = "subscriptions.json"

	currentVersion = 2
)

// Store holds the canonical copies of accounts, subscriptions and
// environments, keyed by identity, plus the persisted default subscription
// reference. A single in-process writer is assumed; callers serialize access.
type Store struct {
	fs  FileStore
	dir string

	accounts      map[string]Account
	subscriptions map[string]Subscription
	environments  map[string]environments.Environment

	defaultSubscriptionID string
}

type profileDocument struct {
	Version             int                        `json:"version"`
	Accounts            []Account                  `json:"accounts,omitempty"`
	Subscriptions       []Subscription             `json:"subscriptions,omitempty"`
	Environments        []environments.Environment `json:"environments,omitempty"`
	DefaultSubscription string                     `json:"defaultSubscription,omitempty"`
}

type legacyDocument struct {
	Version       int            `json:"version,omitempty"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

// Open materializes a store bound to the profile files under dir.
//
// When the legacy single-collection store is found it is migrated exactly
// once: if a current-format store exists side by side its entities take
// precedence on key collision, the now-redundant file is removed, and the
// legacy location is renamed to the canonical one.
func Open(fs FileStore, dir string) (*Store, error) {
	if err := migrateLegacy(fs, dir); err != nil {
		return nil, err
	}

	store := newStore(fs, dir)

	path := filepath.Join(dir, ProfileFileName)
	if fs.Exists(path) {
		data, err := fs.ReadAll(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}

		var doc profileDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing profile: %w", err)
		}

		store.load(doc)
	}

	return store, nil
}

// NewInMemory returns a store with no persistence backing. Save is a no-op
// against a MemoryFileStore scratch location.
func NewInMemory() *Store {
	return newStore(NewMemoryFileStore(), "")
}

func newStore(fs FileStore, dir string) *Store {
	return &Store{
		fs:            fs,
		dir:           dir,
		accounts:      map[string]Account{},
		subscriptions: map[string]Subscription{},
		environments:  map[string]environments.Environment{},
	}
}

func (s *Store) load(doc profileDocument) {
	for _, account := range doc.Accounts {
		s.accounts[foldKey(account.ID)] = account
	}
	for _, sub := range doc.Subscriptions {
		s.subscriptions[foldKey(sub.ID)] = sub
	}
	for _, env := range doc.Environments {
		// The well-known set is materialized from code; persisted copies of
		// public environments must never shadow it.
		if environments.IsPublic(env.Name) {
			continue
		}
		s.environments[foldKey(env.Name)] = env
	}
	s.defaultSubscriptionID = doc.DefaultSubscription
}

// migrateLegacy performs the one-time upgrade from the legacy
// single-collection layout.
func migrateLegacy(fs FileStore, dir string) error {
	legacyPath := filepath.Join(dir, LegacySubscriptionsFileName)
	canonicalPath := filepath.Join(dir, ProfileFileName)

	if !fs.Exists(legacyPath) {
		return nil
	}

	data, err := fs.ReadAll(legacyPath)
	if err != nil {
		return fmt.Errorf("reading legacy profile: %w", err)
	}

	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parsing legacy profile: %w", err)
	}

	merged := profileDocument{
		Version:       currentVersion,
		Subscriptions: legacy.Subscriptions,
	}

	if fs.Exists(canonicalPath) {
		currentData, err := fs.ReadAll(canonicalPath)
		if err != nil {
			return fmt.Errorf("reading profile: %w", err)
		}

		var current profileDocument
		if err := json.Unmarshal(currentData, &current); err != nil {
			return fmt.Errorf("parsing profile: %w", err)
		}

		// Entities from the current-format store take precedence on key
		// collision.
		subs := map[string]Subscription{}
		order := []string{}
		for _, sub := range append(legacy.Subscriptions, current.Subscriptions...) {
			key := foldKey(sub.ID)
			if _, ok := subs[key]; !ok {
				order = append(order, key)
			}
			subs[key] = sub
		}

		merged.Subscriptions = make([]Subscription, 0, len(order))
		for _, key := range order {
			merged.Subscriptions = append(merged.Subscriptions, subs[key])
		}

		merged.Accounts = current.Accounts
		merged.Environments = current.Environments
		merged.DefaultSubscription = current.DefaultSubscription

		if err := fs.Delete(canonicalPath); err != nil {
			return fmt.Errorf("removing redundant profile: %w", err)
		}
	}

	mergedData, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding migrated profile: %w", err)
	}

	if err := fs.WriteAll(legacyPath, mergedData); err != nil {
		return fmt.Errorf("writing migrated profile: %w", err)
	}

	if err := fs.Rename(legacyPath, canonicalPath); err != nil {
		return fmt.Errorf("renaming migrated profile: %w", err)
	}

	return nil
}

// Save persists the store through its FileStore.
func (s *Store) Save() error {
	doc := profileDocument{
		Version:             currentVersion,
		Accounts:            s.ListAccounts(),
		Subscriptions:       s.ListSubscriptions(),
		DefaultSubscription: s.defaultSubscriptionID,
	}

	// Only custom environments are persisted; the well-known public set is
	// materialized from code.
	for _, env := range s.customEnvironments() {
		doc.Environments = append(doc.Environments, env)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if err := s.fs.WriteAll(filepath.Join(s.dir, ProfileFileName), data); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	return nil
}

// FileStore exposes the persistence capability, for operations that need to
// import credential material alongside profile writes.
func (s *Store) FileStore() FileStore {
	return s.fs
}

// Account returns the account stored under id.
func (s *Store) Account(id string) (Account, bool) {
	account, ok := s.accounts[foldKey(id)]
	return account, ok
}

// HasAccount reports whether an account with id exists.
func (s *Store) HasAccount(id string) bool {
	_, ok := s.accounts[foldKey(id)]
	return ok
}

// SetAccount adds or replaces the account keyed by its ID.
func (s *Store) SetAccount(account Account) {
	s.accounts[foldKey(account.ID)] = account
}

// DeleteAccount removes the account stored under id.
func (s *Store) DeleteAccount(id string) {
	delete(s.accounts, foldKey(id))
}

// ListAccounts returns all accounts in stable ID order.
func (s *Store) ListAccounts() []Account {
	accounts := make([]Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return foldKey(accounts[i].ID) < foldKey(accounts[j].ID)
	})
	return accounts
}

// Subscription returns the subscription stored under id.
func (s *Store) Subscription(id string) (Subscription, bool) {
	sub, ok := s.subscriptions[foldKey(id)]
	return sub, ok
}

// HasSubscription reports whether a subscription with id exists.
func (s *Store) HasSubscription(id string) bool {
	_, ok := s.subscriptions[foldKey(id)]
	return ok
}

// SubscriptionByName returns the first subscription whose display name
// matches name, case-insensitively, in stable ID order.
func (s *Store) SubscriptionByName(name string) (Subscription, bool) {
	for _, sub := range s.ListSubscriptions() {
		if strings.EqualFold(sub.Name, name) {
			return sub, true
		}
	}
	return Subscription{}, false
}

// SetSubscription adds or replaces the subscription keyed by its ID.
func (s *Store) SetSubscription(sub Subscription) {
	s.subscriptions[foldKey(sub.ID)] = sub
}

// DeleteSubscription removes the subscription stored under id.
func (s *Store) DeleteSubscription(id string) {
	delete(s.subscriptions, foldKey(id))
}

// ListSubscriptions returns all subscriptions in stable ID order.
func (s *Store) ListSubscriptions() []Subscription {
	subs := make([]Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return foldKey(subs[i].ID) < foldKey(subs[j].ID)
	})
	return subs
}

// Environment returns the environment named name, consulting the well-known
// public set first.
func (s *Store) Environment(name string) (environments.Environment, bool) {
	for _, env := range environments.Public() {
		if strings.EqualFold(env.Name, name) {
			return env, true
		}
	}

	env, ok := s.environments[foldKey(name)]
	return env, ok
}

// HasEnvironment reports whether an environment named name exists.
func (s *Store) HasEnvironment(name string) bool {
	_, ok := s.Environment(name)
	return ok
}

// SetEnvironment adds or replaces a custom environment. The well-known
// public set may never be overwritten.
func (s *Store) SetEnvironment(env environments.Environment) error {
	if environments.IsPublic(env.Name) {
		return &ProtectedResourceError{Name: env.Name}
	}

	s.environments[foldKey(env.Name)] = env
	return nil
}

// DeleteEnvironment removes a custom environment. The well-known public set
// may never be removed.
func (s *Store) DeleteEnvironment(name string) error {
	if environments.IsPublic(name) {
		return &ProtectedResourceError{Name: name}
	}

	delete(s.environments, foldKey(name))
	return nil
}

// ListEnvironments returns the well-known public environments followed by
// custom environments in stable name order.
func (s *Store) ListEnvironments() []environments.Environment {
	all := environments.Public()
	all = append(all, s.customEnvironments()...)
	return all
}

func (s *Store) customEnvironments() []environments.Environment {
	custom := make([]environments.Environment, 0, len(s.environments))
	for _, env := range s.environments {
		custom = append(custom, env)
	}
	sort.Slice(custom, func(i, j int) bool {
		return foldKey(custom[i].Name) < foldKey(custom[j].Name)
	})
	return custom
}

// DefaultSubscriptionID returns the persisted default subscription
// reference, or "" when none is set.
func (s *Store) DefaultSubscriptionID() string {
	return s.defaultSubscriptionID
}

// SetDefaultSubscriptionID records the default subscription reference.
func (s *Store) SetDefaultSubscriptionID(id string) {
	s.defaultSubscriptionID = id
}

func foldKey(key string) string {
	return strings.ToLower(key)
}
