// Package directory queries the two remote subscription-listing authorities
// (the legacy Service Management surface and the Resource Manager surface)
// and normalizes their results into the profile's subscription shape.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/azuretools/azprofile/pkg/auth"
	"github.com/azuretools/azprofile/pkg/environments"
	"github.com/azuretools/azprofile/pkg/profile"
)

// SubscriptionInfo is the common shape both authorities are normalized into.
type SubscriptionInfo struct {
	ID          string
	DisplayName string
	TenantID    string
}

// TenantLister enumerates the tenants visible to a token.
type TenantLister interface {
	ListTenants(ctx context.Context, token auth.Token, env environments.Environment) ([]string, error)
}

// SubscriptionLister enumerates the subscriptions visible to a token within
// one tenant.
type SubscriptionLister interface {
	// Mode identifies the authority for the SupportedModes tag.
	Mode() string
	ListSubscriptions(ctx context.Context, token auth.Token, env environments.Environment) ([]SubscriptionInfo, error)
}

// RemoteError classifies a failed call to a subscription authority. It is
// recoverable per tenant: enumeration continues for the remaining tenants.
type RemoteError struct {
	Authority string
	innerErr  error
}

// NewRemoteError wraps err as a remote-call failure against authority.
func NewRemoteError(authority string, err error) error {
	return &RemoteError{Authority: authority, innerErr: err}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("calling %s: %s", e.Authority, e.innerErr.Error())
}

func (e *RemoteError) Unwrap() error {
	return e.innerErr
}

// Enumerator drives tenant discovery and per-tenant subscription listing for
// one account, isolating per-tenant failures.
type Enumerator struct {
	authenticator auth.Authenticator
	tenants       TenantLister
	listers       []SubscriptionLister
	warn          func(string)
}

// EnumeratorOption configures an Enumerator.
type EnumeratorOption func(*Enumerator)

// WithWarningFunc routes user-facing warnings (for example a canceled
// interactive login) to fn.
func WithWarningFunc(fn func(string)) EnumeratorOption {
	return func(e *Enumerator) {
		e.warn = fn
	}
}

// NewEnumerator creates an Enumerator querying the given listers, in order,
// for each tenant.
func NewEnumerator(
	authenticator auth.Authenticator,
	tenants TenantLister,
	listers []SubscriptionLister,
	opts ...EnumeratorOption,
) *Enumerator {
	e := &Enumerator{
		authenticator: authenticator,
		tenants:       tenants,
		listers:       listers,
		warn:          func(string) {},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EnumerateAccount authenticates the account and lists its subscriptions
// across all tenants and both authorities.
//
// The tenant set is looked up once and cached on the returned account; an
// account that already carries tenants is not re-discovered. Per-tenant
// authentication and listing failures are classified: AuthFailedError and
// RemoteError are logged at debug level, AuthCanceledError is surfaced as a
// warning, and in all three cases enumeration continues with the empty set
// for that tenant. Any other error aborts and propagates unmodified.
//
// The returned account is a new value carrying the discovered identity,
// tenant cache and subscription references; the input is not mutated.
func (e *Enumerator) EnumerateAccount(
	ctx context.Context,
	account profile.Account,
	env environments.Environment,
	secret string,
	prompt auth.PromptPolicy,
) (profile.Account, []profile.Subscription, error) {
	account = account.Clone()

	if len(account.Tenants) == 0 {
		updated, err := e.loadTenants(ctx, account, env, secret, prompt)
		if err != nil {
			if handleErr := e.classify(err, account.ID, environments.CommonTenant); handleErr != nil {
				return profile.Account{}, nil, handleErr
			}
			return account, nil, nil
		}
		account = updated
	}

	var tenantErrs []error
	listings := make([][]profile.Subscription, len(e.listers))

	for i, lister := range e.listers {
		for _, tenantID := range account.Tenants {
			subs, err := e.listTenant(ctx, lister, account, env, tenantID, secret)
			if err != nil {
				if handleErr := e.classify(err, account.ID, tenantID); handleErr != nil {
					return profile.Account{}, nil, handleErr
				}
				tenantErrs = append(tenantErrs, err)
				continue
			}
			listings[i] = append(listings[i], subs...)
		}
	}

	if len(tenantErrs) > 0 {
		log.Printf("partial enumeration for account '%s': %v", account.ID, multierr.Combine(tenantErrs...))
	}

	merged := []profile.Subscription{}
	for _, listing := range listings {
		var err error
		merged, err = profile.MergeSubscriptionLists(merged, listing)
		if err != nil {
			return profile.Account{}, nil, err
		}
	}

	for i := range merged {
		merged[i].Environment = env.Name
		merged[i].Account = account.ID
		account.AppendSubscription(merged[i].ID)
	}

	return account, merged, nil
}

func (e *Enumerator) loadTenants(
	ctx context.Context,
	account profile.Account,
	env environments.Environment,
	secret string,
	prompt auth.PromptPolicy,
) (profile.Account, error) {
	token, updated, err := e.authenticator.Authenticate(
		ctx, account, env, environments.CommonTenant, secret, prompt)
	if err != nil {
		return profile.Account{}, err
	}

	var tenantIDs []string
	err = retryTransient(ctx, func(ctx context.Context) error {
		result, err := e.tenants.ListTenants(ctx, token, env)
		if err != nil {
			return err
		}
		tenantIDs = result
		return nil
	})
	if err != nil {
		return profile.Account{}, err
	}

	for _, tenantID := range tenantIDs {
		appendFold(&updated.Tenants, tenantID)
	}

	return updated, nil
}

func (e *Enumerator) listTenant(
	ctx context.Context,
	lister SubscriptionLister,
	account profile.Account,
	env environments.Environment,
	tenantID string,
	secret string,
) ([]profile.Subscription, error) {
	token, _, err := e.authenticator.Authenticate(ctx, account, env, tenantID, secret, auth.PromptNever)
	if err != nil {
		return nil, err
	}

	var infos []SubscriptionInfo
	err = retryTransient(ctx, func(ctx context.Context) error {
		result, err := lister.ListSubscriptions(ctx, token, env)
		if err != nil {
			return err
		}
		infos = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	subs := make([]profile.Subscription, 0, len(infos))
	for _, info := range infos {
		id, err := profile.NormalizeSubscriptionID(info.ID)
		if err != nil {
			log.Printf("skipping malformed subscription from %s: %v", lister.Mode(), err)
			continue
		}

		subTenant := info.TenantID
		if subTenant == "" {
			subTenant = tenantID
		}

		subs = append(subs, profile.Subscription{
			ID:             id,
			Name:           info.DisplayName,
			SupportedModes: []string{lister.Mode()},
			Tenants:        []string{subTenant},
		})
	}

	return subs, nil
}

// classify decides what happens to an enumeration failure. A nil return
// means the failure was recoverable and has been reported; a non-nil return
// must propagate to the caller unmodified.
func (e *Enumerator) classify(err error, accountID, tenantID string) error {
	var authFailed *auth.AuthFailedError
	var canceled *auth.AuthCanceledError
	var remote *RemoteError

	switch {
	case errors.As(err, &authFailed):
		log.Printf("account '%s', tenant '%s': %v", accountID, tenantID, err)
		return nil
	case errors.As(err, &canceled):
		e.warn(err.Error())
		return nil
	case errors.As(err, &remote):
		log.Printf("account '%s', tenant '%s': %v", accountID, tenantID, err)
		return nil
	default:
		return err
	}
}

func retryTransient(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond)),
		func(ctx context.Context) error {
			err := fn(ctx)
			var remote *RemoteError
			if errors.As(err, &remote) {
				return retry.RetryableError(err)
			}
			return err
		})
}

func appendFold(values *[]string, value string) {
	for _, existing := range *values {
		if strings.EqualFold(existing, value) {
			return
		}
	}
	*values = append(*values, value)
}
