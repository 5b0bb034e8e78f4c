package profile

import "fmt"

// NotFoundError indicates a lookup for an unknown account, subscription or
// environment. The profile is left unchanged.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' does not exist", e.Kind, e.Key)
}

// NewAccountNotFoundError returns a NotFoundError for an account key.
func NewAccountNotFoundError(id string) error {
	return &NotFoundError{Kind: "account", Key: id}
}

// NewSubscriptionNotFoundError returns a NotFoundError for a subscription key.
func NewSubscriptionNotFoundError(id string) error {
	return &NotFoundError{Kind: "subscription", Key: id}
}

// NewEnvironmentNotFoundError returns a NotFoundError for an environment name.
func NewEnvironmentNotFoundError(name string) error {
	return &NotFoundError{Kind: "environment", Key: name}
}

// AlreadyExistsError indicates an add of an entity whose key is already
// present where replacement is not permitted.
type AlreadyExistsError struct {
	Kind string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Kind, e.Key)
}

// IdentityMismatchError indicates an attempt to merge two entities that do
// not share the same identity key (or, for accounts, the same type).
type IdentityMismatchError struct {
	Kind string
	A    string
	B    string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("cannot merge %ss with mismatched identities '%s' and '%s'", e.Kind, e.A, e.B)
}

// ProtectedResourceError indicates an attempted mutation of a well-known
// public environment.
type ProtectedResourceError struct {
	Name string
}

func (e *ProtectedResourceError) Error() string {
	return fmt.Sprintf("environment '%s' is built-in and cannot be modified or removed", e.Name)
}
