package profile

import (
	"go.uber.org/atomic"

	"github.com/azuretools/azprofile/pkg/environments"
)

// Current is the selected (subscription, environment, account) triple. It is
// either fully populated or fully empty.
type Current struct {
	Subscription *Subscription
	Environment  *environments.Environment
	Account      *Account
}

// Session is the process-wide current selection. The triple is published
// atomically: readers observe either the previous triple or the new one,
// never a partial update. The session holds working copies, independent of
// the store's canonical entities; callers resynchronize it after mutating
// the active entity.
type Session struct {
	current atomic.Pointer[Current]
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.current.Store(&Current{})
	return s
}

// Current returns the selected triple.
func (s *Session) Current() Current {
	return *s.current.Load()
}

// SetCurrent atomically installs the full triple.
func (s *Session) SetCurrent(sub *Subscription, env *environments.Environment, account *Account) {
	s.current.Store(&Current{
		Subscription: sub,
		Environment:  env,
		Account:      account,
	})
}

// Clear resets the session to empty.
func (s *Session) Clear() {
	s.current.Store(&Current{})
}

// HasSubscription reports whether a subscription is selected.
func (s *Session) HasSubscription() bool {
	return s.current.Load().Subscription != nil
}
