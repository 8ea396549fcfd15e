package listenable

import "sync/atomic"

// Subscription identifies a single listener registration.
// It is returned by AddListener and is the only handle that can remove
// that registration again.
type Subscription struct {
	id      uint64
	removed atomic.Bool

	// detach removes this subscription from the registry it belongs to.
	detach func(*Subscription)
}

func newSubscription(detach func(*Subscription)) *Subscription {
	return &Subscription{
		id:     nextID(),
		detach: detach,
	}
}

// ID returns the unique identifier of this subscription.
func (s *Subscription) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Active reports whether the subscription is still registered.
func (s *Subscription) Active() bool {
	return s != nil && !s.removed.Load()
}

// Unsubscribe removes the registration. It is equivalent to calling
// RemoveListener on the owning notifier and may be called any number of
// times.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.detach == nil {
		return
	}
	s.detach(s)
}
