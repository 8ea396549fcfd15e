// Package listenable provides the observable core for shared state.
//
// A Notifier keeps an ordered list of listeners and calls each of them,
// in registration order, when NotifyListeners is invoked. Two
// specializations cover the common cases:
//
//	clicks := &listenable.ChangeNotifier{}
//	clicks.OnChange(func() { fmt.Println("clicked") })
//	clicks.NotifyListeners()
//
//	count := listenable.NewValueNotifier(0)
//	count.OnChange(func(current, previous int) {
//	    fmt.Println(previous, "->", current)
//	})
//	count.Set(1)                                      // prints 0 -> 1
//	count.Update(func(n int) int { return n + 1 })    // prints 1 -> 2
//	count.Set(5, listenable.Quietly())                // no notification
//
// SharedState is an alias of ValueNotifier. A *SharedState is meant to be
// created once by the application and handed by reference to every
// component that observes it; two components holding the same pointer see
// the same value.
//
// # Subscriptions
//
// Go functions are not comparable, so a registration is identified by the
// *Subscription returned from AddListener rather than by the function
// value. Adding the same function twice yields two independent
// subscriptions. Removing a subscription that is nil, unknown, or already
// removed does nothing.
//
// # Notification Semantics
//
// NotifyListeners iterates a snapshot of the registry taken when the call
// starts. A listener removed while the pass is running is skipped if its
// turn has not come yet; a listener added during the pass is first called
// on the next notification. Set and Update never compare values: every
// notifying call fires, which allows "refresh" semantics.
//
// A listener that panics aborts the remaining listeners of that pass and
// the panic propagates to whoever called Set, Update, or NotifyListeners.
//
// # Thread Safety
//
// All types are safe for concurrent use. No lock is held while listeners
// run, so listeners may freely add or remove listeners and set values.
package listenable
