package listenable

// ChangeNotifier signals "something changed" without a payload.
// The zero value is ready to use.
type ChangeNotifier struct {
	Notifier[struct{}]
}

// NewChangeNotifier creates a named or instrumented ChangeNotifier.
func NewChangeNotifier(opts ...Option) *ChangeNotifier {
	c := &ChangeNotifier{}
	c.configure(opts)
	return c
}

// NotifyListeners calls every registered listener.
func (c *ChangeNotifier) NotifyListeners() {
	c.Notifier.NotifyListeners(struct{}{})
}

// OnChange registers a payload-free callback.
func (c *ChangeNotifier) OnChange(fn func()) *Subscription {
	if fn == nil {
		return nil
	}
	return c.AddListener(func(struct{}) { fn() })
}
