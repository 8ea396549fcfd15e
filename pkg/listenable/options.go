package listenable

// Option configures a notifier at construction time.
type Option func(*options)

type options struct {
	name        string
	instr       Instrumentation
	notifyOnSet bool
}

func applyOptions(opts []Option) options {
	o := options{notifyOnSet: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName names the notifier. The name shows up in instrumentation,
// the inspector, and persisted snapshot keys.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithInstrumentation attaches instrumentation to a single notifier,
// overriding the package default.
func WithInstrumentation(instr Instrumentation) Option {
	return func(o *options) {
		o.instr = instr
	}
}

// NotifyOnSet sets whether Set and Update notify listeners when the call
// does not say otherwise. The default is true.
// Only ValueNotifier honors this option.
func NotifyOnSet(notify bool) Option {
	return func(o *options) {
		o.notifyOnSet = notify
	}
}

// SetOption adjusts a single Set or Update call.
type SetOption func(*setConfig)

type setConfig struct {
	notify bool
}

// Notify overrides whether this call notifies listeners.
func Notify(notify bool) SetOption {
	return func(c *setConfig) {
		c.notify = notify
	}
}

// Quietly updates the value without notifying listeners.
func Quietly() SetOption {
	return Notify(false)
}
