package devtools

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/sharedstate/internal/errors"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// Dispatcher runs fn on the goroutine that owns rendering.
// *component.Runtime implements it.
type Dispatcher interface {
	Dispatch(fn func())
}

// StateInfo describes one registered state.
type StateInfo struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Version   uint64          `json:"version"`
	Value     json.RawMessage `json:"value"`
	ReadOnly  bool            `json:"readOnly,omitempty"`
	Listeners int             `json:"listeners"`
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithDispatcher routes writes from the HTTP API through d, so that
// values change on the rendering goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(i *Inspector) {
		i.dispatcher = d
	}
}

// WithGatherer exposes g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(i *Inspector) {
		i.gatherer = g
	}
}

// WithReadOnly rejects every write from the HTTP API.
func WithReadOnly() Option {
	return func(i *Inspector) {
		i.readOnly = true
	}
}

type entry interface {
	info() (StateInfo, error)
	decode(raw []byte) (apply func(), err error)
	readOnly() bool
	release()
}

// Inspector exposes named shared states over HTTP and streams their
// changes to WebSocket clients.
type Inspector struct {
	logger     *slog.Logger
	dispatcher Dispatcher
	gatherer   prometheus.Gatherer
	readOnly   bool

	mu      sync.RWMutex
	entries map[string]entry

	hub *hub
}

// New creates an Inspector with no registered states.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		logger:  slog.Default(),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.hub = newHub(i.logger)
	return i
}

// RegisterOption configures Register.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	name     string
	readOnly bool
}

// As registers the state under name instead of its own name.
func As(name string) RegisterOption {
	return func(c *registerConfig) {
		c.name = name
	}
}

// ReadOnly rejects writes to this state from the HTTP API.
func ReadOnly() RegisterOption {
	return func(c *registerConfig) {
		c.readOnly = true
	}
}

// Register makes state visible to the inspector. Values are encoded with
// encoding/json, so T should be JSON friendly.
//
// Example:
//
//	count := listenable.NewSharedState(0, listenable.WithName("count"))
//	if err := devtools.Register(insp, count); err != nil {
//	    return err
//	}
func Register[T any](insp *Inspector, state *listenable.SharedState[T], opts ...RegisterOption) error {
	if state == nil {
		return errors.New(errors.CodeInvalidUsage).WithDetail("devtools.Register needs a state")
	}
	cfg := registerConfig{name: state.Name()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		return errors.New(errors.CodeInvalidUsage).
			WithDetail("cannot register an unnamed state").
			WithSuggestion("Name the state with listenable.WithName or pass devtools.As")
	}

	insp.mu.Lock()
	defer insp.mu.Unlock()
	if _, ok := insp.entries[cfg.name]; ok {
		return errors.New(errors.CodeDuplicateState).WithDetailf("state %q is already registered", cfg.name)
	}

	e := &stateEntry[T]{name: cfg.name, state: state, ro: cfg.readOnly}
	e.att = listenable.Attach[listenable.Change[T]](state, func(listenable.Change[T]) {
		insp.publishChange(e)
	})
	insp.entries[cfg.name] = e
	return nil
}

// Unregister removes the state registered under name.
func (i *Inspector) Unregister(name string) bool {
	i.mu.Lock()
	e, ok := i.entries[name]
	delete(i.entries, name)
	i.mu.Unlock()
	if !ok {
		return false
	}
	e.release()
	i.hub.broadcast(Event{Type: EventRemoved, State: name})
	return true
}

// Names returns the registered state names, sorted.
func (i *Inspector) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.entries))
	for name := range i.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// States returns a description of every registered state, sorted by name.
func (i *Inspector) States() []StateInfo {
	i.mu.RLock()
	entries := make([]entry, 0, len(i.entries))
	for _, e := range i.entries {
		entries = append(entries, e)
	}
	i.mu.RUnlock()

	out := make([]StateInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.info()
		if err != nil {
			i.logger.Warn("cannot encode state", "state", info.Name, "error", err)
			continue
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b StateInfo) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// State describes the state registered under name.
func (i *Inspector) State(name string) (StateInfo, error) {
	e, err := i.lookup(name)
	if err != nil {
		return StateInfo{}, err
	}
	return e.info()
}

func (i *Inspector) lookup(name string) (entry, error) {
	i.mu.RLock()
	e, ok := i.entries[name]
	i.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeUnknownState).WithDetailf("no state named %q", name)
	}
	return e, nil
}

// ClientCount returns the number of connected WebSocket clients.
func (i *Inspector) ClientCount() int {
	return i.hub.count()
}

// Close releases every registration and disconnects all clients.
func (i *Inspector) Close() {
	i.mu.Lock()
	entries := i.entries
	i.entries = make(map[string]entry)
	i.mu.Unlock()

	for _, e := range entries {
		e.release()
	}
	i.hub.close()
}

func (i *Inspector) publishChange(e entry) {
	if i.hub.count() == 0 {
		return
	}
	info, err := e.info()
	if err != nil {
		i.logger.Warn("cannot encode state change", "state", info.Name, "error", err)
		return
	}
	i.hub.broadcast(Event{Type: EventChange, State: info.Name, Version: info.Version, Value: info.Value})
}

type stateEntry[T any] struct {
	name  string
	state *listenable.SharedState[T]
	ro    bool
	att   *listenable.Attachment
}

func (e *stateEntry[T]) info() (StateInfo, error) {
	v, version := e.state.Load()
	info := StateInfo{
		Name:      e.name,
		Type:      reflect.TypeFor[T]().String(),
		Version:   version,
		ReadOnly:  e.ro,
		Listeners: e.state.ListenerCount(),
	}
	data, err := json.Marshal(v)
	if err != nil {
		return info, errors.New(errors.CodeInvalidPayload).WithDetailf("state %q", e.name).Wrap(err)
	}
	info.Value = data
	return info, nil
}

func (e *stateEntry[T]) decode(raw []byte) (func(), error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, errors.New(errors.CodeInvalidPayload).
			WithDetailf("value does not decode into %s", reflect.TypeFor[T]()).
			Wrap(err)
	}
	return func() { e.state.Set(v) }, nil
}

func (e *stateEntry[T]) readOnly() bool {
	return e.ro
}

func (e *stateEntry[T]) release() {
	e.att.Release()
}
