package persist

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/sharedstate/internal/errors"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// SyncOption configures a Sync.
type SyncOption func(*syncConfig)

type syncConfig struct {
	name          string
	logger        *slog.Logger
	timeout       time.Duration
	restore       bool
	restoreNotify bool
	onError       func(error)
}

// WithKey sets the snapshot name. Defaults to the state's name.
func WithKey(name string) SyncOption {
	return func(c *syncConfig) {
		c.name = name
	}
}

// WithLogger sets the logger used for save failures.
func WithLogger(logger *slog.Logger) SyncOption {
	return func(c *syncConfig) {
		c.logger = logger
	}
}

// WithSaveTimeout bounds each background save. Defaults to 10s.
func WithSaveTimeout(d time.Duration) SyncOption {
	return func(c *syncConfig) {
		c.timeout = d
	}
}

// WithoutRestore skips loading the stored snapshot on start.
func WithoutRestore() SyncOption {
	return func(c *syncConfig) {
		c.restore = false
	}
}

// RestoreQuietly restores the stored value without notifying listeners.
func RestoreQuietly() SyncOption {
	return func(c *syncConfig) {
		c.restoreNotify = false
	}
}

// OnError is called with every background save failure.
func OnError(fn func(error)) SyncOption {
	return func(c *syncConfig) {
		c.onError = fn
	}
}

type pendingSave[T any] struct {
	value   T
	version uint64
}

// Sync mirrors a shared state into a Store. Every change is queued and
// written by a single background goroutine; changes that arrive while a
// save is running collapse into one write of the latest value.
type Sync[T any] struct {
	cfg   syncConfig
	store Store
	state *listenable.SharedState[T]
	att   *listenable.Attachment

	mu      sync.Mutex
	pending *pendingSave[T]
	lastErr error

	// saveMu serializes writes so a slow save never lands after a newer one.
	saveMu    sync.Mutex
	lastSaved uint64
	wrote     bool

	kick   chan struct{}
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
	saves  atomic.Int64
}

// Bind restores state from store (unless WithoutRestore is given) and
// starts saving every subsequent change. Call Close to stop.
//
// Example:
//
//	theme := listenable.NewSharedState("light", listenable.WithName("theme"))
//	s, err := persist.Bind(ctx, store, theme)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
func Bind[T any](ctx context.Context, store Store, state *listenable.SharedState[T], opts ...SyncOption) (*Sync[T], error) {
	cfg := syncConfig{
		logger:        slog.Default(),
		timeout:       10 * time.Second,
		restore:       true,
		restoreNotify: true,
	}
	if state != nil {
		cfg.name = state.Name()
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if store == nil || state == nil {
		return nil, errors.New(errors.CodeInvalidUsage).WithDetail("persist.Bind needs a store and a state")
	}
	if !ValidName(cfg.name) {
		return nil, errors.New(errors.CodeInvalidUsage).
			WithDetailf("cannot persist state with name %q", cfg.name).
			WithSuggestion("Name the state with listenable.WithName or pass persist.WithKey").
			Wrap(ErrInvalidName)
	}

	s := &Sync[T]{
		cfg:   cfg,
		store: store,
		state: state,
		kick:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	if cfg.restore {
		if err := s.restore(ctx); err != nil {
			return nil, err
		}
	}

	s.att = listenable.Attach[listenable.Change[T]](state, s.onChange)
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

func (s *Sync[T]) restore(ctx context.Context) error {
	snap, err := s.store.Load(ctx, s.cfg.name)
	if stderrors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var v T
	if err := json.Unmarshal(snap.Data, &v); err != nil {
		return errors.New(errors.CodeSnapshotDecode).
			WithDetailf("snapshot %s (%s) does not decode into the state type", snap.Name, snap.ID).
			Wrap(err)
	}
	s.state.Set(v, listenable.Notify(s.cfg.restoreNotify))
	return nil
}

func (s *Sync[T]) onChange(listenable.Change[T]) {
	v, ver := s.state.Load()
	s.mu.Lock()
	s.pending = &pendingSave[T]{value: v, version: ver}
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Sync[T]) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.kick:
			s.flushPending()
		case <-s.done:
			s.flushPending()
			return
		}
	}
}

func (s *Sync[T]) flushPending() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.timeout)
	defer cancel()
	err := s.save(ctx, p.value, p.version)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		s.cfg.logger.Error("snapshot save failed", "state", s.cfg.name, "version", p.version, "error", err)
		if s.cfg.onError != nil {
			s.cfg.onError(err)
		}
	}
}

// save writes v unless a newer version has already been written.
func (s *Sync[T]) save(ctx context.Context, v T, version uint64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.wrote && version < s.lastSaved {
		s.cfg.logger.Debug("skipping stale snapshot", "state", s.cfg.name, "version", version, "saved", s.lastSaved)
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.New(errors.CodeSnapshotEncode).WithDetailf("state %s", s.cfg.name).Wrap(err)
	}
	err = s.store.Save(ctx, Snapshot{
		ID:      uuid.NewString(),
		Name:    s.cfg.name,
		Version: version,
		SavedAt: time.Now().UTC(),
		Data:    data,
	})
	if err != nil {
		return err
	}
	s.lastSaved, s.wrote = version, true
	s.saves.Add(1)
	return nil
}

// Flush writes the current value synchronously, regardless of whether it
// changed since the last save. It waits for a background save in flight.
func (s *Sync[T]) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	v, ver := s.state.Load()
	s.saveMu.Unlock()
	return s.save(ctx, v, ver)
}

// Name returns the snapshot name.
func (s *Sync[T]) Name() string {
	return s.cfg.name
}

// Saves returns the number of successful writes.
func (s *Sync[T]) Saves() int64 {
	return s.saves.Load()
}

// Err returns the result of the most recent background save.
func (s *Sync[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close detaches from the state, writes any queued change and waits for
// the background goroutine to exit. It is safe to call more than once.
func (s *Sync[T]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.att.Release()
	close(s.done)
	s.wg.Wait()
	return s.Err()
}
