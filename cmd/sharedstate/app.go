package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/sharedstate/internal/config"
	"github.com/vango-dev/sharedstate/internal/errors"
	"github.com/vango-dev/sharedstate/pkg/binding"
	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/devtools"
	"github.com/vango-dev/sharedstate/pkg/listenable"
	"github.com/vango-dev/sharedstate/pkg/middleware"
	"github.com/vango-dev/sharedstate/pkg/persist"
)

// counterContext hands the shared counter to the buttons below the board.
var counterContext = binding.NewSharedStateContext(listenable.NewSharedState(0))

// app wires the demo states, the runtime and the optional outer stack.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	level    *slog.LevelVar
	registry *prometheus.Registry
	runtime  *component.Runtime

	counter *listenable.SharedState[int]
	theme   *listenable.SharedState[string]
	clicks  *listenable.ChangeNotifier

	buttons []*button
	log     *component.Component
	syncs   []io.Closer
}

type button struct {
	name   string
	filter binding.ShouldUpdate[int]
	c      *component.Component
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), level
	}
	return slog.New(slog.NewTextHandler(w, opts)), level
}

func newApp(ctx context.Context, cfg *config.Config, logw io.Writer) (*app, error) {
	logger, level := newLogger(cfg, logw)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		level:    level,
		registry: prometheus.NewRegistry(),
	}

	a.runtime = component.NewRuntime(
		component.WithLogger(logger),
		component.WithDebug(cfg.Runtime.Debug),
		component.WithMaxFlushPasses(cfg.Runtime.MaxFlushPasses),
		component.WithDispatchQueue(cfg.Runtime.DispatchQueue),
	)

	instr := a.instrumentation()
	a.counter = listenable.NewSharedState(0, listenable.WithName("counter"), listenable.WithInstrumentation(instr))
	a.theme = listenable.NewSharedState("light", listenable.WithName("theme"), listenable.WithInstrumentation(instr))
	a.clicks = listenable.NewChangeNotifier(listenable.WithName("clicks"), listenable.WithInstrumentation(instr))

	if err := a.bindPersistence(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) instrumentation() listenable.Instrumentation {
	instrs := []listenable.Instrumentation{middleware.Log(a.logger)}
	if a.cfg.Metrics.Prometheus {
		instrs = append(instrs, middleware.Prometheus(
			middleware.WithRegistry(a.registry),
			middleware.WithNamespace(a.cfg.Metrics.Namespace),
		))
	}
	if a.cfg.Metrics.Tracing {
		instrs = append(instrs, middleware.OpenTelemetry())
	}
	return listenable.Chain(instrs...)
}

func (a *app) store() (persist.Store, error) {
	p := a.cfg.Persist
	switch p.Backend {
	case config.BackendMemory:
		return persist.NewMemoryStore(), nil
	case config.BackendDisk:
		return persist.NewDiskStore(a.cfg.PersistPath())
	case config.BackendS3:
		return persist.NewS3Store(newS3Client(p.Region), p.Bucket, p.Prefix), nil
	}
	return nil, nil
}

// newS3Client builds a client from the standard AWS environment variables.
func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New(errors.CodeConfigInvalid).
				WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 backend")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	})
	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	})
}

func (a *app) bindPersistence(ctx context.Context) error {
	store, err := a.store()
	if err != nil || store == nil {
		return err
	}

	counter, err := persist.Bind(ctx, store, a.counter, persist.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.syncs = append(a.syncs, counter)

	theme, err := persist.Bind(ctx, store, a.theme, persist.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.syncs = append(a.syncs, theme)
	return nil
}

// mount renders the board: three buttons sharing the counter through
// context, each with its own update filter, plus a click log.
func (a *app) mount() {
	counterContext.Provide(a.runtime.Root().Owner(), a.counter)

	a.buttons = []*button{
		{name: "always", filter: binding.Always[int]()},
		{name: "never", filter: binding.Never[int]()},
		{name: "even", filter: binding.When(func(current, _ int) bool { return current%2 == 0 })},
	}

	a.runtime.Act(func() {
		for _, b := range a.buttons {
			b.c = a.runtime.Mount(nil, func(o *component.Owner) any {
				state := binding.UseSharedStateContext(o, counterContext, b.filter)
				theme, _ := binding.UseSharedState(o, a.theme)
				return fmt.Sprintf("[%s] %s: %d", theme, b.name, state.Value())
			})
		}

		a.log = a.runtime.Mount(nil, func(o *component.Owner) any {
			count := component.UseRef(o, 0)
			rerender := component.UseRerender(o)
			binding.UseListen[struct{}](o, a.clicks, func(struct{}) {
				count.Set(count.Current() + 1)
				rerender()
			})
			return fmt.Sprintf("clicks: %d", count.Current())
		})
	})
}

// click increments the counter and announces the click. It must run on
// the runtime goroutine.
func (a *app) click() {
	a.counter.Update(func(n int) int { return n + 1 })
	a.clicks.NotifyListeners()
}

func (a *app) inspector() (*devtools.Inspector, error) {
	opts := []devtools.Option{
		devtools.WithLogger(a.logger),
		devtools.WithDispatcher(a.runtime),
		devtools.WithGatherer(a.registry),
	}
	if a.cfg.Inspector.ReadOnly {
		opts = append(opts, devtools.WithReadOnly())
	}
	insp := devtools.New(opts...)
	if err := devtools.Register(insp, a.counter); err != nil {
		return nil, err
	}
	if err := devtools.Register(insp, a.theme); err != nil {
		return nil, err
	}
	return insp, nil
}

// Close stops persistence, flushing queued writes.
func (a *app) Close() error {
	var first error
	for _, s := range a.syncs {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.syncs = nil
	return first
}
