package middleware

import (
	"context"
	"fmt"

	"github.com/vango-dev/sharedstate/pkg/listenable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "sharedstate"

// OTelConfig configures the OpenTelemetry instrumentation.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "sharedstate").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Context is the parent context of every span.
	// Default: context.Background().
	Context context.Context

	// Filter determines which notifications to trace.
	// If nil, all notifications are traced.
	Filter func(info listenable.Info) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(info listenable.Info) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry instrumentation.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithContext sets the parent context for spans.
func WithContext(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = ctx
	}
}

// WithNotifyFilter sets a filter function for notifications.
func WithNotifyFilter(filter func(info listenable.Info) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(info listenable.Info) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing is a listenable.Instrumentation that wraps each notification
// pass in a span.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer
}

// OpenTelemetry creates an instrumentation that starts one internal span
// per notification pass, named "sharedstate.notify <name>", with the
// notifier id, name and listener count as attributes. A panicking
// listener is recorded as a span error and the panic continues.
//
// Example:
//
//	otel.SetTracerProvider(tp)
//	listenable.SetDefaultInstrumentation(middleware.OpenTelemetry())
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Tracing{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// ListenerAdded implements listenable.Instrumentation. Registration
// changes are added as events to the active span, if any.
func (t *Tracing) ListenerAdded(info listenable.Info) {
	t.event("listener.added", info)
}

// ListenerRemoved implements listenable.Instrumentation.
func (t *Tracing) ListenerRemoved(info listenable.Info) {
	t.event("listener.removed", info)
}

func (t *Tracing) event(name string, info listenable.Info) {
	span := trace.SpanFromContext(t.config.Context)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(
		attribute.Int64("sharedstate.notifier.id", int64(info.ID)),
		attribute.Int("sharedstate.listeners", info.Listeners),
	))
}

// Notify implements listenable.Instrumentation.
func (t *Tracing) Notify(info listenable.Info, dispatch func()) {
	if t.config.Filter != nil && !t.config.Filter(info) {
		dispatch()
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("sharedstate.notifier.id", int64(info.ID)),
		attribute.String("sharedstate.notifier.name", info.Name),
		attribute.Int("sharedstate.listeners", info.Listeners),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(info)...)
	}

	_, span := t.tracer.Start(t.config.Context, spanName(info),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("listener panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(r)
		}
	}()

	dispatch()
	span.SetStatus(codes.Ok, "")
}

func spanName(info listenable.Info) string {
	if info.Name == "" {
		return "sharedstate.notify"
	}
	return "sharedstate.notify " + info.Name
}
