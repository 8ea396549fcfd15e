// Package middleware provides listenable.Instrumentation implementations
// for production observability.
//
// This package includes:
//   - Prometheus metrics for notifications and listener registrations
//   - OpenTelemetry spans around notification passes
//   - Structured logging with log/slog
//
// Install one globally, or chain several:
//
//	reg := prometheus.NewRegistry()
//	listenable.SetDefaultInstrumentation(listenable.Chain(
//	    middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	    middleware.Log(logger),
//	))
//
// or attach one to a single notifier:
//
//	cart := listenable.NewSharedState(Cart{},
//	    listenable.WithName("cart"),
//	    listenable.WithInstrumentation(middleware.Log(logger)),
//	)
//
// # Prometheus Metrics
//
// Metrics are labelled by notifier name, so give notifiers you care about
// a name with listenable.WithName. Unnamed notifiers are grouped under
// "anonymous".
//
// # Panics
//
// Listener panics are observed (counted, recorded on the span, logged at
// Error) and then re-raised, so instrumentation never changes behavior.
package middleware
