package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// Logging is a listenable.Instrumentation that writes structured logs.
type Logging struct {
	logger *slog.Logger
	level  slog.Level
}

// LoggingOption configures Logging.
type LoggingOption func(*Logging)

// WithLevel sets the level for routine records (default: Debug).
// Listener panics are always logged at Error.
func WithLevel(level slog.Level) LoggingOption {
	return func(l *Logging) {
		l.level = level
	}
}

// Log creates a logging instrumentation. If logger is nil, slog.Default()
// is used.
func Log(logger *slog.Logger, opts ...LoggingOption) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Logging{logger: logger, level: slog.LevelDebug}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListenerAdded implements listenable.Instrumentation.
func (l *Logging) ListenerAdded(info listenable.Info) {
	l.logger.Log(context.Background(), l.level, "listener added", infoAttrs(info)...)
}

// ListenerRemoved implements listenable.Instrumentation.
func (l *Logging) ListenerRemoved(info listenable.Info) {
	l.logger.Log(context.Background(), l.level, "listener removed", infoAttrs(info)...)
}

// Notify implements listenable.Instrumentation.
func (l *Logging) Notify(info listenable.Info, dispatch func()) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("listener panicked",
				append(infoAttrs(info), "panic", r, "duration", time.Since(start))...)
			panic(r)
		}
	}()

	dispatch()
	l.logger.Log(context.Background(), l.level, "notified listeners",
		append(infoAttrs(info), "duration", time.Since(start))...)
}

func infoAttrs(info listenable.Info) []any {
	return []any{
		"notifier", notifierLabel(info),
		"id", info.ID,
		"listeners", info.Listeners,
	}
}
