// Package logging builds the zap logger and adapts it to the admin
// telemetry, refresh, and migration logging seams.
package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/internal/config"
	"github.com/goliatone/go-messmass/pkg/activity"
)

// New builds a JSON production logger or a console development logger at
// the configured level.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Telemetry records admin telemetry events as structured log entries.
type Telemetry struct {
	logger *zap.Logger
}

var _ admin.Telemetry = (*Telemetry)(nil)

// NewTelemetry wraps logger. A nil logger discards events.
func NewTelemetry(logger *zap.Logger) *Telemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telemetry{logger: logger.Named("telemetry")}
}

// Record logs event with payload keys as fields, in key order, plus the
// actor carried by ctx.
func (t *Telemetry) Record(ctx context.Context, event string, payload map[string]any) {
	fields := make([]zap.Field, 0, len(payload)+2)
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, zap.Any(key, payload[key]))
	}
	if meta := admin.ActivityFromContext(ctx); meta.ActorID != "" {
		fields = append(fields, zap.String("actor_id", meta.ActorID))
		if meta.TenantID != "" {
			fields = append(fields, zap.String("tenant_id", meta.TenantID))
		}
	}
	t.logger.Info(event, fields...)
}

// RefreshLogger logs every entity change at debug level.
type RefreshLogger struct {
	logger *zap.Logger
}

var _ admin.RefreshHook = (*RefreshLogger)(nil)

// NewRefreshLogger wraps logger.
func NewRefreshLogger(logger *zap.Logger) *RefreshLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshLogger{logger: logger.Named("refresh")}
}

// EntityChanged logs the event and never fails.
func (r *RefreshLogger) EntityChanged(_ context.Context, event admin.EntityEvent) error {
	r.logger.Debug("entity changed",
		zap.String("kind", event.Kind),
		zap.String("id", event.ID),
		zap.String("reason", event.Reason),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

// GooseLogger routes goose migration output through zap.
type GooseLogger struct {
	sugar *zap.SugaredLogger
}

// NewGooseLogger wraps logger.
func NewGooseLogger(logger *zap.Logger) *GooseLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GooseLogger{sugar: logger.Named("migrate").Sugar()}
}

// Printf logs progress at info level.
func (g *GooseLogger) Printf(format string, v ...any) {
	g.sugar.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. Migration failures are returned as errors, so
// the process is not terminated here.
func (g *GooseLogger) Fatalf(format string, v ...any) {
	g.sugar.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// ActivityLogger is an activity hook that writes operator actions to the
// audit log.
type ActivityLogger struct {
	logger *zap.Logger
}

var _ activity.Hook = (*ActivityLogger)(nil)

// NewActivityLogger wraps logger.
func NewActivityLogger(logger *zap.Logger) *ActivityLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLogger{logger: logger.Named("activity")}
}

// Notify logs evt. Invalid events are dropped.
func (a *ActivityLogger) Notify(_ context.Context, evt activity.Event) error {
	evt = activity.NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = activity.DefaultChannel
	}
	a.logger.Info(evt.Verb,
		zap.String("object_type", evt.ObjectType),
		zap.String("object_id", evt.ObjectID),
		zap.String("actor_id", evt.ActorID),
		zap.String("tenant_id", evt.TenantID),
		zap.String("channel", evt.Channel),
		zap.Any("metadata", evt.Metadata),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}
