package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/internal/config"
	"github.com/goliatone/go-messmass/internal/logging"
	"github.com/goliatone/go-messmass/pkg/activity"
	"github.com/goliatone/go-messmass/pkg/store/memory"
	"github.com/goliatone/go-messmass/pkg/store/sqlite"
)

// backend holds the admin service and the resources backing it.
type backend struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *admin.Service
	broadcast *admin.BroadcastHook
	telemetry *logging.Telemetry
	close     func() error
}

func loadRuntime(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{
		cfg:       cfg,
		logger:    logger,
		broadcast: admin.NewBroadcastHook(),
		telemetry: logging.NewTelemetry(logger),
		close:     func() error { return nil },
	}
	opts := admin.Options{
		RefreshHook: admin.MultiRefreshHook{b.broadcast, logging.NewRefreshLogger(logger)},
		Telemetry:   b.telemetry,
		ActivityHooks: activity.Hooks{
			logging.NewActivityLogger(logger),
		},
		ActivityConfig: activity.Config{Enabled: cfg.Activity.Enabled},
		PageSize:       cfg.List.PageSize,
		MaxPageSize:    cfg.List.MaxPageSize,
	}
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Database.DSN, sqlite.Options{Logger: logging.NewGooseLogger(logger)})
		if err != nil {
			return nil, err
		}
		store.Bind(&opts)
		b.close = store.Close
	case config.DriverMemory:
		memory.New().Bind(&opts)
	default:
		return nil, fmt.Errorf("messmass-admin: unsupported database driver %q", cfg.Database.Driver)
	}
	b.service = admin.NewService(opts)
	return b, nil
}

// manifestVariables returns the configured manifest, or the built-in
// system variables when none is set.
func manifestVariables(path string) ([]admin.VariableDefinition, error) {
	if path == "" {
		return admin.DefaultVariables(), nil
	}
	doc, err := admin.ReadVariableManifest(path)
	if err != nil {
		return nil, err
	}
	return doc.Variables, nil
}

func (b *backend) chartRenderer() *admin.ChartRenderer {
	ttl := b.cfg.Preview.CacheTTL
	if ttl <= 0 {
		return admin.NewChartRenderer(admin.WithChartCache(nil))
	}
	return admin.NewChartRenderer(admin.WithChartCache(admin.NewChartCache(ttl)))
}

func (b *backend) Close() {
	if err := b.close(); err != nil {
		b.logger.Warn("close store", zap.Error(err))
	}
	_ = b.logger.Sync()
}
