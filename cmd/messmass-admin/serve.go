package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/components/admin/commands"
	"github.com/goliatone/go-messmass/components/admin/gorouter"
	"github.com/goliatone/go-messmass/components/admin/httpapi"
	"github.com/goliatone/go-messmass/internal/config"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	Addr   string `help:"Listen address (overrides http.addr)."`
	Engine string `enum:",chi,fiber" default:"" help:"HTTP engine (overrides http.engine)."`
	Watch  bool   `help:"Reseed variables when the manifest file changes."`
}

func (cmd *serveCmd) Run(ctx context.Context, root *cli) error {
	cfg, logger, err := loadRuntime(root.Config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.HTTP.Addr = cmd.Addr
	}
	if cmd.Engine != "" {
		cfg.HTTP.Engine = cmd.Engine
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := seedVariables(ctx, b, cfg.Variables.Manifest); err != nil {
		return err
	}

	templates, err := admin.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("messmass-admin: load templates: %w", err)
	}
	charts := b.chartRenderer()
	handlers := httpapi.NewHandlers(b.service, httpapi.WireOptions{
		Charts:    charts,
		Preview:   admin.NewPreviewRenderer(templates, charts),
		Telemetry: b.telemetry,
	})

	eg, egctx := errgroup.WithContext(ctx)
	switch cfg.HTTP.Engine {
	case config.EngineFiber:
		err = serveFiber(egctx, eg, cfg, b, handlers)
	default:
		err = serveChi(egctx, eg, cfg, b, handlers)
	}
	if err != nil {
		return err
	}
	if cmd.Watch && cfg.Variables.Manifest != "" {
		eg.Go(func() error {
			return watchManifest(egctx, b, cfg.Variables.Manifest)
		})
	}
	logger.Info("admin server started",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("engine", cfg.HTTP.Engine),
		zap.String("driver", cfg.Database.Driver),
		zap.String("base_path", cfg.HTTP.BasePath),
	)
	return eg.Wait()
}

func serveChi(ctx context.Context, eg *errgroup.Group, cfg *config.Config, b *backend, handlers *httpapi.Handlers) error {
	mux := httpapi.NewRouter(handlers, httpapi.RouterOptions{
		BasePath:   cfg.HTTP.BasePath,
		Events:     b.broadcast,
		Middleware: []func(http.Handler) http.Handler{requestLogger(b.logger)},
	})
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("messmass-admin: server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.logger.Info("shutting down admin server")
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}

func serveFiber(ctx context.Context, eg *errgroup.Group, cfg *config.Config, b *backend, handlers *httpapi.Handlers) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       handlers,
		Broadcast: b.broadcast,
		BasePath:  cfg.HTTP.BasePath,
	}); err != nil {
		return fmt.Errorf("messmass-admin: register routes: %w", err)
	}
	eg.Go(func() error {
		if err := server.Serve(cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("messmass-admin: server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.logger.Info("shutting down admin server")
		return server.Shutdown(shutdownCtx)
	})
	return nil
}

// requestLogger logs one line per request once it completes.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func seedVariables(ctx context.Context, b *backend, manifest string) error {
	defs, err := manifestVariables(manifest)
	if err != nil {
		return err
	}
	created := &commands.Result[int]{}
	seed := commands.NewSeedVariablesCommand(b.service, b.telemetry)
	if err := seed.Execute(ctx, commands.SeedVariablesInput{Variables: defs, Created: created}); err != nil {
		return fmt.Errorf("messmass-admin: seed variables: %w", err)
	}
	count, _ := created.Load()
	b.logger.Info("variables seeded", zap.Int("declared", len(defs)), zap.Int("created", count))
	return nil
}

// watchManifest reseeds variables after the manifest settles on disk. The
// parent directory is watched so editors that replace the file are seen.
func watchManifest(ctx context.Context, b *backend, manifest string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("messmass-admin: watch manifest: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(manifest)
	if err != nil {
		return fmt.Errorf("messmass-admin: resolve manifest: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("messmass-admin: watch %s: %w", filepath.Dir(target), err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				if err := seedVariables(ctx, b, target); err != nil {
					b.logger.Error("reseed variables", zap.String("manifest", target), zap.Error(err))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("manifest watcher", zap.Error(err))
		}
	}
}
