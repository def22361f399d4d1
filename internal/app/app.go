package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/osgraph/internal/config"
	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/registry"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/specialistvlad/osgraph/internal/writer"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger     *slog.Logger
	config     *config.Config
	store      store.Store
	registry   *registry.Registry
	session    *entity.Session
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Logs go to logW. With
// no modules the core modules are registered. A module with invalid types
// panics, as registration errors are programmer errors.
func NewApp(ctx context.Context, logW io.Writer, cfg *config.Config, modules ...registry.Module) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.RegisterModules(modules...)
	reg.Freeze()
	logger.Debug("All Go modules registered.", "count", len(modules), "classes", reg.Classes())

	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	logger.Debug("Store opened.", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	sess := entity.NewSession(st, reg,
		entity.WithLogger(logger),
		entity.WithWriterConfig(writer.Config{QueueSize: cfg.Writer.QueueSize, Workers: cfg.Writer.Workers}),
	)

	a := &App{
		logger:   logger,
		config:   cfg,
		store:    st,
		registry: reg,
		session:  sess,
	}
	if cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(cfg.HealthcheckPort)
	}
	return a, nil
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Session returns the application's entity session.
func (a *App) Session() *entity.Session {
	return a.session
}

// Close drains pending writes and releases the store and the health check
// server.
func (a *App) Close(ctx context.Context) error {
	ctx = a.Context(ctx)
	a.logger.Debug("Closing application.")

	var errs []error
	if err := a.session.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := a.closeHealthcheckServer(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
