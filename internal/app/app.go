// Package app assembles the state layer from a loaded configuration.
package app

import (
	"context"
	"fmt"

	"github.com/grovetools/areatrip/config"
	"github.com/grovetools/areatrip/internal/areas"
	"github.com/grovetools/areatrip/internal/docstore"
	"github.com/grovetools/areatrip/internal/mapbridge"
	"github.com/grovetools/areatrip/internal/panel"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/selection"
	"github.com/grovetools/areatrip/internal/session"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/internal/telemetry"
	"github.com/grovetools/areatrip/internal/trips"
	"github.com/grovetools/areatrip/internal/workflow"
	"github.com/grovetools/areatrip/logging"
	"github.com/sirupsen/logrus"
)

// App holds every component built from one configuration.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Documents docstore.Store
	Trips     *trips.Service
	Provider  *session.FileProvider
	Session   *session.Bridge
	Panel     *panel.Controller
	Selection *selection.Manager
	Navigator *routes.Navigator
	Planner   *workflow.Planner
	Areas     *areas.Loader
	MapBridge *mapbridge.Server

	logger            *logrus.Entry
	shutdownTelemetry telemetry.Shutdown
}

// New builds the components. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewLoggerFromConfig("app", cfg)

	mode, err := trips.ParseMode(cfg.Trips.WriteMode)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		// Tracing is optional; the app runs without it.
		logger.WithError(err).Warn("Failed to set up trace export")
	}

	docs, err := docstore.Open(ctx, cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open %s document store: %w", cfg.Store.Backend, err)
	}

	st := store.New(store.WithLogger(logging.NewLoggerFromConfig("store", cfg)))
	sel := selection.New(st)
	pc := panel.New(st)

	sessionLogger := logging.NewLoggerFromConfig("session", cfg)
	provider := session.NewFileProvider(cfg.Session.File, sessionLogger)
	bridge := session.NewBridge(provider, st, sessionLogger)

	svc := trips.New(docs,
		trips.WithMode(mode),
		trips.WithLogger(logging.NewLoggerFromConfig("trips", cfg)),
	)

	nav := routes.NewNavigator(bridge, sel, logging.NewLoggerFromConfig("routes", cfg))

	planner := workflow.NewPlanner(st, pc, bridge, svc, nav,
		logging.NewLoggerFromConfig("workflow", cfg),
		workflow.WithDefaults(workflow.Defaults{
			Name: cfg.Trips.DefaultName,
			Note: cfg.Trips.DefaultNote,
		}),
	)

	a := &App{
		Config:            cfg,
		Store:             st,
		Documents:         docs,
		Trips:             svc,
		Provider:          provider,
		Session:           bridge,
		Panel:             pc,
		Selection:         sel,
		Navigator:         nav,
		Planner:           planner,
		Areas:             areas.NewLoader(st, logging.NewLoggerFromConfig("areas", cfg)),
		MapBridge:         mapbridge.New(st, sel, logging.NewLoggerFromConfig("mapbridge", cfg)),
		logger:            logger,
		shutdownTelemetry: shutdown,
	}

	logger.WithFields(logrus.Fields{
		"backend":    cfg.Store.Backend,
		"write_mode": mode,
	}).Debug("Application assembled")
	return a, nil
}

// Start follows the session file and loads the configured area collection.
// The session stream stops when ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Start(ctx); err != nil {
		return err
	}
	if a.Config.Areas.File != "" {
		if _, err := a.Areas.Load(ctx, a.Config.Areas.File); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the document store and flushes traces.
func (a *App) Close(ctx context.Context) error {
	a.MapBridge.Close()
	err := a.Documents.Close()
	if a.shutdownTelemetry != nil {
		if terr := a.shutdownTelemetry(ctx); terr != nil {
			a.logger.WithError(terr).Warn("Failed to flush traces")
		}
	}
	return err
}
