package app

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/azuredevops"
	"github.com/podtech-io/devops-pulse/internal/cache"
	"github.com/podtech-io/devops-pulse/internal/config"
	"github.com/podtech-io/devops-pulse/internal/httpserver"
	"github.com/podtech-io/devops-pulse/internal/migrations"
	"github.com/podtech-io/devops-pulse/internal/service"
	"github.com/podtech-io/devops-pulse/internal/storage"
	"github.com/podtech-io/devops-pulse/internal/storage/memory"
	"github.com/podtech-io/devops-pulse/internal/storage/postgres"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	httpServer *httpserver.Server
	store      storage.Storage
	svc        *service.Service
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	var store storage.Storage
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(ctx, cfg.DatabaseURL, logger); err != nil {
			pool.Close()
			return nil, err
		}
		store = postgres.NewStore(pool)
	} else {
		logger.Info("DATABASE_URL is not set, using in-memory storage")
		store = memory.New()
	}

	// The client interface stays nil (not a typed-nil) when no token is
	// configured, which routes sync through the demo seeding path.
	var client service.RemoteClient
	if cfg.AzurePAT != "" {
		client = azuredevops.New(cfg.AzureOrganization, cfg.AzureProject, cfg.AzurePAT, logger)
	} else {
		logger.Warn("AZURE_DEVOPS_PAT_TOKEN is not set, sync will seed demo data")
	}

	svc := service.New(store, client, cache.NewTracker(), logger, cfg.CacheTTL)
	server := httpserver.New(cfg.HTTPPort, logger, svc, cfg.AzureOrganization, cfg.AzureProject)

	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: server,
		store:      store,
		svc:        svc,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			return err
		}

		return <-errCh
	case err := <-errCh:
		return err
	}
}
