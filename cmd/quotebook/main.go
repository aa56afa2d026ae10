// Package main is the entry point for the quotebook service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/filestore"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting quotebook",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// 5. Create HTTP client for the quote endpoint
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Headers:     http.Header{"Accept": []string{"application/json"}},
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 6. Create the quote client (ACL pattern) and favorites store
	quoteClient := acl.NewQuoteClient(acl.QuoteClientConfig{
		Client:      httpClient,
		ServiceName: cfg.Services.Quote.Name,
		Logger:      logger,
	})

	store, err := filestore.New(filestore.Config{
		Dir:      cfg.Favorites.Dir,
		FileName: cfg.Favorites.FileName,
		Pretty:   cfg.Favorites.Pretty,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating favorites store: %w", err)
	}

	// 7. Create metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 8. Create and start the session
	policy, err := app.ParseFetchPolicy(cfg.Session.FetchPolicy)
	if err != nil {
		return fmt.Errorf("invalid fetch policy: %w", err)
	}

	session := app.NewSession(app.SessionConfig{
		QuoteClient: quoteClient,
		Favorites:   store,
		Policy:      policy,
		Metrics:     app.NewMetrics(registry),
		Logger:      logger,
	})

	logger.Info("session starting",
		slog.String("favorites_path", store.Path()),
		slog.String("fetch_policy", string(policy)),
	)
	session.Start(ctx)

	// 9. Register health checks
	healthRegistry := ports.NewHealthRegistry().WithCheckTimeout(cfg.Health.CheckTimeout)
	for _, checker := range []ports.HealthChecker{quoteClient, store, telProvider} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo).WithGatherer(registry)

	// 11. Create HTTP server and router
	server := httpadapter.New(&cfg.Server, logger)
	httpadapter.SetupRouter(server.Engine(), httpadapter.RouterConfig{
		Logger:           logger,
		AppConfig:        &cfg.App,
		HealthHandler:    healthHandler,
		QuoteHandler:     handlers.NewQuoteHandler(session),
		FavoritesHandler: handlers.NewFavoritesHandler(session),
		LifecycleHandler: handlers.NewLifecycleHandler(session),
		Timeout:          cfg.Server.RequestTimeout,
	})

	// 12. Serve until a signal arrives or the server fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := <-server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown",
			slog.Duration("timeout", cfg.Server.ShutdownTimeout),
		)

		return shutdown(logger, cfg, server, session, telProvider)
	})

	err = g.Wait()
	if err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// shutdown persists the favorites and stops every component in reverse
// order of construction. It keeps going after failures and reports them
// together.
func shutdown(
	logger *slog.Logger,
	cfg *config.Config,
	server *httpadapter.Server,
	session *app.Session,
	telProvider *telemetry.Provider,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	// Stop accepting new requests, drain in-flight
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	// Leaving the foreground is the one moment favorites are written.
	if err := session.HandleLifecycle(ctx, domain.PhaseBackground); err != nil {
		logger.Error("favorites not saved on shutdown", slog.Any("error", err))
		errs = append(errs, err)
	}

	if err := session.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("session close: %w", err))
	}

	if err := telProvider.Shutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	return errors.Join(errs...)
}
