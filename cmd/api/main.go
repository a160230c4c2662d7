// Package main is the entry point for the Routecast API server.
//
// It loads configuration, connects the Postgres pool and AWS clients, builds
// the upstream provider clients (Mapbox, NWS, Google Places, Overpass,
// OpenAI), wires the route-weather service into the HTTP chassis, and starts
// listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
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
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"routecast/internal/api/handlers"
	"routecast/internal/config"
	"routecast/internal/core"
	"routecast/internal/db"
	"routecast/internal/external"
	"routecast/internal/queue"
	"routecast/internal/routeweather"
	"routecast/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Initialize structured logger.
	logger := newLogger(cfg.LogLevel)
	logger.Info("routecast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	// Postgres connection pool.
	pool, err := newDBPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// AWS clients (SQS dispatch queue, CloudWatch metrics).
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})

	// Upstream provider clients share one HTTP client so the provider timeout
	// applies uniformly.
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}
	userAgent := serviceUserAgent(cfg)

	mapboxClient := external.NewMapboxClient(httpClient, cfg.Providers.MapboxToken, userAgent)
	nwsClient := external.NewNWSClient(httpClient, cfg.Providers.NOAAUserAgent, types.RealClock{})
	overpassClient := external.NewOverpassClient(httpClient, userAgent)

	// Optional providers stay nil when unconfigured; the pipeline degrades by
	// omitting the corresponding response sections.
	var placesClient types.PlacesSearchProvider
	if cfg.Providers.GooglePlacesKey.Unmask() != "" {
		placesClient = external.NewGooglePlacesClient(httpClient, cfg.Providers.GooglePlacesKey, userAgent)
	} else {
		logger.Warn("GOOGLE_PLACES_API_KEY not set; rest-stop discovery disabled")
	}

	var summarizer types.SummaryGenerator
	if cfg.Providers.OpenAIKey.Unmask() != "" {
		summarizer = external.NewOpenAISummarizer(cfg.Providers.OpenAIKey, cfg.Providers.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set; AI summaries fall back to static text")
	}

	var publisher types.DispatchPublisher
	if cfg.AWS.DispatchQueueURL != "" {
		publisher = queue.NewDispatcher(sqsClient, cfg.AWS.DispatchQueueURL, logger)
	} else {
		logger.Warn("SQS_DISPATCH_QUEUE not set; severe-weather dispatch disabled")
	}

	store := db.NewRouteRepository(pool)

	svc := routeweather.NewService(routeweather.Deps{
		Logger:     logger,
		Clock:      types.RealClock{},
		Geocoder:   mapboxClient,
		Router:     mapboxClient,
		Weather:    nwsClient,
		Alerts:     nwsClient,
		Places:     placesClient,
		Clearances: overpassClient,
		Summarizer: summarizer,
		Store:      store,
		Publisher:  publisher,
	}, cfg.Route.WaypointIntervalMiles)

	// Build the server.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.Observability.EnableMetrics {
		srv.Metrics = core.NewCloudWatchMetrics(cwClient, cfg.Observability.MetricNamespace, logger)
	}
	srv.HealthProbes = append(srv.HealthProbes, &databaseProbe{pool: pool})

	routeHandler := handlers.NewRouteHandler(svc, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, routeHandler.RegisterRoutes)

	// Mount all routes (middleware chain + versioned endpoints + health).
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// newDBPool builds the pgx connection pool with the configured tuning
// parameters and verifies connectivity before the server accepts traffic.
func newDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.Database.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// serviceUserAgent builds the User-Agent sent to Mapbox, Overpass, and
// Google Places. The NWS has its own contact-bearing User-Agent requirement,
// configured separately via NOAA_USER_AGENT.
func serviceUserAgent(cfg *config.Config) string {
	if cfg.Build.Version != "" {
		return cfg.Service + "/" + cfg.Build.Version
	}
	return cfg.Service
}

// databaseProbe implements core.HealthProbe against the Postgres pool.
type databaseProbe struct {
	pool *pgxpool.Pool
}

func (p *databaseProbe) Name() string { return "database" }

func (p *databaseProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to capture server errors from ListenAndServe.
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Release server resources.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
