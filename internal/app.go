package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Robertosoftware/rentify-nl/internal/adapters/filestorage"
	logger_adapter "github.com/Robertosoftware/rentify-nl/internal/adapters/logger"
	postgres_adapter "github.com/Robertosoftware/rentify-nl/internal/adapters/postgres"
	rabbitmq_adapter "github.com/Robertosoftware/rentify-nl/internal/adapters/rabbitmq"
	"github.com/Robertosoftware/rentify-nl/internal/adapters/rest"
	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites"
	"github.com/Robertosoftware/rentify-nl/internal/antidetect"
	"github.com/Robertosoftware/rentify-nl/internal/configs"
	"github.com/Robertosoftware/rentify-nl/internal/constants"
	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
	"github.com/Robertosoftware/rentify-nl/internal/core/usecase"
	"github.com/Robertosoftware/rentify-nl/internal/scraper"
	fluentlogger "github.com/Robertosoftware/rentify-nl/pkg/fluent_logger"
	"github.com/Robertosoftware/rentify-nl/pkg/postgres"
	"github.com/Robertosoftware/rentify-nl/pkg/rabbitmq/rabbitmq_producer"
)

// App wires every component of the scraper worker together.
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
	baseLogger   port.LoggerPort

	pipeline      *usecase.RunPipelineUseCase
	runState      *rest.RunState
	matchProducer *rabbitmq_producer.Publisher
}

// NewApp is the composition root: all dependencies are created and
// connected here.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// Loggers first, everything else logs through them.
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// Storage.
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	listingStorage, err := postgres_adapter.NewPostgresListingStorage(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create listing storage adapter: %w", err)
	}
	preferenceStorage, err := postgres_adapter.NewPostgresPreferenceStorage(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create preference storage adapter: %w", err)
	}
	matchStorage, err := postgres_adapter.NewPostgresMatchStorage(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create match storage adapter: %w", err)
	}
	appLogger.Info("Postgres storage adapters initialized.", nil)

	// Event producer (optional). Without a broker, matches are stored
	// but no events are published.
	var matchProducer *rabbitmq_producer.Publisher
	var matchQueue port.MatchQueuePort
	if appConfig.RabbitMQ.Enabled {
		producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
		producerCfg := rabbitmq_producer.PublisherConfig{
			URL:                      appConfig.RabbitMQ.URL,
			ExchangeName:             constants.NotificationExchange,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
		}
		matchProducer, err = rabbitmq_producer.NewPublisher(producerCfg)
		if err != nil {
			appLogger.Error("Failed to create event producer", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to create event producer: %w", err)
		}

		matchQueue, err = rabbitmq_adapter.NewMatchEnqueueAdapter(matchProducer, constants.RoutingKeyMatchEvents)
		if err != nil {
			dbPool.Close()
			return nil, err
		}
		appLogger.Info("RabbitMQ event producer initialized.", nil)
	} else {
		appLogger.Warn("RABBITMQ_URL not set, match events will not be published", nil)
	}

	// Listing sources: one per configured site, sharing the politeness
	// governor and rotators so per-domain state is seen by everyone.
	governor := antidetect.NewGovernor(appConfig.Scraper.MinDelay, appConfig.Scraper.MaxDelay)
	identities := antidetect.NewIdentityRotator()
	egress := antidetect.NewEgressRotator(appConfig.Scraper.ProxyList)

	var sources []port.ListingSourcePort
	for _, name := range appConfig.Scraper.Sources {
		adapter, err := sites.ForSource(name)
		if err != nil {
			appLogger.Warn("Unknown scraper source, skipping", port.Fields{"source": name})
			continue
		}
		if appConfig.Scraper.LiveScraping {
			sources = append(sources, scraper.NewSession(adapter, governor, identities, egress, scraper.SessionConfig{
				MaxConcurrent:    appConfig.Scraper.PerSiteConcurrency,
				Retries:          appConfig.Scraper.FetchRetries,
				MinDelay:         appConfig.Scraper.MinDelay,
				MaxDelay:         appConfig.Scraper.MaxDelay,
				FetchTimeout:     appConfig.Scraper.FetchTimeout,
				RateLimitBackoff: appConfig.Scraper.RateLimitBackoff,
			}))
		} else {
			sources = append(sources, scraper.NewFixtureSource(adapter, appConfig.Scraper.FixturesDir))
		}
	}
	if len(sources) == 0 {
		dbPool.Close()
		return nil, fmt.Errorf("no valid scraper sources configured (got %v)", appConfig.Scraper.Sources)
	}
	appLogger.Info("Listing sources initialized.", port.Fields{
		"sources": len(sources), "live": appConfig.Scraper.LiveScraping,
	})

	reportWriter, err := filestorage.NewBatchReportWriter(appConfig.Scraper.OutputDir)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	// Use cases.
	ingestUC := usecase.NewIngestListingsUseCase(listingStorage)
	matchUC := usecase.NewMatchListingUseCase(preferenceStorage, matchStorage, matchQueue)
	sweepUC := usecase.NewSweepDelistedUseCase(listingStorage, time.Duration(appConfig.Scraper.DelistThresholdDays)*24*time.Hour)
	pipelineUC := usecase.NewRunPipelineUseCase(
		sources,
		appConfig.Scraper.Cities,
		appConfig.Scraper.MaxPagesPerCity,
		ingestUC,
		matchUC,
		sweepUC,
		reportWriter,
	)
	appLogger.Info("All use cases initialized.", nil)

	runState := &rest.RunState{}
	apiServer := rest.NewServer(appConfig.HTTPAddr, pipelineUC, runState, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	return &App{
		config:        appConfig,
		dbPool:        dbPool,
		apiServer:     apiServer,
		fluentClient:  fluentClient,
		logger:        appLogger,
		baseLogger:    baseLogger,
		pipeline:      pipelineUC,
		runState:      runState,
		matchProducer: matchProducer,
	}, nil
}

// Run starts the HTTP server, kicks off an initial pipeline run, and
// blocks until a shutdown signal or a fatal component error.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := a.apiServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
			cancel()
		}

		if a.matchProducer != nil {
			if err := a.matchProducer.Close(); err != nil {
				a.logger.Error("Error closing event producer", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)

	go func() {
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	// First pipeline run starts immediately; later runs come through the
	// REST trigger.
	if a.runState.TryStart() {
		go func() {
			runCtx := contextkeys.ContextWithLogger(appCtx, a.baseLogger)
			summary, err := a.pipeline.Execute(runCtx)
			a.runState.Finish(summary, err)
			if err != nil {
				a.logger.Error("Initial pipeline run finished with errors", err, nil)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	cancelApp()
	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
