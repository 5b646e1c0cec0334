package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/brightpath/attempt-service/internal/cache"
	"github.com/brightpath/attempt-service/internal/config"
	"github.com/brightpath/attempt-service/internal/handlers"
	"github.com/brightpath/attempt-service/internal/session"
	"github.com/brightpath/attempt-service/internal/store"
	"github.com/brightpath/attempt-service/internal/utils"
	"github.com/brightpath/attempt-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	if cfg.Casdoor.Enabled() {
		casdoorsdk.InitConfig(
			cfg.Casdoor.Endpoint,
			cfg.Casdoor.ClientID,
			cfg.Casdoor.ClientSecret,
			cfg.Casdoor.Certificate,
			cfg.Casdoor.Organization,
			cfg.Casdoor.Application,
		)
	}

	attemptCache := buildCache(cfg, logger)

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	gateway := session.NewHTTPGateway(session.HTTPGatewayConfig{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: 15 * time.Second,
	})

	manager := session.NewManager(session.ManagerConfig{
		Gateway:        gateway,
		Cache:          attemptCache,
		Events:         publisher,
		Logger:         logger,
		WarningSeconds: cfg.TimeWarning,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(manager, gateway, utils.NewValidator(), logger)
	handlerManager.SetupRoutes(router)

	go func() {
		logger.Info("Attempt service listening", "port", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.LogError(err, "Server stopped")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down, flushing autosaves")
	manager.Shutdown()
}

// buildCache assembles the snapshot cache: redis in front when reachable,
// postgres behind it when configured, in-process memory as the fallback of
// last resort.
func buildCache(cfg *config.Config, logger utils.Logger) cache.AttemptCache {
	var tiers []cache.AttemptCache

	if client, err := pkg.NewRedisClient(cfg); err != nil {
		logger.LogError(err, "Redis unavailable, continuing without it")
	} else {
		tiers = append(tiers, cache.NewRedisCache(client, logger, cfg.SnapshotTTL))
	}

	if db, err := pkg.InitDatabase(cfg); err != nil {
		logger.LogError(err, "Database unavailable, continuing without durable snapshots")
	} else if db != nil {
		snapshots, err := store.NewSnapshotStore(db, cfg.SnapshotTTL)
		if err != nil {
			logger.LogError(err, "Failed to init snapshot store")
		} else {
			tiers = append(tiers, snapshots)
		}
	}

	switch len(tiers) {
	case 0:
		logger.Warn("No shared snapshot cache configured, resume works within this process only")
		return cache.NewMemoryCache(cfg.SnapshotTTL)
	case 1:
		return tiers[0]
	default:
		return cache.NewTiered(tiers[0], tiers[1])
	}
}
