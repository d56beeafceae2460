package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/moderation-service/internal/api/http"
	"github.com/spec-kit/moderation-service/internal/api/http/handlers"
	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/config"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/notify"
	"github.com/spec-kit/moderation-service/internal/observability"
	"github.com/spec-kit/moderation-service/internal/persistence"
	"github.com/spec-kit/moderation-service/internal/repository"
	"github.com/spec-kit/moderation-service/internal/repository/memory"
	"github.com/spec-kit/moderation-service/internal/service"
	"github.com/spec-kit/moderation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	dependencies := map[string]handlers.Pinger{}
	var store *repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
		dependencies["postgres"] = pg
	} else {
		logger.Warn("using in-memory entity store; data is lost on restart")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	dependencies["redis"] = redis
	notifications := notify.NewBreakerSource(
		notify.NewRedisCounter(redis.Client, cfg.Redis.NotificationKeyPrefix),
		cfg.Breaker,
		logger,
	)
	dependencies["notifications"] = notifications

	dispatcher := events.NewInMemoryDispatcher(logger)
	stopWorker, err := worker.StartNotificationWorker(dispatcher, cfg.NATS, logger)
	if err != nil {
		logger.Fatal("failed to start notification worker", zap.Error(err))
	}
	defer stopWorker()

	common := service.Common{Dispatcher: dispatcher, Logger: logger, Metrics: metrics}
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets,
		MessageRepo: store.TicketMessages,
		HistoryRepo: store.TicketHistory,
		UserRepo:    store.Users,
		ShopRepo:    store.Shops,
		Common:      common,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		TicketRepo:        store.Tickets,
		TicketMessageRepo: store.TicketMessages,
		ChatRepo:          store.Chats,
		ChatMessageRepo:   store.ChatMessages,
		ShopRepo:          store.Shops,
		UserRepo:          store.Users,
		Common:            common,
	})
	countsService := service.NewCountsService(service.CountsDependencies{
		TicketRepo:    store.Tickets,
		ChatRepo:      store.Chats,
		Notifications: notifications,
		Common:        common,
	})
	blockingService := service.NewBlockingService(service.BlockingDependencies{
		UserRepo:     store.Users,
		BlockLogRepo: store.BlockLog,
		Common:       common,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, auth.NewResolver(store.Users, store.Shops))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Tickets:        handlers.NewTicketsHandler(ticketService, chatService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Chats:          handlers.NewChatsHandler(chatService),
		Users:          handlers.NewUsersHandler(blockingService, countsService),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
