package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/api/http/handlers"
	"github.com/complaintrack/complaint-service/internal/auth"
	"github.com/complaintrack/complaint-service/internal/cache"
	"github.com/complaintrack/complaint-service/internal/config"
	"github.com/complaintrack/complaint-service/internal/events"
	"github.com/complaintrack/complaint-service/internal/notify"
	"github.com/complaintrack/complaint-service/internal/observability"
	"github.com/complaintrack/complaint-service/internal/persistence"
	"github.com/complaintrack/complaint-service/internal/repository"
	"github.com/complaintrack/complaint-service/internal/service"
	"github.com/complaintrack/complaint-service/internal/storage"

	httptransport "github.com/complaintrack/complaint-service/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		ticketRepo  repository.TicketRepository
		commentRepo repository.CommentRepository
		userRepo    repository.UserRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pool)
		commentRepo = repository.NewCommentRepository(pool)
		userRepo = repository.NewUserRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		ticketRepo = store.Tickets()
		commentRepo = store.Comments()
		userRepo = store.Users()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	statsCache := cache.NewStatsCache(redis.Client, cfg.Redis.StatsTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	gateway := notify.NewLogGateway(logger, cfg.Notification.EmailFrom)
	notificationService := service.NewNotificationService(dispatcher, gateway, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	attachmentStore := storage.NewDiskStore(cfg.Storage.UploadsDir, cfg.Storage.PublicPrefix, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		UserRepo:        userRepo,
		AttachmentStore: attachmentStore,
		Dispatcher:      dispatcher,
		StatsCache:      statsCache,
		Logger:          logger,
	})
	commentService := service.NewCommentService(commentRepo, dispatcher, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	identityService := service.NewIdentityService(userRepo, tokenManager, cfg.Auth, logger)
	if err := identityService.EnsureAdmin(ctx); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)
	policy := auth.NewPolicy()
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	app.Static(cfg.Storage.PublicPrefix, cfg.Storage.UploadsDir)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(identityService),
		Tickets:        handlers.NewTicketsHandler(ticketService, policy),
		Comments:       handlers.NewCommentsHandler(commentService, ticketService, policy),
		Dashboard:      handlers.NewDashboardHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
