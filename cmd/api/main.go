package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/networkhq/network-intake/internal/api/http"
	"github.com/networkhq/network-intake/internal/api/http/handlers"
	"github.com/networkhq/network-intake/internal/auth"
	"github.com/networkhq/network-intake/internal/config"
	"github.com/networkhq/network-intake/internal/events"
	"github.com/networkhq/network-intake/internal/mail"
	"github.com/networkhq/network-intake/internal/observability"
	"github.com/networkhq/network-intake/internal/persistence"
	"github.com/networkhq/network-intake/internal/queue"
	"github.com/networkhq/network-intake/internal/ratelimit"
	"github.com/networkhq/network-intake/internal/repository"
	"github.com/networkhq/network-intake/internal/service"
	"github.com/networkhq/network-intake/internal/worker"
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

	metrics := observability.NewMetrics()
	deps := map[string]handlers.Pinger{}

	var redisConn *persistence.Redis
	if cfg.Store.Backend == config.StoreRedis || cfg.RateLimit.Backend == config.StoreRedis {
		redisConn = persistence.NewRedis(cfg.Redis, logger)
		defer redisConn.Close()
		deps["redis"] = redisConn
	}

	var repo repository.SubmissionRepository
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if pg.PoolHandle() == nil {
			logger.Fatal("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repo = repository.NewPostgresSubmissionRepository(pg.PoolHandle())
	case config.StoreRedis:
		repo = repository.NewRedisSubmissionRepository(redisConn.Client, cfg.Redis.KeyPrefix)
	case config.StoreDynamo:
		client, err := persistence.NewDynamo(ctx, cfg.Dynamo, logger)
		if err != nil {
			logger.Fatal("failed to configure dynamodb", zap.Error(err))
		}
		repo = repository.NewDynamoSubmissionRepository(client, repository.DynamoTables{
			Waitlist:    cfg.Dynamo.WaitlistTable,
			Partnership: cfg.Dynamo.PartnerTable,
		})
	default:
		logger.Warn("using in-memory store; submissions are lost on restart")
		repo = repository.NewMemorySubmissionRepository()
	}
	deps["store"] = repo

	waitlistLimiter, partnerLimiter := buildLimiters(cfg, redisConn)

	var mailer service.Mailer
	if cfg.Notification.MailEnabled() {
		n := cfg.Notification
		mailer = mail.NewEmailSender(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPass, n.EmailFrom, n.EmailTo)
	}

	var publisher service.EventPublisher
	if cfg.Queue.URL != "" {
		mq, err := queue.NewRabbitMQ(cfg.Queue.URL, cfg.Queue.Exchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable; queue notifications disabled", zap.Error(err))
		} else {
			defer mq.Close()
			publisher = queue.NewProducer(mq.Ch, mq.Exchange)
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifier := service.NewNotificationService(mailer, publisher, logger, metrics)
	notifyWorker := worker.NewNotificationWorker(notifier, cfg.Notification.QueueSize, logger)
	notifyWorker.Subscribe(dispatcher)
	go notifyWorker.Run(ctx)

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Repo:       repo,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ProxyHeader:           cfg.App.ProxyHeader,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS.AllowedOrigin, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Submissions:     handlers.NewSubmissionsHandler(intakeService),
		WaitlistLimiter: waitlistLimiter,
		PartnerLimiter:  partnerLimiter,
		Metrics:         metrics,
		Logger:          logger,
	}
	if cfg.Auth.Enabled() {
		adminService := service.NewAdminService(cfg.Auth, repo)
		routes.Admin = handlers.NewAdminHandler(adminService)
		routes.AuthMiddleware = auth.NewAuthMiddleware(adminService.TokenManager())
	} else {
		logger.Info("ADMIN_PASSWORD_HASH not set; admin endpoints disabled")
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Backend),
			zap.String("rate_limit", cfg.RateLimit.Backend),
			zap.String("cors_origin", cfg.CORS.AllowedOrigin))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	cancel()
}

func buildLimiters(cfg *config.Config, redisConn *persistence.Redis) (ratelimit.Limiter, ratelimit.Limiter) {
	rl := cfg.RateLimit
	if rl.Backend == config.StoreRedis {
		prefix := ratelimit.WithKeyPrefix(cfg.Redis.KeyPrefix + ":ratelimit")
		return ratelimit.NewRedisWindow(redisConn.Client, "waitlist", rl.WaitlistWindow(), rl.WaitlistMax, prefix),
			ratelimit.NewRedisWindow(redisConn.Client, "partner", rl.PartnerWindow(), rl.PartnerMax, prefix)
	}
	return ratelimit.NewWindow("waitlist", rl.WaitlistWindow(), rl.WaitlistMax),
		ratelimit.NewWindow("partner", rl.PartnerWindow(), rl.PartnerMax)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
