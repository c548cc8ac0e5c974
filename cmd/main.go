package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"launchkit/docs/swagger"
	"launchkit/internal/access"
	"launchkit/internal/actions"
	"launchkit/internal/api"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/billing"
	"launchkit/internal/config"
	"launchkit/internal/db"
	"launchkit/internal/email"
	"launchkit/internal/events"
	"launchkit/internal/metrics"
	"launchkit/internal/models"
	"launchkit/internal/ratelimit"
	"launchkit/internal/services"
	"launchkit/internal/stats"
	"launchkit/internal/tasks"
	console "launchkit/internal/utils/logger"
)

// 🚀 Main function
// @title Launchkit API
// @version 1.0
// @description Authentication, organizations, audit log and administration API.
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {

	logger := console.New("launchkit")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection: %v", err)
		}
	}()

	database := db.GetDB()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)
	errorLog := console.NewErrorLogger(logger.Named("errors"), console.SystemClock(), time.Minute, 10)

	taskClient := tasks.NewTaskClient(cfg.Redis)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Warn("Failed to close task client: %v", err)
		}
	}()

	// Authentication
	userStore := authprovider.NewGormStore(database)
	signInLimiter := ratelimit.NewSlidingWindow(taskClient.Redis(), ratelimit.Config{
		Name:   "signin",
		Window: cfg.Auth.SignInWindow,
		Max:    cfg.Auth.SignInLimit,
	})
	provider := authprovider.New(userStore, cfg.Auth, cfg.Server.PublicURL, signInLimiter, taskClient)

	// Audit and authorization
	bus := events.Default()
	auditRepo := audit.NewGormRepository(database)
	auditWriter := audit.NewWriter(auditRepo, audit.WithEventBus(bus), audit.WithMetrics(appMetrics))
	auditReader := audit.NewReader(auditRepo, errorLog)
	guard := access.NewGuard(provider, services.NewMemberService(database), auditWriter, appMetrics)

	serverActions := actions.New(actions.Deps{
		DB:        database,
		Guard:     guard,
		Admin:     provider,
		Users:     userStore,
		Audit:     auditWriter,
		Mailer:    taskClient,
		PublicURL: cfg.Server.PublicURL,
	})

	statsService := stats.NewService(database, stats.NewRedisCache(taskClient.Redis()), cfg.Tasks.StatsCacheTTL)

	deps := api.Dependencies{
		DB:       database,
		Guard:    guard,
		Sessions: provider,
		Users:    serverActions,
		Orgs:     serverActions,
		Prefs:    serverActions,
		Reader:   auditReader,
		Stats:    statsService,
		Metrics:  appMetrics,
		Errors:   errorLog,
	}

	// Object storage is optional; without it audit exports are disabled.
	var exporter *tasks.AuditExporter
	if cfg.Storage.S3.BucketName != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Service, err := services.NewS3Service(initCtx, cfg.Storage)
		cancel()
		if err != nil {
			logger.Warn("Storage unavailable, audit exports disabled: %v", err)
		} else {
			exporter = tasks.NewAuditExporter(auditRepo, s3Service)
			deps.Exports = taskClient
			deps.Files = s3Service
		}
	}

	if cfg.Stripe.SecretKey != "" {
		organizations := services.NewBaseService(database, models.Organization{})
		deps.Billing = billing.NewService(organizations, billing.NewStripePortal(cfg.Stripe.SecretKey))
	}

	var sender email.Sender = email.NewLogSender(logger.Named("email"))
	if cfg.Email.APIKey != "" {
		sender = email.NewResendSender(cfg.Email.APIKey, cfg.Email.BaseURL, cfg.Email.From)
	} else {
		logger.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
	}

	bus.On(models.EventUserCreated, func(data interface{}) {
		user, ok := data.(models.User)
		if !ok {
			return
		}
		msg, err := email.Welcome(user.Email, user.Name)
		if err != nil {
			_ = logger.Error("Failed to render welcome email", err)
			return
		}
		if err := taskClient.EnqueueEmail(context.Background(), msg); err != nil {
			errorLog.Log("EMAIL_ENQUEUE_FAILED", "welcome email for "+user.ID, err)
		}
	})

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(sender, statsService, exporter, tasks.WithMetrics(appMetrics))

	// Initialize task server
	taskServer := tasks.NewServer(cfg.Redis, cfg.Worker, taskHandler, logger.Named("tasks"))

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	if err := taskServer.Start(serverCtx); err != nil {
		_ = logger.Error("Task server error", err)
	}

	// Initialize task scheduler
	taskScheduler, err := tasks.NewScheduler(cfg.Redis, cfg.Tasks, logger.Named("scheduler"))
	if err != nil {
		log.Fatalf("Failed to create task scheduler: %v", err)
	}
	if err := taskScheduler.Start(); err != nil {
		_ = logger.Error("Task scheduler error", err)
	}
	// Warm the stats cache instead of waiting for the first cron tick.
	if err := taskClient.EnqueueStatsSnapshot(context.Background()); err != nil {
		logger.Warn("Failed to enqueue stats snapshot: %v", err)
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, deps)

	swagger.SwaggerInfo.Host = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		logger.Success("API server started on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := apiServer.Start(); err != nil {
			logger.Info("API server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		_ = logger.Error("Failed to shutdown API server", err)
	}

	taskScheduler.Stop()
	serverCancel()
	taskServer.Shutdown()

	// Let in-flight event handlers finish enqueueing.
	bus.Wait()

	logger.Info("Servers shutdown gracefully")
}
