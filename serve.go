package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/fadhlanhapp/egov-portal/handlers"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/routes"
	"github.com/fadhlanhapp/egov-portal/services"
	"github.com/fadhlanhapp/egov-portal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), config.Load())
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize New Relic
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.NewRelic.AppName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize New Relic: %v", err)
	}

	// Initialize database
	db, err := repository.OpenDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	store := repository.NewSQLStore(db)

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	limiter := services.NewIssueLimiter(openRedis(ctx, cfg.RedisURL), cfg.OTP.IssueLimit, cfg.OTP.IssueWindow)
	workflow := services.NewDefaultPaymentWorkflow(store, services.NewOtpSender(cfg.OTP, cfg.SMTP), limiter,
		services.WorkflowConfig{CodeTTL: cfg.OTP.TTL, MaxAttempts: cfg.OTP.MaxAttempts, BcryptCost: cfg.OTP.BcryptCost})

	// Set up Gin router
	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20

	// Add New Relic middleware
	if app != nil {
		router.Use(nrgin.Middleware(app))
	}

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: len(cfg.CORSOrigins) > 0 && cfg.CORSOrigins[0] != "*",
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(router, cfg.Auth, routes.Handlers{
		Payments:    handlers.NewPaymentHandler(workflow),
		Documents:   handlers.NewDocumentHandler(services.NewDocumentService(store, files)),
		Assessments: handlers.NewAssessmentHandler(services.NewAssessmentService(store)),
		Reports:     handlers.NewReportHandler(services.NewReportService(store)),
		DB:          store,
	})

	log.Printf("Server starting on port %s...", cfg.Port)
	return router.Run(":" + cfg.Port)
}

// openRedis returns nil when Redis is not configured or unreachable; the limiter then stays in memory
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, using in-memory code throttle: %v", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis unreachable, using in-memory code throttle: %v", err)
		client.Close()
		return nil
	}
	log.Printf("Redis connected, code throttle shared across instances")
	return client
}
