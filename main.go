package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analytics-gateway/config"
	"analytics-gateway/controllers"
	"analytics-gateway/database"
	"analytics-gateway/metrics"
	"analytics-gateway/middlewares"
	"analytics-gateway/nonce"
	"analytics-gateway/routes"
	"analytics-gateway/services"
	"analytics-gateway/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	issueToken := flag.String("issue-token", "", "print an API token for the given shop and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *issueToken != "" {
		token, err := middlewares.GenerateAPIToken([]byte(cfg.APIJWTSecret), *issueToken, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	log, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	// ---- Pending install states
	var states nonce.Store
	if cfg.RedisURL != "" {
		rs, err := nonce.NewRedisStore(ctx, cfg.RedisURL, cfg.StateTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		states = rs
		log.Info("install state store: redis")
	} else {
		states = nonce.NewMemoryStore(cfg.StateTTL)
		log.Warn("REDIS_URL not set, install state is kept in memory")
	}
	if !cfg.EnforceState {
		log.Warn("ENFORCE_STATE=false, callback state mismatches are only logged")
	}
	if !cfg.RequireShopToken {
		log.Warn("REQUIRE_SHOP_TOKEN=false, questions for uninstalled shops are forwarded without a token")
	}

	// ---- Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	// ---- Services
	shops := database.NewShopStore(db)
	installer := services.NewInstaller(cfg,
		services.NewShopifyOAuth(cfg.Shopify, cfg.UpstreamTimeout),
		states, shops, log, rec)
	questions := services.NewQuestionService(shops,
		services.NewAnalyticsClient(cfg.AnalyticsURL, cfg.UpstreamTimeout),
		database.NewRequestLogStore(db), cfg.RequireShopToken, log, rec)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler:          middlewares.ErrorHandler(log),
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middlewares.RequestLogger(log))

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// ---- Global rate limiter (default key = client IP)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	// ---- Routes
	routes.Register(app, routes.Handlers{
		Auth:      controllers.NewAuthController(installer),
		Questions: controllers.NewQuestionController(questions),
		Metrics:   reg,
		APISecret: []byte(cfg.APIJWTSecret),
	})

	// ---- Start
	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", zap.String("port", cfg.Port), zap.String("analytics_url", cfg.AnalyticsURL))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
