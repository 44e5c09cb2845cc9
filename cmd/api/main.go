package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abiball/abiball-backend/api/controllers"
	"github.com/abiball/abiball-backend/api/routes"
	"github.com/abiball/abiball-backend/internal/availability"
	"github.com/abiball/abiball-backend/internal/documents"
	"github.com/abiball/abiball-backend/internal/events"
	"github.com/abiball/abiball-backend/internal/notifications"
	"github.com/abiball/abiball-backend/internal/orders"
	"github.com/abiball/abiball-backend/internal/payments"
	"github.com/abiball/abiball-backend/internal/tickets"
	"github.com/abiball/abiball-backend/internal/users"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/db"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/metrics"
	"github.com/abiball/abiball-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.DB().AutoMigrate(models.All()...); err != nil {
			logg.Error(context.Background(), "failed to migrate schema", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apiMetrics := metrics.NewAPIMetrics(registry)

	sender := notifications.NewSMTPSender(cfg.SMTP, logg)
	notifier, err := notifications.NewNotifier(sender, apiMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	eventsSvc, err := events.NewService(
		events.NewRepository(dbClient.DB()), dbClient, redisClient,
		cfg.Tickets, cfg.Password, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}

	availabilitySvc, err := availability.NewService(availability.NewRepository(dbClient.DB()), cfg.Tickets)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(dbClient.DB()), dbClient,
		availabilitySvc, eventsSvc, notifier, apiMetrics, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(
		payments.NewRepository(dbClient.DB()), dbClient, notifier, apiMetrics, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	ticketsSvc, err := tickets.NewService(
		tickets.NewRepository(dbClient.DB()), dbClient, cfg.Tickets, apiMetrics, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	documentsSvc, err := documents.NewService(documents.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient,
			map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			registry,
			apiMetrics,
			routes.Services{
				Users:     usersSvc,
				Events:    eventsSvc,
				Orders:    ordersSvc,
				Payments:  paymentsSvc,
				Tickets:   ticketsSvc,
				Documents: documentsSvc,
			}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
