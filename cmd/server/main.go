package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/cage-booking-backend/internal/app"
	"github.com/nekogravitycat/cage-booking-backend/internal/cancellation"
	"github.com/nekogravitycat/cage-booking-backend/internal/config"
	"github.com/nekogravitycat/cage-booking-backend/internal/db"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/payment"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.IsProduction)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.WithError(err).Fatal("failed to migrate db")
		}
		logger.Info("database schema applied")
	}

	// Connect Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}

	// Events go to RabbitMQ when configured
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		publisher = amqpPublisher
	} else {
		logger.Warn("AMQP_URL not set, domain events are dropped")
	}
	defer publisher.Close()

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:  cfg.StripeSecretKey,
		Currency:   cfg.StripeCurrency,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	})

	container, err := app.NewContainer(app.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Location:            cfg.Location,
		DBPool:              pool,
		Redis:               rdb,
		Publisher:           publisher,
		Gateway:             gateway,
		Logger:              logger,
		JWTSecret:           cfg.JWTSecret,
		JWTTTL:              cfg.JWTAccessTokenTTL,
		SlotCacheTTL:        cfg.SlotCacheTTL,
		Hold:                hold.Config{Duration: cfg.HoldDuration, Tick: cfg.HoldTickInterval},
		Cancellation:        cancellation.Config{ConfirmTTL: cfg.CancelConfirmTTL, RefundWindow: cfg.RefundWindow},
		RefundSweepSchedule: cfg.RefundSweepSchedule,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to build application")
	}

	container.RefundSweeper.Start()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	}

	// Stop background work before closing the connections it uses
	container.RefundSweeper.Stop()
	container.HoldService.Shutdown()

	logger.Info("server exited gracefully")
}
