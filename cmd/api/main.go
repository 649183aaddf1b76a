package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/media"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := pflag.StringP("config", "c", "", "optional config file layered under environment variables")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	cartRepo, closeCart, err := newCartRepository(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer closeCart()

	// Order events go to Kafka when enabled
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events to kafka")
	} else {
		publisher = events.NewNopPublisher()
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Product media and invoices live in S3 when enabled
	mediaStore := media.NewNoopStore(logger)
	if cfg.S3.Enabled {
		s3Store, err := media.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 media store, object deletes will be skipped")
		} else {
			mediaStore = s3Store
		}
	} else {
		logger.Info().Msg("S3 disabled, object deletes will be skipped")
	}

	// Payment verification falls back to the gateway only when credentials exist
	var gateway payment.GatewayClient
	if cfg.Payment.Configured() {
		gateway = payment.NewRESTClient(
			cfg.Payment.BaseURL,
			cfg.Payment.KeyID,
			cfg.Payment.Secret,
			time.Duration(cfg.Payment.TimeoutSeconds)*time.Second,
			logger,
		)
	} else {
		logger.Warn().Msg("payment gateway credentials missing, callbacks without a valid signature will fail")
	}
	verifier := payment.NewVerifier(cfg.Payment.Secret, gateway, logger)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, mediaStore, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(
		orderRepo,
		productRepo,
		cartRepo,
		verifier,
		publisher,
		mediaStore,
		service.OrderConfig{
			SurchargePercent:      cfg.Orders.SurchargePercent,
			EnforceStatusGraph:    cfg.Orders.EnforceStatusGraph,
			StrictVariantStock:    cfg.Orders.StrictVariantStock,
			RestrictNotesToOwners: cfg.Orders.RestrictNotesToOwners,
		},
		logger,
	)

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService, logger)
	cartHandler := handler.NewCartHandler(cartService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(catalogHandler, cartHandler, orderHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCartRepository selects the cart ledger store. The returned func releases
// any client it opened.
func newCartRepository(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (repository.CartRepository, func(), error) {
	if cfg.Cart.Store != "redis" {
		logger.Info().Msg("storing carts in postgres")
		return repository.NewCartRepository(pool, logger), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("storing carts in redis")
	ttl := time.Duration(cfg.Redis.TTLHours) * time.Hour
	return repository.NewRedisCartRepository(client, ttl, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}, nil
}
