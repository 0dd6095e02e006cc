package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-foodcourt/internal/auth"
	"ms-foodcourt/internal/catalog"
	catalog_api "ms-foodcourt/internal/catalog/api"
	catalog_db "ms-foodcourt/internal/catalog/db"
	"ms-foodcourt/internal/config"
	"ms-foodcourt/internal/database/migrations"
	"ms-foodcourt/internal/kafka"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/order"
	order_api "ms-foodcourt/internal/order/api"
	order_db "ms-foodcourt/internal/order/db"
	"ms-foodcourt/internal/realtime"
	"ms-foodcourt/internal/review"
	review_api "ms-foodcourt/internal/review/api"
	review_db "ms-foodcourt/internal/review/db"
	"ms-foodcourt/internal/user"
	user_api "ms-foodcourt/internal/user/api"
	user_db "ms-foodcourt/internal/user/db"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func healthHandler(bunDB *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := bunDB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"degraded","database":"unreachable"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"api-service"}`)
	}
}

func main() {
	logger := logger.NewLogger("api-service")
	defer logger.Close()

	logger.Info("APP", "Starting API Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("MIGRATION", "AUTO_MIGRATE enabled, applying schema migrations")
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.MigrateUp(); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Schema migration failed: %v", err))
		}
		if err := migrations.RunDataMigrations(ctx, bunDB, logger,
			migrations.PreferenceConsolidation{},
			migrations.ReviewDeduplication{},
		); err != nil {
			logger.Fatal("MIGRATION", fmt.Sprintf("Data migration failed: %v", err))
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics()); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order events will not be streamed")
	}

	publisher := realtime.NewPublisher(redisClient)

	userService := user.NewUserService(user_db.NewDBLayer(bunDB), logger)
	catalogService := catalog.NewCatalogService(catalog_db.NewDBLayer(bunDB), logger)
	reviewService := review.NewReviewService(review_db.NewDBLayer(bunDB), publisher, logger)

	var orderEvents order.EventPublisher
	if producer != nil {
		orderEvents = producer
	}
	orderService := order.NewOrderService(order_db.NewDBLayer(bunDB), orderEvents, order.Config{
		ShippingFee:     2.50,
		FreeShippingMin: 50,
		PickupSecret:    os.Getenv("PICKUP_QR_SECRET"),
	}, logger)

	orderHandler := order_api.NewOrderHandler(orderService, logger)
	userHandler := user_api.NewUserHandler(userService, logger)
	catalogHandler := catalog_api.NewCatalogHandler(catalogService, logger)
	reviewHandler := review_api.NewReviewHandler(reviewService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Get("/health", healthHandler(bunDB))

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		catalogHandler.PublicRoutes(r)
		reviewHandler.PublicRoutes(r)
		logger.Info("ROUTER", "Public catalog and review endpoints registered under /api")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer, userService))
			logger.Info("AUTH", "OIDC middleware applied to protected API routes")

			reviewHandler.Routes(r)
			logger.Info("ROUTER", "Review routes registered under /api/products")

			r.Route("/orders", orderHandler.Routes)
			logger.Info("ROUTER", "Order routes registered under /api/orders")

			r.Route("/user", userHandler.Routes)
			logger.Info("ROUTER", "User routes registered under /api/user")

			r.Route("/admin", func(r chi.Router) {
				catalogHandler.AdminRoutes(r)
				r.Route("/orders", orderHandler.AdminRoutes)
			})
			logger.Info("ROUTER", "Admin routes registered under /api/admin")
		})
	})

	// --- Internal Routes (payment service callbacks) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.InternalMiddleware(os.Getenv("INTERNAL_API_TOKEN")))
		r.Route("/internal/orders", orderHandler.InternalRoutes)
		logger.Info("ROUTER", "Internal order routes registered under /internal/orders")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 API Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ API Service shutdown complete")
	}
}
