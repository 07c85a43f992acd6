package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Georgemuchir/thrift-ease/internal/auth"
	"github.com/Georgemuchir/thrift-ease/internal/cache"
	h "github.com/Georgemuchir/thrift-ease/internal/http"
	"github.com/Georgemuchir/thrift-ease/internal/metrics"
	"github.com/Georgemuchir/thrift-ease/internal/pricing"
	"github.com/Georgemuchir/thrift-ease/internal/publisher"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
	"github.com/Georgemuchir/thrift-ease/internal/service"
)

type Config struct {
	HTTPPort        string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsPath  string
	RedisAddr       string
	KafkaBrokers    []string
	JWTSecret       string
	TokenTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Pricing         pricing.Config
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          dbPort,
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "thriftease_db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		JWTSecret:       getEnv("JWT_SECRET", "thriftease-dev-secret"),
		TokenTTL:        30 * time.Minute,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Pricing: pricing.Config{
			ShippingFlat:          decimalEnv("SHIPPING_FLAT", "10.00"),
			FreeShippingThreshold: decimalEnv("FREE_SHIPPING_THRESHOLD", "100.00"),
			TaxRate:               decimalEnv("TAX_RATE", "0.08"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func decimalEnv(key, defaultValue string) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return d
}

func main() {
	cfg := loadConfig()

	db, err := repository.Open(&repository.Credentials{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(db, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	productRepo := repository.NewProductRepo(db)
	cartRepo := repository.NewCartRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	userRepo := repository.NewUserRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	engine := pricing.NewEngine(cfg.Pricing)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewBcryptHasher()

	catalogSvc := service.NewCatalogService(productRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo, cartCache)
	checkoutSvc := service.NewCheckoutService(orderRepo, cartCache, engine)
	orderSvc := service.NewOrderService(orderRepo)
	userSvc := service.NewUserService(userRepo, statsRepo, hasher, tokens)

	authHandler := h.NewAuthHandler(userSvc, cfg.RequestTimeout)
	productHandler := h.NewProductHandler(catalogSvc, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(cartSvc, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(checkoutSvc, orderSvc, cfg.RequestTimeout)
	adminHandler := h.NewAdminHandler(userSvc, cfg.RequestTimeout)

	serverMetrics := metrics.NewServerMetrics("api")

	// Outbox poller delivers order events to Kafka in the background.
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	poller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(serverMetrics.Middleware)

	requireAuth := h.AuthMiddleware(tokens)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/featured", productHandler.Featured)
			r.Get("/categories", productHandler.Categories)
			r.Get("/search", productHandler.Search)
			r.Get("/{product_id}", productHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, h.RequireAdmin)
				r.Post("/", productHandler.Create)
				r.Put("/{product_id}", productHandler.Update)
				r.Delete("/{product_id}", productHandler.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddItem)
			r.Put("/{item_id}", cartHandler.UpdateItem)
			r.Delete("/{item_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.Clear)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", ordersHandler.Checkout)
			r.Get("/", ordersHandler.ListOrders)
			r.With(h.RequireAdmin).Get("/admin", ordersHandler.ListAllOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
			r.With(h.RequireAdmin).Put("/{order_id}/status", ordersHandler.UpdateStatus)
			r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, h.RequireAdmin)
			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users/{user_id}/make-admin", adminHandler.MakeAdmin)
			r.Post("/users/{user_id}/deactivate", adminHandler.DeactivateUser)
			r.Get("/stats", adminHandler.Stats)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "thriftease-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("thriftease API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
