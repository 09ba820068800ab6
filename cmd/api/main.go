package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/threadline/storefront/internal/catalog"
	"github.com/threadline/storefront/internal/config"
	"github.com/threadline/storefront/internal/messaging"
	"github.com/threadline/storefront/internal/orders"
	"github.com/threadline/storefront/internal/telemetry"
)

const (
	serviceName    = "storefront-api"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if cfg.HasKafka() {
		producer = messaging.NewProducer(cfg.KafkaBrokers, "order.created")
		defer func() { _ = producer.Close() }()
	}

	products := catalog.NewProductRepository(db)
	catalogHandler := catalog.NewHandler(products, logger)

	orderService := orders.NewService(orders.NewOrderRepository(db), products)
	orderHandler, err := orders.NewHandler(orderService, producer, logger)
	if err != nil {
		logger.Error("failed to create order handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleListProducts))
	mux.HandleFunc("GET /products/featured", telemetry.WithHTTPRoute(catalogHandler.HandleFeaturedProducts))
	mux.HandleFunc("GET /products/{slug}", telemetry.WithHTTPRoute(catalogHandler.HandleGetProduct))
	mux.HandleFunc("GET /categories", telemetry.WithHTTPRoute(catalogHandler.HandleListCategories))
	mux.HandleFunc("GET /categories/{slug}", telemetry.WithHTTPRoute(catalogHandler.HandleGetCategory))

	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("GET /orders/{orderNumber}/track", telemetry.WithHTTPRoute(orderHandler.HandleTrack))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(orderHandler.HandleUpdateStatus))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
