package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ogozo/service-storefront/internal/broker"
	"github.com/ogozo/service-storefront/internal/cart"
	"github.com/ogozo/service-storefront/internal/catalog"
	"github.com/ogozo/service-storefront/internal/config"
	"github.com/ogozo/service-storefront/internal/logging"
	"github.com/ogozo/service-storefront/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadConfig()
	cfg := config.AppConfig

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdown, err := observability.InitTracerProvider(ctx, cfg.OtelServiceName, cfg.OtelExporterEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	lookup, closeCatalog, err := newCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("could not set up catalog", zap.String("backend", cfg.CatalogBackend), zap.Error(err))
	}
	defer closeCatalog()
	logger.Info("catalog ready", zap.String("backend", cfg.CatalogBackend))

	settings := cart.Settings{
		MaxTokenBytes: cfg.CartTokenMaxBytes,
		Currency:      cfg.Currency,
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := broker.NewPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("failed to create publisher", zap.Error(err))
		}
		defer publisher.Close()
		settings.Publisher = publisher
		logger.Info("RabbitMQ publisher connected")
	} else {
		logger.Warn("RABBITMQ_URL not set, checkout is disabled")
	}

	cartService := cart.NewService(catalog.WithTimeout(lookup, cfg.CatalogTimeout), logger, settings)
	cartHandler := cart.NewHandler(cartService, logger, cart.CookieSettings{
		Name:   cfg.CartCookieName,
		MaxAge: cfg.CartCookieMaxAge,
		Secure: cfg.CartCookieSecure,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           cartHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("cart HTTP server listening", zap.String("addr", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
