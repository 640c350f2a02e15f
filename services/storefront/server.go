// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storefront assembles the storefront HTTP service from its
// parts: stores, domain services, handlers, and observability.
package storefront

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/config"
	"github.com/tidewater-commerce/tidewater/services/storefront/images"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
	"github.com/tidewater-commerce/tidewater/services/storefront/routes"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/badgercache"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/memory"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/postgres"
)

// Server is the assembled storefront service.
type Server struct {
	cfg    *config.Config
	logger *logging.Logger
	engine *gin.Engine

	mode    string
	limiter *rate.Limiter
	cleanup []func(context.Context) error
}

// domainStores groups the per-domain adapters regardless of backend.
type domainStores struct {
	cart     cart.Store
	catalog  catalog.Store
	admin    admin.Store
	payments payments.Store
	resolver middleware.SessionResolver
}

// memoryResolver adapts the memory store to the middleware resolver.
type memoryResolver struct {
	store *memory.Store
}

func (r memoryResolver) Resolve(ctx context.Context, token string) (*middleware.AuthInfo, error) {
	userID, email, role, ok := r.store.Resolve(token)
	if !ok {
		return nil, nil
	}
	return &middleware.AuthInfo{UserID: userID, Email: email, Role: role}, nil
}

// NewServer builds the service. When the database is unreachable (or
// unconfigured) it falls back to the in-memory store so development
// and demos work without infrastructure; the active mode is visible
// on /health.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Server{cfg: cfg, logger: logger}

	stores, objects, err := s.openStores(cfg)
	if err != nil {
		return nil, err
	}

	cache, err := badgercache.Open(badgercache.Config{
		Path:       cfg.Cache.Path,
		InMemory:   cfg.Cache.InMemory,
		DefaultTTL: cfg.Cache.TTL,
		Logger:     logger.Slog(),
	})
	if err != nil {
		logger.Warn("catalog cache unavailable, serving uncached", "error", err)
		cache = nil
	} else {
		s.cleanup = append(s.cleanup, func(context.Context) error { return cache.Close() })
	}

	verifier, err := s.buildVerifier(cfg)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.Webhook.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Webhook.RateLimit), cfg.Webhook.RateBurst)
	}
	s.limiter = limiter

	if cfg.Tracing.Enabled {
		shutdown, err := initTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("initializing tracer: %w", err)
		}
		s.cleanup = append(s.cleanup, shutdown)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("tidewater-storefront"))
	engine.Use(routes.Observe())

	routes.Register(engine, routes.Deps{
		Cart:      cart.NewService(stores.cart, logger),
		Catalog:   catalog.NewTree(stores.catalog, logger),
		Products:  admin.NewProducts(stores.admin, objects, logger),
		Customers: admin.NewCustomers(stores.admin, logger),
		Orders:    admin.NewOrders(stores.admin, logger),
		Verifier:  verifier,
		Processor: payments.NewProcessor(stores.payments, cfg.Webhook.Provider, logger),
		Resolver:  stores.resolver,
		Cache:     cache,
		Limiter:   limiter,
		Logger:    logger,
		Mode:      s.mode,
	})

	s.engine = engine
	return s, nil
}

// openStores connects to postgres, or falls back to memory mode.
func (s *Server) openStores(cfg *config.Config) (domainStores, admin.ObjectStore, error) {
	if cfg.Database.Host != "" {
		store, err := postgres.Open(postgres.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err == nil {
			if err := store.AutoMigrate(); err != nil {
				return domainStores{}, nil, fmt.Errorf("migrating schema: %w", err)
			}
			s.mode = "postgres"
			s.cleanup = append(s.cleanup, func(context.Context) error { return store.Close() })
			objects, err := s.openImages(cfg)
			if err != nil {
				return domainStores{}, nil, err
			}
			return domainStores{
				cart:     store.Cart(),
				catalog:  store.Catalog(),
				admin:    store.Admin(),
				payments: store.Payments(),
				resolver: store.Auth(),
			}, objects, nil
		}
		s.logger.Warn("database unreachable, falling back to memory store", "error", err)
	}

	s.mode = "memory"
	mem := memory.New()
	return domainStores{
		cart:     mem.Cart(),
		catalog:  mem.Catalog(),
		admin:    mem.Admin(),
		payments: mem.Payments(),
		resolver: memoryResolver{store: mem},
	}, memory.NewObjectStore(), nil
}

// openImages connects the GCS image store when a bucket is configured.
func (s *Server) openImages(cfg *config.Config) (admin.ObjectStore, error) {
	if cfg.Images.Bucket == "" {
		s.logger.Warn("no image bucket configured, image uploads disabled")
		return nil, nil
	}
	store, err := images.NewGCSStore(context.Background(), cfg.Images.Bucket, cfg.Images.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	s.cleanup = append(s.cleanup, func(context.Context) error { return store.Close() })
	return store, nil
}

// buildVerifier seals the webhook secret. Without a configured secret
// an ephemeral one is generated so the endpoint stays up but rejects
// every delivery; this keeps dev environments honest about signing.
func (s *Server) buildVerifier(cfg *config.Config) (*payments.Verifier, error) {
	secret := config.WebhookSecret()
	if len(secret) == 0 {
		s.logger.Warn("TIDEWATER_WEBHOOK_SECRET not set, using ephemeral secret; " +
			"webhook deliveries will fail verification")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating ephemeral secret: %w", err)
		}
	}
	keeper, err := payments.NewSecretKeeper(secret)
	if err != nil {
		return nil, err
	}
	return payments.NewVerifier(keeper, cfg.Webhook.Tolerance), nil
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// ApplyConfig applies the hot-reloadable subset of a freshly loaded
// config: currently the webhook rate limit. Listener address, store
// selection, and tracing need a restart and are ignored here.
func (s *Server) ApplyConfig(cfg *config.Config) {
	if s.limiter != nil && cfg.Webhook.RateLimit > 0 {
		s.limiter.SetLimit(rate.Limit(cfg.Webhook.RateLimit))
		s.limiter.SetBurst(cfg.Webhook.RateBurst)
		s.logger.Info("webhook rate limit updated",
			"limit", cfg.Webhook.RateLimit, "burst", cfg.Webhook.RateBurst)
	}
}

// Mode reports the active storage backend.
func (s *Server) Mode() string { return s.mode }

// Run serves HTTP until the context is cancelled, then drains within
// the configured shutdown timeout and releases every resource.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("storefront listening", "addr", addr, "mode", s.mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.close()
	return err
}

// close runs the accumulated cleanups in reverse order.
func (s *Server) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](ctx); err != nil {
			s.logger.Warn("cleanup failed", "error", err)
		}
	}
}

// initTracer wires the OTLP gRPC span exporter and registers the
// global tracer provider.
func initTracer(ctx context.Context, cfg config.TracingConfig) (func(context.Context) error, error) {
	opts := []grpc.DialOption{}
	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("tidewater-storefront")))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return provider.Shutdown(ctx)
	}, nil
}
