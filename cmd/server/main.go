// Package main boots the raffle server: configuration from the environment,
// structured logging, optional postgres archive, redis rate limiting, kafka
// event stream and OTLP tracing, then the HTTP API with graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tombola/internal/collectible"
	"tombola/internal/events"
	jwttoken "tombola/internal/jwt_token"
	"tombola/internal/platform/config"
	"tombola/internal/platform/httpserver"
	"tombola/internal/platform/logger"
	"tombola/internal/platform/metrics"
	"tombola/internal/platform/middleware"
	"tombola/internal/platform/postgres"
	"tombola/internal/platform/redis"
	"tombola/internal/platform/tracing"
	"tombola/internal/raffle/handler"
	rafflemetrics "tombola/internal/raffle/metrics"
	"tombola/internal/raffle/ports"
	"tombola/internal/raffle/service"
	"tombola/internal/raffle/store"
	"tombola/internal/randomness"
	"tombola/internal/ratelimit"
	"tombola/internal/secrets"
	"tombola/internal/treasury"
	"tombola/pkg/domain"
)

const (
	requestTimeout = 30 * time.Second

	// eventLogRetention bounds the in-process event log behind
	// GET /raffle/events.
	eventLogRetention = 1024
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	// Epoch archive: postgres when configured, otherwise in memory.
	var archive ports.ArchiveStore = store.NewMemory()
	db, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if db != nil {
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure archive schema: %w", err)
		}
		archive = store.NewPostgres(db)
		log.Info("epoch archive on postgres")
	}

	// Rate-limit store: redis when configured, otherwise per instance.
	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		redisStore := ratelimit.NewRedisStore(redisClient.Client)
		limitStore = ratelimit.NewFallbackStore(redisStore, ratelimit.NewMemoryStore(), log)
		log.Info("rate limiting on redis")
	}

	operator := domain.NewAccountID()
	if cfg.Raffle.OperatorAccount != "" {
		operator, err = domain.ParseAccountID(cfg.Raffle.OperatorAccount)
		if err != nil {
			return fmt.Errorf("parse operator account: %w", err)
		}
	} else {
		log.Warn("no operator account configured, generated one", "account", operator.String())
	}

	bank := treasury.NewBank(domain.NewAccountID())
	book := collectible.NewBook()

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(rafflemetrics.New()),
	}

	// Event pipeline: the bounded in-process log always receives the stream
	// (it backs GET /raffle/events); Kafka joins when brokers are configured.
	eventLog := events.NewBoundedMemoryStore(eventLogRetention)
	sinks := []events.Sink{eventLog}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("event stream on kafka", "topic", cfg.Kafka.Topic)
	}
	emitter := events.NewEmitter(log, sinks...)
	serviceOpts = append(serviceOpts, service.WithPublisher(emitter))

	svc := service.New(service.Policy{
		EntranceFee:      domain.Amount(cfg.Raffle.EntranceFee),
		MinRoundDuration: cfg.Raffle.MinRoundDuration,
		PrizeShareBps:    cfg.Raffle.PrizeShareBps,
		Operator:         operator,
	}, bank, randomness.New(), book, archive, serviceOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, "tombola", "tombola")
	adminHash, err := secrets.Hash(cfg.Auth.AdminToken)
	if err != nil {
		return fmt.Errorf("hash admin token: %w", err)
	}

	var enterLimit func(http.Handler) http.Handler
	if cfg.Raffle.EnterRatePerMin > 0 {
		limiter := ratelimit.New(limitStore, cfg.Raffle.EnterRatePerMin, time.Minute, log)
		enterLimit = limiter.Middleware()
	}

	api := handler.New(svc, book, jwtService, handler.Config{
		Guards: handler.Guards{
			Entrant:    middleware.RequireAuth(jwttoken.NewMiddlewareAdapter(jwtService), log),
			Operator:   middleware.RequireAdminToken(adminHash, log),
			EnterLimit: enterLimit,
		},
		DevTokens: cfg.Auth.DevTokens,
		TokenTTL:  cfg.Auth.TokenTTL,
		EventLog:  eventLog,
	}, log)
	if cfg.Auth.DevTokens {
		log.Warn("development token endpoint enabled")
	}

	httpMetrics := metrics.NewHTTP()
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// Readiness covers the optional backends; with neither configured it
	// degenerates to liveness.
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if db != nil {
			if err := db.PingContext(req.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())
	api.Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("raffle server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return emitter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
