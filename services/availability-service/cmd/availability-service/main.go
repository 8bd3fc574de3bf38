package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/apptslots/libs/db"
	"github.com/md-rashed-zaman/apptslots/libs/grpcx"
	"github.com/md-rashed-zaman/apptslots/libs/httpx"
	"github.com/md-rashed-zaman/apptslots/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptslots/libs/otel"
	"github.com/md-rashed-zaman/apptslots/libs/runtime"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/cache"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/calendar"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/config"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/consumer"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/inbox"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	feed, err := buildCalendarFeed(ctx, cfg, logger)
	if err != nil {
		logger.Error("calendar feed setup failed", "provider", cfg.CalendarProvider, "err", err)
		os.Exit(1)
	}

	eng := engine.New(storage.NewRepository(pool), feed, engine.Options{
		Logger:          logger,
		DefaultStrategy: cfg.AssignmentStrategy,
		FailurePolicy:   cfg.OverrideFailurePolicy,
	})

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var (
		responseCache handlers.ResponseCache
		rdb           *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		rc := cache.NewResponseCache(rdb, cfg.CacheTTL, cfg.CachePrefix)
		responseCache = rc
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:     "redis",
			Optional: true,
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("availability cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)

		if cfg.KafkaBrokers != "" {
			inboxRepo := inbox.NewRepository(pool)
			go inboxRepo.RunPruner(ctx, logger, cfg.InboxRetention, time.Hour)

			eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topics:  kafkax.SplitList(cfg.KafkaConsumeTopics),
			}, consumer.InvalidationHandler(logger, rc))
			go eventConsumer.Run(ctx)
			readyChecks = append(readyChecks, runtime.ReadyCheck{
				Name:     "kafka",
				Optional: true,
				Check:    kafkax.ReadyCheck(cfg.KafkaBrokers),
			})
		}
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.NewAvailabilityHandler(eng, responseCache, logger).Register(mux)

	var rateLimitMW httpx.Middleware
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.CachePrefix+":rl")
		rateLimitMW = rl.Middleware(logger, cfg.RateLimitFailOpen)
	} else {
		rateLimitMW = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: kafkax.SplitList(cfg.CORSAllowedOrigins),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader, httpx.TenantIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithTenantID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.RequestBodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "availability")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcx.NewServer(grpcx.ServerOptions{Logger: logger, ServiceName: cfg.ServiceName})
	go func() {
		addr := net.JoinHostPort("", cfg.GRPCPort)
		logger.Info("grpc server starting", "addr", addr)
		if err := grpcServer.ListenAndServe(addr); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcServer.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("servers stopped")
}

func buildCalendarFeed(ctx context.Context, cfg config.Config, logger *slog.Logger) (engine.CalendarFeed, error) {
	switch cfg.CalendarProvider {
	case config.CalendarGoogle:
		creds, err := calendar.GoogleCredentialsOption(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, err
		}
		feed, err := calendar.NewGoogleFeed(ctx, logger, creds)
		if err != nil {
			return nil, err
		}
		return feed, nil
	case config.CalendarCalDAV:
		feed, err := calendar.NewCalDAVFeed(logger, cfg.CalDAVEndpoint, cfg.CalDAVUsername, cfg.CalDAVPassword)
		if err != nil {
			return nil, err
		}
		return feed, nil
	default:
		return nil, nil
	}
}
