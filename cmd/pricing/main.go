package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
	"github.com/wyfcoding/latticepricing/internal/pricing/infrastructure/messaging"
	"github.com/wyfcoding/latticepricing/internal/pricing/infrastructure/persistence/mysql"
	pricingredis "github.com/wyfcoding/latticepricing/internal/pricing/infrastructure/persistence/redis"
	grpcserver "github.com/wyfcoding/latticepricing/internal/pricing/interfaces/grpc"
	httpserver "github.com/wyfcoding/latticepricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/latticepricing/pkg/cache"
	"github.com/wyfcoding/latticepricing/pkg/config"
	"github.com/wyfcoding/latticepricing/pkg/db"
	"github.com/wyfcoding/latticepricing/pkg/logger"
	"github.com/wyfcoding/latticepricing/pkg/metrics"
	"github.com/wyfcoding/latticepricing/pkg/middleware"
	"github.com/wyfcoding/latticepricing/pkg/mq"
	"github.com/wyfcoding/latticepricing/pkg/ratelimit"
)

var configPath = pflag.String("config", "configs/pricing.toml", "config file path")

func main() {
	pflag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(ctx, "server exited with error", "error", err)
	}
	logger.Info(ctx, "server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)

	// 4. 初始化基础设施
	database, err := db.Init(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := mysql.AutoMigrate(database.DB); err != nil {
			return fmt.Errorf("migrate pricing results: %w", err)
		}
		if err := messaging.AutoMigrate(database.DB); err != nil {
			return fmt.Errorf("migrate outbox: %w", err)
		}
	}

	// Redis 不可用时降级为无缓存、无限流
	var (
		resultCache domain.PricingResultCache
		limiter     ratelimit.RateLimiter
	)
	redisClient, err := cache.New(ctx, cache.Config{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "redis unavailable, running without result cache and rate limiting", "error", err)
	} else {
		defer func(c *redis.Client) { _ = c.Close() }(redisClient)
		resultCache = pricingredis.NewPricingRedisRepository(redisClient, cfg.Pricing.ResultCacheTTL)
		limiter = ratelimit.NewRedisRateLimiter(redisClient, cfg.ServiceName+":ratelimit:")
	}

	// 5. 初始化仓储与事件发布
	repo := mysql.NewPricingRepository(database.DB)
	publisher := messaging.NewOutboxEventPublisher(database.DB)

	// 6. 初始化应用服务
	pricer := domain.NewBinomialPricer(cfg.Pricing.MaxSteps)
	commandSvc := application.NewPricingCommandService(pricer, repo, resultCache, publisher,
		application.WithMetricsRecorder(m),
		application.WithBatchConcurrency(cfg.Pricing.BatchConcurrency),
	)
	querySvc := application.NewPricingQueryService(repo, resultCache, cfg.Pricing.HistoryLimit)
	appService := application.NewPricingService(commandSvc, querySvc)

	// 7. 初始化接口层
	grpcSrv := grpcserver.NewServer(grpcserver.NewHandler(appService),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
			m.UnaryServerInterceptor(),
			middleware.GRPCRateLimitInterceptor(limiter, cfg.RateLimit),
		),
	)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		m.GinMiddleware(),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit),
	)
	httpserver.NewPricingHandler(appService, cfg.Pricing.MaxBatchSize).RegisterRoutes(r)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 8. 启动服务
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			return err
		}
		logger.Info(gctx, "gRPC server starting", "addr", cfg.GRPC.Addr())
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", cfg.HTTP.Addr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return m.Serve(gctx, fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path)
		})
	}

	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()

		relay := messaging.NewOutboxRelay(messaging.NewGormOutboxStore(database.DB), producer, m, messaging.RelayConfig{
			Topic:       cfg.Kafka.Topic,
			BatchSize:   cfg.Kafka.RelayBatchSize,
			Interval:    time.Duration(cfg.Kafka.RelayInterval) * time.Millisecond,
			MaxAttempts: cfg.Kafka.MaxAttempts,
		})
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		logger.Warn(ctx, "kafka disabled, outbox messages stay pending")
	}

	// 9. 优雅关闭
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
		grpcSrv.GracefulStop()
		return nil
	})

	return g.Wait()
}
