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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/walletrecon/internal/adapter/http"
	"github.com/iho/walletrecon/internal/adapter/http/handler"
	"github.com/iho/walletrecon/internal/adapter/http/middleware"
	"github.com/iho/walletrecon/internal/adapter/ratesource"
	postgresRepo "github.com/iho/walletrecon/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletrecon/internal/adapter/repository/redis"
	"github.com/iho/walletrecon/internal/infrastructure/config"
	"github.com/iho/walletrecon/internal/infrastructure/eventbus"
	"github.com/iho/walletrecon/internal/infrastructure/logger"
	"github.com/iho/walletrecon/internal/infrastructure/metrics"
	"github.com/iho/walletrecon/internal/infrastructure/postgres"
	"github.com/iho/walletrecon/internal/infrastructure/ratesync"
	"github.com/iho/walletrecon/internal/infrastructure/redis"
	"github.com/iho/walletrecon/internal/infrastructure/retry"
	"github.com/iho/walletrecon/internal/usecase"
)

const limiterCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	bus := eventbus.New(log)
	defer bus.Close()
	bus.Subscribe(eventbus.AllEvents, eventbus.LogSubscriber(log))
	bus.Subscribe(eventbus.AllEvents, eventbus.MetricsSubscriber(m))

	policy := retryPolicy(cfg, log)

	// Initialize repositories
	idGen := postgresRepo.NewULIDGenerator()
	walletRepo := postgresRepo.NewWalletRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool)
	procedures := postgresRepo.NewProcedures(pool, idGen, postgresRepo.NewRetrier(policy, m))
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	rateCache := redisRepo.NewRateCache(redisRepo.NewCache(redisClient), cfg.RateCacheTTL)

	feeds := ratesource.New(ratesource.Config{
		FiatURL:           cfg.FiatRatesURL,
		CryptoURL:         cfg.CryptoRatesURL,
		Timeout:           cfg.RateFetchTimeout,
		RequestsPerSecond: cfg.RateProviderRPS,
		StaticFallback:    cfg.RateStaticFallback,
		Retry:             policy,
		Cache:             rateCache,
		Metrics:           m,
		Logger:            log,
	})

	// Initialize use cases
	rateUC := usecase.NewRateUseCase(rateRepo, feeds, m, log)
	aggregationUC := usecase.NewAggregationUseCase(postgresRepo.NewTransactionRepository(pool))
	walletUC := usecase.NewWalletUseCase(usecase.WalletUseCaseConfig{
		WalletRepo:     walletRepo,
		CurrencyRepo:   postgresRepo.NewCurrencyRepository(pool),
		Procedures:     procedures,
		IDGen:          idGen,
		AccountNumbers: postgresRepo.NewAccountNumberGenerator(),
		Events:         bus,
		Metrics:        m,
		Logger:         log,
	})
	reconUC := usecase.NewReconciliationUseCase(
		walletRepo,
		postgresRepo.NewUserRepository(pool),
		aggregationUC,
		rateUC,
		m,
		log,
	)

	rateLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst).WithMetrics(m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		RateHandler:           handler.NewRateHandler(rateUC),
		WalletHandler:         handler.NewWalletHandler(walletUC),
		LedgerHandler:         handler.NewLedgerHandler(aggregationUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC, cfg.BaseCurrency, cfg.ReconcileBatchSize),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:      idempotencyStore,
		RateLimiter:           rateLimiter,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:                log,
	})

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	syncer := ratesync.NewWorker(ratesync.Config{
		Source:   feeds,
		Store:    rateRepo,
		Logger:   log,
		Interval: cfg.RateSyncInterval,
	})
	go func() {
		if err := syncer.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("rate sync stopped")
		}
	}()

	go cleanupLimiters(workerCtx, rateLimiter, limiterCleanupInterval)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// retryPolicy builds the policy shared by the database retrier and the rate
// feeds.
func retryPolicy(cfg *config.Config, log zerolog.Logger) retry.Policy {
	policy := retry.Default()
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialInterval > 0 {
		policy.InitialInterval = cfg.RetryInitialInterval
	}
	if cfg.RetryMaxInterval > 0 {
		policy.MaxInterval = cfg.RetryMaxInterval
	}
	policy.Logger = log
	return policy
}

func listenAddr(port string) string {
	return net.JoinHostPort("", port)
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters()
		}
	}
}
