package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/JohannsenLum/chow/internal/auth"
	"github.com/JohannsenLum/chow/internal/config"
	"github.com/JohannsenLum/chow/internal/event"
	handler "github.com/JohannsenLum/chow/internal/handler/http"
	"github.com/JohannsenLum/chow/internal/repository/postgres"
	"github.com/JohannsenLum/chow/internal/service"
	"github.com/JohannsenLum/chow/internal/session"
	"github.com/JohannsenLum/chow/migrations"
	"github.com/JohannsenLum/chow/pkg/database"
	"github.com/JohannsenLum/chow/pkg/health"
	pkgkafka "github.com/JohannsenLum/chow/pkg/kafka"
	"github.com/JohannsenLum/chow/pkg/tracing"
)

// profileCacheTTL bounds how stale a cached profile can get when the
// database is unreachable. Session entries live as long as their refresh
// token instead.
const profileCacheTTL = time.Hour

// App wires together all dependencies and runs the chow server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	consumerCancel context.CancelFunc
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "chow-server",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampling,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for the session store and profile cache.
	redisCfg, err := redisConfigFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		pool.Close()
		return nil, err
	}
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Parse JWT expiry durations.
	accessExpiry, err := time.ParseDuration(cfg.JWTAccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse JWT access expiry %q: %w", cfg.JWTAccessExpiry, err)
	}
	refreshExpiry, err := time.ParseDuration(cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("parse JWT refresh expiry %q: %w", cfg.JWTRefreshExpiry, err)
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, accessExpiry, refreshExpiry)
	userRepo := postgres.NewUserRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	questRepo := postgres.NewQuestRepository(pool)
	petRepo := postgres.NewPetRepository(pool)
	sessionStore := session.NewStore(redisClient, refreshExpiry)
	profileCache := session.NewProfileCache(redisClient, profileCacheTTL)
	eventProducer := event.NewProducer(producer, logger)

	sessionService := service.NewSessionService(userRepo, refreshTokenRepo, sessionStore, jwtManager, eventProducer, logger)
	profileService := service.NewProfileService(userRepo, profileCache, eventProducer, logger)
	questService := service.NewQuestService(questRepo, profileService, eventProducer, logger)

	// Kafka consumers for cross-instance coherence.
	consumerHandler := event.NewConsumerHandler(sessionService, profileService, logger)
	consumers := event.NewConsumers(cfg.KafkaBrokers, cfg.KafkaGroupID, consumerHandler, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(
		sessionService,
		profileService,
		questService,
		petRepo,
		jwtManager,
		healthHandler,
		logger,
		handler.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the Kafka consumers and the HTTP server, then blocks until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	a.consumerCancel = consumerCancel
	for _, c := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer stopped", slog.String("error", err.Error()))
			}
		}(c)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka consumers
// 3. Tracer (flush pending spans from drained requests)
// 4. Kafka producer
// 5. Redis client
// 6. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Stop Kafka consumers.
	if a.consumerCancel != nil {
		a.consumerCancel()
	}
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close Redis client.
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 6. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// redisConfigFromAddr splits a host:port address into the structured Redis
// config the database package expects.
func redisConfigFromAddr(addr, password string, db int) (database.RedisConfig, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return database.RedisConfig{}, fmt.Errorf("parse redis addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return database.RedisConfig{}, fmt.Errorf("parse redis port %q: %w", portStr, err)
	}
	return database.RedisConfig{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       db,
	}, nil
}
