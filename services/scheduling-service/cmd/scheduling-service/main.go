package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fachline/backend/libs/config"
	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/libs/httpx"
	"github.com/fachline/backend/libs/kafkax"
	otelx "github.com/fachline/backend/libs/otel"
	"github.com/fachline/backend/libs/runtime"
	"github.com/fachline/backend/services/scheduling-service/internal/appointments"
	"github.com/fachline/backend/services/scheduling-service/internal/cache"
	"github.com/fachline/backend/services/scheduling-service/internal/dispatch"
	"github.com/fachline/backend/services/scheduling-service/internal/grid"
	"github.com/fachline/backend/services/scheduling-service/internal/handlers"
	"github.com/fachline/backend/services/scheduling-service/internal/outbox"
	"github.com/fachline/backend/services/scheduling-service/internal/reminders"
	"github.com/fachline/backend/services/scheduling-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
	}

	apptRepo := storage.NewAppointmentRepository(pool)
	workerRepo := storage.NewWorkerRepository(pool)
	reminderRepo := storage.NewReminderRepository(pool)
	templateRepo := storage.NewTemplateRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	remsvc := reminders.NewService(reminderRepo, templateRepo, logger)
	store := appointments.NewStore(apptRepo, appointments.WithReminders(remsvc))
	if err := store.Load(ctx); err != nil {
		logger.Error("initial appointment load failed", "err", err)
		panic(err)
	}

	availCache := cache.NewAvailabilityCache(rdb, config.Duration("AVAILABILITY_CACHE_TTL", 30*time.Second))

	gridCfg := grid.Config{
		StartHour:   config.Int("GRID_START_HOUR", 8),
		EndHour:     config.Int("GRID_END_HOUR", 18),
		StepMinutes: config.Int("GRID_STEP_MINUTES", 30),
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	dispatchWorker := dispatch.NewWorker(pool, reminderRepo, outboxRepo, logger, dispatch.Config{
		Interval:  config.Duration("DISPATCH_INTERVAL", 5*time.Second),
		BatchSize: config.Int("DISPATCH_BATCH_SIZE", 50),
	})
	go dispatchWorker.Run(ctx)

	schedulingHandler := handlers.NewSchedulingHandler(store, workerRepo, remsvc, availCache, gridCfg, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	schedulingHandler.Register(mux)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 30*time.Second)),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
	}
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 300)
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
