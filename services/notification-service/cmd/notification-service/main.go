package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fachline/backend/libs/config"
	"github.com/fachline/backend/libs/db"
	"github.com/fachline/backend/libs/httpx"
	"github.com/fachline/backend/libs/kafkax"
	otelx "github.com/fachline/backend/libs/otel"
	"github.com/fachline/backend/libs/runtime"
	"github.com/fachline/backend/services/notification-service/internal/consumer"
	"github.com/fachline/backend/services/notification-service/internal/delivery"
	"github.com/fachline/backend/services/notification-service/internal/inbox"
	"github.com/fachline/backend/services/notification-service/internal/outbox"
	"github.com/fachline/backend/services/notification-service/internal/senders"
	"github.com/fachline/backend/services/notification-service/internal/storage"
)

func buildSenders(logger *slog.Logger) map[string]senders.Sender {
	byChannel := map[string]senders.Sender{
		"email": senders.NewSMTPSender(
			config.String("SMTP_HOST", "mailpit"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", "no-reply@fachline.local"),
		),
		"call": senders.NewNoopSender("call-list"),
	}

	for _, channel := range []string{"sms", "push"} {
		prefix := strings.ToUpper(channel)
		url := config.String(prefix+"_WEBHOOK_URL", "")
		if url == "" {
			logger.Warn("webhook url not configured, channel degraded to noop", "channel", channel)
			byChannel[channel] = senders.NewNoopSender(channel + "-noop")
			continue
		}
		byChannel[channel] = senders.NewWebhookSender(
			channel+"-webhook",
			url,
			config.String(prefix+"_WEBHOOK_TOKEN", ""),
		)
	}
	return byChannel
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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
	pool, err := db.Open(ctx, dbURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	processor := delivery.NewProcessor(
		buildSenders(logger),
		storage.NewContactsRepository(pool),
		storage.NewDeliveriesRepository(pool),
		outbox.NewEvents(outboxRepo),
		logger,
	)

	eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "scheduling.reminder.due.v1"),
	}, processor.Handle)
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
